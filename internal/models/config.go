package models

import "time"

// FilterAll selects every local package
const FilterAll = "all"

// Config holds configuration for an outdated scan
type Config struct {
	// Chocolatey installation directory (lib/, config/, .chocolatey/)
	ChocolateyDir string

	// Package selection
	Filter        string // "all" or a single package id
	Prerelease    bool
	IgnorePinned  bool
	IgnoreUnfound bool

	// Output settings
	OutputFormat string // "text", "json", "table", "sarif"
	LimitOutput  bool
	ListOutput   bool

	// Cache settings
	CacheTTL time.Duration
	NoCache  bool

	// Feed settings
	RequireSSLValidation bool
	Timeout              time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Filter:       FilterAll,
		OutputFormat: "text",
		CacheTTL:     40 * time.Minute,
		Timeout:      60 * time.Second,
	}
}
