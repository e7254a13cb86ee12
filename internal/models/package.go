package models

import "strings"

// Package represents a package known locally or reported by a feed
type Package struct {
	ID           string
	Version      string
	Pinned       bool
	Dependencies []Package // Direct dependencies (id + version only)
}

// Key returns the case-insensitive identity of the package
func (p Package) Key() string {
	return strings.ToLower(p.ID)
}

// String returns a human-readable representation
func (p Package) String() string {
	return p.ID + "@" + p.Version
}

// IDs returns the ids of the given packages in order
func IDs(pkgs []Package) []string {
	ids := make([]string, len(pkgs))
	for i, p := range pkgs {
		ids[i] = p.ID
	}
	return ids
}

// OutdatedRecord is one row of the outdated report
type OutdatedRecord struct {
	ID             string
	LocalVersion   string
	RemoteVersion  string
	Pinned         bool
	Outdated       bool
	ExistsOnRemote bool
}
