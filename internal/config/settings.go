// Package config loads rocolatey's own settings file and the feeds
// configured for chocolatey.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/rocolatey/rocolatey/internal/models"
)

// settingsNames are looked up in order in each search directory
var settingsNames = []string{"rocolatey.toml", "rocolatey.yaml", "rocolatey.yml", "rocolatey.hcl"}

// FeedSettings declares a feed in addition to those in chocolatey.config
type FeedSettings struct {
	Name     string `toml:"name" yaml:"name" hcl:"name,label"`
	URL      string `toml:"url" yaml:"url" hcl:"url"`
	User     string `toml:"user" yaml:"user" hcl:"user,optional"`
	Password string `toml:"password" yaml:"password" hcl:"password,optional"`
	Disabled bool   `toml:"disabled" yaml:"disabled" hcl:"disabled,optional"`
	Priority int    `toml:"priority" yaml:"priority" hcl:"priority,optional"`
}

// Settings is the content of rocolatey.toml / rocolatey.yaml / rocolatey.hcl.
// HCL files declare feeds as labelled blocks: feed "name" { url = "..." }.
type Settings struct {
	ChocolateyDir        string         `toml:"chocolatey_dir" yaml:"chocolatey_dir" hcl:"chocolatey_dir,optional"`
	RequireSSLValidation bool           `toml:"require_ssl_validation" yaml:"require_ssl_validation" hcl:"require_ssl_validation,optional"`
	TimeoutSeconds       int            `toml:"timeout_seconds" yaml:"timeout_seconds" hcl:"timeout_seconds,optional"`
	CacheTTLMinutes      int            `toml:"cache_ttl_minutes" yaml:"cache_ttl_minutes" hcl:"cache_ttl_minutes,optional"`
	NoCache              bool           `toml:"no_cache" yaml:"no_cache" hcl:"no_cache,optional"`
	Listen               string         `toml:"listen" yaml:"listen" hcl:"listen,optional"`
	Feeds                []FeedSettings `toml:"feeds" yaml:"feeds" hcl:"feed,block"`
}

// Load reads a settings file, choosing the format by extension
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	case ".hcl":
		err = decodeHCL(path, data, &s)
	default:
		return nil, fmt.Errorf("unsupported settings format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, f := range s.Feeds {
		if f.URL == "" {
			return nil, fmt.Errorf("%s: feed %d has no url", path, i+1)
		}
		if f.Name == "" {
			s.Feeds[i].Name = f.URL
		}
	}
	return &s, nil
}

func decodeHCL(path string, data []byte, s *Settings) error {
	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return diags
	}
	if diags := gohcl.DecodeBody(file.Body, nil, s); diags.HasErrors() {
		return diags
	}
	return nil
}

// Find returns the first settings file found in dirs, or "" if none exists
func Find(dirs ...string) string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range settingsNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// SearchDirs returns the directories searched for a settings file: the
// working directory, then the user config directory
func SearchDirs() []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if cfgDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfgDir, "rocolatey"))
	}
	return dirs
}

// Apply copies the values set in the settings file onto cfg
func (s *Settings) Apply(cfg *models.Config) {
	if s == nil {
		return
	}
	if s.ChocolateyDir != "" {
		cfg.ChocolateyDir = s.ChocolateyDir
	}
	if s.RequireSSLValidation {
		cfg.RequireSSLValidation = true
	}
	if s.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(s.TimeoutSeconds) * time.Second
	}
	if s.CacheTTLMinutes > 0 {
		cfg.CacheTTL = time.Duration(s.CacheTTLMinutes) * time.Minute
	}
	if s.NoCache {
		cfg.NoCache = true
	}
}

// DefaultChocolateyDir is used when ChocolateyInstall is not set
const DefaultChocolateyDir = `C:\ProgramData\chocolatey`

// ChocolateyDir returns override if set, else $ChocolateyInstall, else the
// default installation directory
func ChocolateyDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if dir := os.Getenv("ChocolateyInstall"); dir != "" {
		return dir, nil
	}
	if runtime.GOOS == "windows" {
		return DefaultChocolateyDir, nil
	}
	return "", fmt.Errorf("chocolatey directory unknown: set ChocolateyInstall or --choco-dir")
}
