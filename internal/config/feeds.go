package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/parsers"
)

// DecryptFunc turns a stored chocolatey secret into plain text
type DecryptFunc func(encrypted string) (string, error)

// ConfigPath returns the location of chocolatey.config
func ConfigPath(chocoDir string) string {
	return filepath.Join(chocoDir, "config", "chocolatey.config")
}

// LoadFeeds returns the sources of chocolatey.config followed by the extra
// feeds of the settings file. A missing chocolatey.config is only an error
// when no extra feeds are configured.
func LoadFeeds(chocoDir string, settings *Settings, decrypt DecryptFunc) ([]*models.Feed, error) {
	if decrypt == nil {
		decrypt = Decrypt
	}

	var feeds []*models.Feed

	content, err := os.ReadFile(ConfigPath(chocoDir))
	switch {
	case err == nil:
		cfg, err := parsers.ParseChocolateyConfig(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigPath(chocoDir), err)
		}
		feeds, err = feedsFromConfig(cfg, decrypt)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist) && settings != nil && len(settings.Feeds) > 0:
	default:
		return nil, fmt.Errorf("failed to read chocolatey config: %w", err)
	}

	if settings != nil {
		for _, f := range settings.Feeds {
			feed := &models.Feed{
				Name:     f.Name,
				URL:      f.URL,
				Disabled: f.Disabled,
				Priority: f.Priority,
			}
			if f.User != "" {
				feed.Credential = &models.Credential{User: f.User, Pass: f.Password}
			}
			feeds = append(feeds, feed)
		}
	}

	return feeds, nil
}

func feedsFromConfig(cfg *parsers.ChocolateyConfig, decrypt DecryptFunc) ([]*models.Feed, error) {
	proxy, err := proxyFromSettings(cfg.Settings, decrypt)
	if err != nil {
		return nil, err
	}

	feeds := make([]*models.Feed, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		feed := &models.Feed{
			Name:        s.ID,
			URL:         s.URL,
			Disabled:    s.Disabled,
			Certificate: s.Certificate,
			BypassProxy: s.BypassProxy,
			SelfService: s.SelfService,
			AdminOnly:   s.AdminOnly,
			Priority:    s.Priority,
		}
		if !s.BypassProxy {
			feed.Proxy = proxy
		}

		// disabled feeds are never queried, so their secrets stay encrypted
		if !s.Disabled && s.User != "" && s.Password != "" {
			pass, err := decrypt(s.Password)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt password of feed %s: %w", s.ID, err)
			}
			feed.Credential = &models.Credential{User: s.User, Pass: pass}
		}
		feeds = append(feeds, feed)
	}
	return feeds, nil
}

func proxyFromSettings(settings map[string]string, decrypt DecryptFunc) (*models.ProxySettings, error) {
	proxyURL := settings["proxy"]
	if proxyURL == "" {
		return nil, nil
	}

	proxy := &models.ProxySettings{URL: proxyURL}
	if user, ok := settings["proxyUser"]; ok && user != "" {
		pass := ""
		if enc := settings["proxyPassword"]; enc != "" {
			var err error
			if pass, err = decrypt(enc); err != nil {
				return nil, fmt.Errorf("failed to decrypt proxy password: %w", err)
			}
		}
		proxy.Credential = &models.Credential{User: user, Pass: pass}
	}
	return proxy, nil
}
