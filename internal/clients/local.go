package clients

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/parsers"
	"github.com/rocolatey/rocolatey/internal/version"
)

// LocalFeedClient reads packages from a directory (or share) of .nupkg files
type LocalFeedClient struct {
	feed   *models.Feed
	parser *parsers.NupkgParser
	logger *log.Logger
}

// NewLocalFeedClient creates a client for a filesystem feed
func NewLocalFeedClient(feed *models.Feed, logger *log.Logger) *LocalFeedClient {
	if logger == nil {
		logger = log.Default()
	}
	return &LocalFeedClient{
		feed:   feed,
		parser: &parsers.NupkgParser{},
		logger: logger,
	}
}

// FetchPackages returns every matching package version found in the feed
// directory; the caller keeps the newest.
func (c *LocalFeedClient) FetchPackages(ctx context.Context, ids []string, prerelease bool) ([]models.Package, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[strings.ToLower(id)] = true
	}

	var pkgs []models.Package
	err := filepath.WalkDir(c.feed.URL, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !c.parser.CanParse(d.Name()) {
			return nil
		}

		if !mayHoldPackage(strings.ToLower(d.Name()), wanted) {
			return nil
		}

		pkg, err := c.parser.ParseFile(path)
		if err != nil {
			c.logger.Debug("skipping unreadable package", "path", path, "err", err)
			return nil
		}

		if !prerelease && version.IsPrerelease(pkg.Version) {
			return nil
		}
		if wanted[pkg.Key()] {
			pkgs = append(pkgs, models.Package{ID: pkg.ID, Version: pkg.Version})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read local feed %s: %w", c.feed.URL, err)
	}

	return pkgs, nil
}

// mayHoldPackage reports whether a lowercased "<id>.<version>.nupkg" file
// name starts with one of the wanted ids followed by a dot
func mayHoldPackage(name string, wanted map[string]bool) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' && wanted[name[:i]] {
			return true
		}
	}
	return false
}
