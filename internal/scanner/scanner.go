package scanner

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/cache"
	"github.com/rocolatey/rocolatey/internal/clients"
	"github.com/rocolatey/rocolatey/internal/models"
)

// Scanner orchestrates the outdated check across all configured feeds
type Scanner struct {
	config   *models.Config
	feeds    []*models.Feed
	resolver *clients.FeedTypeResolver
	httpOpts clients.HTTPOptions
	logger   *log.Logger
}

// FeedFailure records a feed that contributed no results
type FeedFailure struct {
	Feed string
	Err  error
}

// Result is the outcome of a scan
type Result struct {
	Records  []models.OutdatedRecord
	Failures []FeedFailure
}

// New creates a new Scanner for the given configuration and feeds.
// Disabled feeds are dropped here, before any network activity.
func New(config *models.Config, feeds []*models.Feed, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}

	var c *cache.Cache
	if !config.NoCache {
		var err error
		c, err = cache.New("rocolatey", config.CacheTTL)
		if err != nil {
			// Non-fatal: continue without cache
			logger.Debug("service index cache unavailable", "err", err)
			c = nil
		}
	}

	return &Scanner{
		config:   config,
		feeds:    models.Enabled(feeds),
		resolver: clients.NewFeedTypeResolver(c, logger),
		httpOpts: clients.HTTPOptions{
			RequireSSLValidation: config.RequireSSLValidation,
			Timeout:              config.Timeout,
		},
		logger: logger,
	}
}

// Scan checks the local packages matching the configured filter against
// every feed and builds the outdated report records.
func (s *Scanner) Scan(ctx context.Context, local []models.Package) (*Result, error) {
	// Step 1: Select local packages (fails before any network activity)
	selected, err := SelectPackages(local, s.config.Filter)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, p := range selected {
		if s.config.IgnorePinned && p.Pinned {
			continue
		}
		ids = append(ids, p.ID)
	}

	// Step 2: Query all feeds
	remote, failures := s.fetchAll(ctx, ids)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: Compare
	return &Result{
		Records:  Resolve(selected, remote, s.config.IgnorePinned, s.config.IgnoreUnfound),
		Failures: failures,
	}, nil
}

// Outdated returns the number of outdated records
func (r *Result) Outdated() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outdated {
			n++
		}
	}
	return n
}

// Warnings returns the number of packages not found on any feed
func (r *Result) Warnings() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.ExistsOnRemote {
			n++
		}
	}
	return n
}

// CommunicationError returns the first failure caused by a feed exhausting
// its query backoff, or nil
func (r *Result) CommunicationError() error {
	for _, f := range r.Failures {
		if errors.Is(f.Err, clients.ErrCommunicationFailed) {
			return f.Err
		}
	}
	return nil
}
