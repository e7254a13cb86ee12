package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/cache"
	"github.com/rocolatey/rocolatey/internal/models"
)

var (
	remoteURLPattern    = regexp.MustCompile(`(?i)^https?://.+`)
	serviceIndexPattern = regexp.MustCompile(`(?i)\.json(\?.*)?$`)
)

// FeedTypeResolver decides which protocol a feed speaks
type FeedTypeResolver struct {
	cache  *cache.Cache
	logger *log.Logger
}

// NewFeedTypeResolver creates a resolver; c may be nil to disable caching
func NewFeedTypeResolver(c *cache.Cache, logger *log.Logger) *FeedTypeResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &FeedTypeResolver{cache: c, logger: logger}
}

// Resolve determines the feed type once and memoizes it on the feed.
// Only a transport failure while probing a service index is an error.
func (r *FeedTypeResolver) Resolve(ctx context.Context, feed *models.Feed, client *http.Client) (models.FeedType, error) {
	return feed.ResolveType(func() (models.FeedType, *models.ServiceIndex, error) {
		return r.detect(ctx, feed, client)
	})
}

func (r *FeedTypeResolver) detect(ctx context.Context, feed *models.Feed, client *http.Client) (models.FeedType, *models.ServiceIndex, error) {
	if !remoteURLPattern.MatchString(feed.URL) {
		return models.FeedTypeLocalFileSystem, nil, nil
	}

	if !serviceIndexPattern.MatchString(feed.URL) {
		return models.FeedTypeNuGetV2, nil, nil
	}

	index, err := r.fetchServiceIndex(ctx, feed.URL, client)
	if err != nil {
		return models.FeedTypeUnknown, nil, err
	}

	if index == nil {
		r.logger.Debug("feed did not return a service index, assuming OData", "feed", feed.Name)
		return models.FeedTypeNuGetV2, nil, nil
	}
	return models.FeedTypeNuGetV3, index, nil
}

// fetchServiceIndex returns nil without error when the response is not a
// service index document
func (r *FeedTypeResolver) fetchServiceIndex(ctx context.Context, url string, client *http.Client) (*models.ServiceIndex, error) {
	var index models.ServiceIndex

	// Check cache first
	if r.cache != nil && r.cache.GetJSON(url, &index) && index.Resources != nil {
		r.logger.Debug("using cached service index", "url", url)
		return &index, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to probe %s: %v", ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrNetwork, url, err)
	}

	index = models.ServiceIndex{}
	if err := json.Unmarshal(data, &index); err != nil || index.Resources == nil {
		return nil, nil
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(url, index); err != nil {
			r.logger.Debug("failed to cache service index", "url", url, "err", err)
		}
	}

	return &index, nil
}

// SearchQueryService returns the first search endpoint of a service index
func SearchQueryService(index *models.ServiceIndex) (string, error) {
	if index != nil {
		for _, res := range index.Resources {
			if res.Type == "SearchQueryService" || strings.HasPrefix(res.Type, "SearchQueryService/") {
				return res.ID, nil
			}
		}
	}
	return "", ErrSearchServiceMissing
}
