package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/models"
)

// Fetcher asks one feed for the latest versions of a set of package ids
type Fetcher interface {
	FetchPackages(ctx context.Context, ids []string, prerelease bool) ([]models.Package, error)
}

// NewFetcher returns the adapter matching the feed's resolved type
func NewFetcher(feed *models.Feed, client *http.Client, logger *log.Logger) (Fetcher, error) {
	switch feed.Type {
	case models.FeedTypeLocalFileSystem:
		return NewLocalFeedClient(feed, logger), nil
	case models.FeedTypeNuGetV2:
		return NewNuGetV2Client(feed, client, logger), nil
	case models.FeedTypeNuGetV3:
		return NewNuGetV3Client(feed, client, logger), nil
	default:
		return nil, fmt.Errorf("feed %s has unresolved type %s", feed.Name, feed.Type)
	}
}
