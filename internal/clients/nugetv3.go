package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/models"
)

// DefaultV3BatchSize is the initial number of ids per search query
const DefaultV3BatchSize = 100

// NuGetV3Client queries JSON (NuGet V3) feeds through their search service
type NuGetV3Client struct {
	feed     *models.Feed
	executor *BulkQueryExecutor
	logger   *log.Logger
}

// NewNuGetV3Client creates a client for a V3 feed whose service index is resolved
func NewNuGetV3Client(feed *models.Feed, client *http.Client, logger *log.Logger) *NuGetV3Client {
	if logger == nil {
		logger = log.Default()
	}
	return &NuGetV3Client{
		feed:     feed,
		executor: NewBulkQueryExecutor(client, logger),
		logger:   logger,
	}
}

type searchResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Version string `json:"version"`
	} `json:"data"`
}

// FetchPackages returns the latest version the feed knows for each id
func (c *NuGetV3Client) FetchPackages(ctx context.Context, ids []string, prerelease bool) ([]models.Package, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	svc, err := SearchQueryService(c.feed.ServiceIndex)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", c.feed.Name, err)
	}
	c.logger.Debug("querying search service", "feed", c.feed.Name, "url", svc, "packages", len(ids))

	return c.executor.Execute(ctx, BulkQuery{
		Base:         fmt.Sprintf("%s/?prerelease=%t&q=", strings.TrimRight(svc, "/"), prerelease),
		Format:       func(id string) string { return "packageid:" + id },
		Delimiter:    " ",
		MaxBatchSize: DefaultV3BatchSize,
		Accept:       "application/json",
		Consume:      ParseSearchResponse,
	}, ids)
}

// ParseSearchResponse extracts packages from a search service response.
// A response without a data array yields no packages.
func ParseSearchResponse(body []byte) ([]models.Package, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	pkgs := make([]models.Package, 0, len(resp.Data))
	for _, d := range resp.Data {
		pkgs = append(pkgs, models.Package{ID: d.ID, Version: d.Version})
	}
	return pkgs, nil
}
