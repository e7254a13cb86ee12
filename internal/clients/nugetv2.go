package clients

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/models"
)

// DefaultV2BatchSize is used when the page size probe yields nothing
const DefaultV2BatchSize = 30

// NuGetV2Client queries OData (NuGet V2) feeds
type NuGetV2Client struct {
	feed     *models.Feed
	client   *http.Client
	executor *BulkQueryExecutor
	logger   *log.Logger
}

// NewNuGetV2Client creates a client for a V2 feed
func NewNuGetV2Client(feed *models.Feed, client *http.Client, logger *log.Logger) *NuGetV2Client {
	if logger == nil {
		logger = log.Default()
	}
	return &NuGetV2Client{
		feed:     feed,
		client:   client,
		executor: NewBulkQueryExecutor(client, logger),
		logger:   logger,
	}
}

func latestFilter(prerelease bool) string {
	if prerelease {
		return "IsAbsoluteLatestVersion"
	}
	return "IsLatestVersion"
}

// FetchPackages returns the latest version the feed knows for each id
func (c *NuGetV2Client) FetchPackages(ctx context.Context, ids []string, prerelease bool) ([]models.Package, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	base := strings.TrimRight(c.feed.URL, "/")

	batchSize := 1
	if len(ids) > 1 {
		batchSize = c.probePageSize(ctx, base, prerelease)
	}
	c.logger.Debug("querying OData feed", "feed", c.feed.Name, "packages", len(ids), "batch_size", batchSize)

	return c.executor.Execute(ctx, BulkQuery{
		Base:         base + "/Packages?$filter=" + latestFilter(prerelease) + " and (",
		Format:       odataIDFilter,
		Delimiter:    " or ",
		Terminator:   ")",
		MaxBatchSize: batchSize,
		Accept:       "application/atom+xml",
		Consume:      ParseODataFeed,
	}, ids)
}

// probePageSize asks the feed for one page of all latest packages and
// counts the entries it returns
func (c *NuGetV2Client) probePageSize(ctx context.Context, base string, prerelease bool) int {
	probeURL := EncodeURL(base + "/Packages()?$filter=" + latestFilter(prerelease) + "&$skip=0")

	status, body, err := c.executor.get(ctx, probeURL, "application/atom+xml")
	if err != nil || status < 200 || status >= 300 {
		c.logger.Debug("page size probe failed", "feed", c.feed.Name, "status", status, "err", err)
		return DefaultV2BatchSize
	}

	if n := strings.Count(string(body), "</entry>"); n > 0 {
		return n
	}
	return DefaultV2BatchSize
}

func odataIDFilter(id string) string {
	return "(tolower(Id) eq '" + strings.ReplaceAll(strings.ToLower(id), "'", "''") + "')"
}

// ParseODataFeed extracts id and version from each <entry> of an Atom feed
func ParseODataFeed(body []byte) ([]models.Package, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		pkgs    []models.Package
		current *models.Package
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "entry":
				current = &models.Package{}
			case current == nil:
			case t.Name.Local == "title":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, err
				}
				current.ID = strings.TrimSpace(s)
			case t.Name.Local == "Version":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, err
				}
				current.Version = strings.TrimSpace(s)
			}
		case xml.EndElement:
			if t.Name.Local == "entry" && current != nil {
				if current.ID != "" {
					pkgs = append(pkgs, *current)
				}
				current = nil
			}
		}
	}

	return pkgs, nil
}
