package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/models"
)

var (
	// ErrCommunicationFailed means a feed could not be queried even after
	// shrinking both the batch size and the URL length.
	ErrCommunicationFailed = errors.New("feed communication failed")

	// ErrNetwork wraps transport failures and unexpected server responses.
	ErrNetwork = errors.New("network error")

	// ErrSearchServiceMissing means a V3 service index has no SearchQueryService.
	ErrSearchServiceMissing = errors.New("service index has no SearchQueryService resource")
)

const (
	// DefaultMaxURLLength is the starting URL length limit for bulk queries
	DefaultMaxURLLength = 2047

	minURLLength = 100
)

// BulkQuery describes how one feed protocol turns package ids into requests
type BulkQuery struct {
	Base         string // URL prefix, up to and including the query start
	Format       func(id string) string
	Delimiter    string
	Terminator   string
	MaxBatchSize int
	Accept       string

	// Consume extracts packages from one successful response body
	Consume func(body []byte) ([]models.Package, error)
}

// BulkQueryExecutor asks a feed about many package ids in few requests,
// shrinking its batches when the server pushes back.
type BulkQueryExecutor struct {
	client *http.Client
	logger *log.Logger

	MaxURLLength  int
	RetryAttempts int
	RetryDelay    time.Duration
}

// NewBulkQueryExecutor creates an executor using the given feed client
func NewBulkQueryExecutor(client *http.Client, logger *log.Logger) *BulkQueryExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &BulkQueryExecutor{
		client:        client,
		logger:        logger,
		MaxURLLength:  DefaultMaxURLLength,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Execute queries the feed for every id and returns all packages the
// consumer extracted, in response order.
func (e *BulkQueryExecutor) Execute(ctx context.Context, q BulkQuery, ids []string) ([]models.Package, error) {
	maxBatch := q.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = 1
	}
	maxURL := e.MaxURLLength
	if maxURL <= 0 {
		maxURL = DefaultMaxURLLength
	}

	var pkgs []models.Package
	cursor := 0
	for cursor < len(ids) {
		reqURL, sent := buildBatch(q, ids[cursor:], maxBatch, maxURL)

		status, body, err := e.get(ctx, reqURL, q.Accept)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusNotAcceptable && maxBatch > 1:
			e.logger.Debug("feed rejected bulk query, falling back to single ids", "status", status)
			maxBatch = 1
		case status >= 400 && status < 500:
			maxURL /= 2
			e.logger.Debug("feed rejected query, shrinking url", "status", status, "max_url_length", maxURL)
		case len(bytes.TrimSpace(body)) == 0:
			maxBatch--
			e.logger.Debug("feed returned empty body, shrinking batch", "max_batch_size", maxBatch)
		case status >= 200 && status < 300:
			found, err := q.Consume(body)
			if err != nil {
				return nil, fmt.Errorf("failed to parse feed response: %w", err)
			}
			pkgs = append(pkgs, found...)
			cursor += sent
			continue
		default:
			return nil, fmt.Errorf("%w: unexpected status %d", ErrNetwork, status)
		}

		if maxBatch <= 0 || maxURL < minURLLength {
			return nil, fmt.Errorf("%w: batch size %d, url length %d", ErrCommunicationFailed, maxBatch, maxURL)
		}
	}

	return pkgs, nil
}

// buildBatch returns the encoded request URL and how many ids it covers.
// At least one id is always included.
func buildBatch(q BulkQuery, ids []string, maxBatch, maxURL int) (string, int) {
	var sb strings.Builder
	sb.WriteString(q.Base)
	sb.WriteString(q.Format(ids[0]))
	sent := 1

	for sent < len(ids) && sent < maxBatch {
		next := sb.String() + q.Delimiter + q.Format(ids[sent])
		if len(EncodeURL(next+q.Terminator)) > maxURL {
			break
		}
		sb.Reset()
		sb.WriteString(next)
		sent++
	}

	sb.WriteString(q.Terminator)
	return EncodeURL(sb.String()), sent
}

func (e *BulkQueryExecutor) get(ctx context.Context, reqURL, accept string) (int, []byte, error) {
	var (
		status int
		body   []byte
	)

	err := Retry(ctx, e.RetryAttempts, e.RetryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		e.logger.Debug("querying feed", "url", reqURL)
		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)}
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
		status, body = resp.StatusCode, data
		return nil
	})
	return status, body, err
}

// EncodeURL percent-encodes the query component of raw the way a browser
// URL parser does: controls, space, non-ASCII and "#<>' are escaped while
// existing escapes and OData punctuation are left alone.
func EncodeURL(raw string) string {
	head, query, ok := strings.Cut(raw, "?")
	if !ok {
		return escape(raw, false)
	}
	return escape(head, false) + "?" + escape(query, true)
}

const upperhex = "0123456789ABCDEF"

func escape(s string, query bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c, query) {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&15])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func shouldEscape(c byte, query bool) bool {
	if c <= 0x20 || c >= 0x7f {
		return true
	}
	switch c {
	case '"', '<', '>':
		return true
	case '#', '\'':
		return query
	}
	return false
}
