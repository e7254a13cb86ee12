package scanner

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rocolatey/rocolatey/internal/clients"
	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/version"
)

// ChunkCount returns how many id chunks each feed is split into
func ChunkCount(cpus, feeds int) int {
	n := cpus
	if feeds > 0 {
		n = min(cpus, cpus/feeds)
	}
	return max(2, n)
}

// Chunk splits ids into at most n contiguous, non-empty parts of near
// equal size
func Chunk(ids []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	size := (len(ids) + n - 1) / n

	var chunks [][]string
	for i := 0; i < len(ids); i += size {
		chunks = append(chunks, ids[i:min(i+size, len(ids))])
	}
	return chunks
}

// Merge folds pkgs into latest, keeping the newer version per lowercase id
func Merge(latest map[string]models.Package, pkgs []models.Package) {
	for _, p := range pkgs {
		key := p.Key()
		if cur, ok := latest[key]; !ok || version.IsNewer(p.Version, cur.Version) {
			latest[key] = p
		}
	}
}

// fetchAll queries every feed concurrently. A failing feed or chunk is
// logged and contributes nothing.
func (s *Scanner) fetchAll(ctx context.Context, ids []string) (map[string]models.Package, []FeedFailure) {
	latest := make(map[string]models.Package)
	if len(ids) == 0 || len(s.feeds) == 0 {
		return latest, nil
	}

	chunks := Chunk(ids, ChunkCount(runtime.NumCPU(), len(s.feeds)))
	results := make(chan []models.Package, len(s.feeds)*len(chunks))
	failures := make(chan FeedFailure, len(s.feeds)*(len(chunks)+1))

	g, gctx := errgroup.WithContext(ctx)
	for _, feed := range s.feeds {
		g.Go(func() error {
			fetcher, err := s.prepare(gctx, feed)
			if err != nil {
				s.logger.Warn("skipping feed", "feed", feed.Name, "err", err)
				failures <- FeedFailure{Feed: feed.Name, Err: err}
				return nil
			}

			// a folder feed is walked once, whatever the chunking
			feedChunks := chunks
			if feed.Type == models.FeedTypeLocalFileSystem {
				feedChunks = [][]string{ids}
			}

			for _, chunk := range feedChunks {
				g.Go(func() error {
					pkgs, err := fetcher.FetchPackages(gctx, chunk, s.config.Prerelease)
					if err != nil {
						s.logger.Warn("failed to query feed", "feed", feed.Name, "err", err)
						failures <- FeedFailure{Feed: feed.Name, Err: err}
						return nil
					}
					s.logger.Debug("feed answered", "feed", feed.Name, "requested", len(chunk), "found", len(pkgs))
					results <- pkgs
					return nil
				})
			}
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	close(failures)

	for pkgs := range results {
		Merge(latest, pkgs)
	}

	var failed []FeedFailure
	for f := range failures {
		failed = append(failed, f)
	}
	return latest, failed
}

// prepare builds the feed's client and resolves its type
func (s *Scanner) prepare(ctx context.Context, feed *models.Feed) (clients.Fetcher, error) {
	client, err := clients.NewHTTPClient(feed, s.httpOpts)
	if err != nil {
		return nil, err
	}

	typ, err := s.resolver.Resolve(ctx, feed, client)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resolved feed type", "feed", feed.Name, "type", typ)

	return clients.NewFetcher(feed, client, s.logger)
}
