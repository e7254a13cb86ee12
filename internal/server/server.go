// Package server exposes the local chocolatey inventory and the outdated
// report over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/rocolatey/rocolatey/internal/inventory"
	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/reporter"
	"github.com/rocolatey/rocolatey/internal/scanner"
)

// DefaultListen is the address the server binds to when none is configured
const DefaultListen = "127.0.0.1:8081"

// Server serves inventory listings and outdated reports as plain text
type Server struct {
	provider *inventory.Provider
	config   *models.Config
	feeds    []*models.Feed
	logger   *log.Logger
}

// New creates a server for the given inventory, scan configuration and feeds
func New(provider *inventory.Provider, config *models.Config, feeds []*models.Feed, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		provider: provider,
		config:   config,
		feeds:    feeds,
		logger:   logger,
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/rocolatey", func(r chi.Router) {
		r.Get("/local", s.handleLocal(false))
		r.Get("/local/r", s.handleLocal(true))
		r.Get("/bad", s.handleBad(false))
		r.Get("/bad/r", s.handleBad(true))
		r.Get("/sources", s.handleSources(false))
		r.Get("/sources/r", s.handleSources(true))
		r.Get("/outdated", s.handleOutdated(false))
		r.Get("/outdated/r", s.handleOutdated(true))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleLocal(limit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgs, err := s.provider.ListLocal()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeText(w, http.StatusOK, reporter.PackageList(pkgs, filterParam(r), limit))
	}
}

func (s *Server) handleBad(limit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgs, err := s.provider.ListBad()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeText(w, http.StatusOK, reporter.BadList(pkgs, limit))
	}
}

func (s *Server) handleSources(limit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, reporter.Sources(s.feeds, limit))
	}
}

// handleOutdated runs a scan per request. Query parameters: pkg (package id
// filter), pre (include prereleases).
func (s *Server) handleOutdated(limit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := *s.config
		cfg.Filter = filterParam(r)
		cfg.LimitOutput = limit
		cfg.ListOutput = false
		cfg.OutputFormat = "text"
		if pre, err := strconv.ParseBool(r.URL.Query().Get("pre")); err == nil {
			cfg.Prerelease = pre
		}

		local, err := s.provider.ListLocal()
		if err != nil {
			s.fail(w, r, err)
			return
		}

		result, err := scanner.New(&cfg, s.feeds, s.logger).Scan(r.Context(), local)
		if errors.Is(err, scanner.ErrPackageNotInstalled) {
			writeText(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}

		out, err := reporter.Get(&cfg).Report(result.Records)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		status := http.StatusOK
		if result.CommunicationError() != nil {
			status = http.StatusBadGateway
		}
		writeText(w, status, string(out))
	}
}

func filterParam(r *http.Request) string {
	if pkg := r.URL.Query().Get("pkg"); pkg != "" {
		return pkg
	}
	return models.FilterAll
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	writeText(w, http.StatusInternalServerError, "internal error")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// requestIDHeader carries the request id in both directions
const requestIDHeader = "X-Request-Id"

// requestID keeps a caller supplied request id or assigns a new UUID, and
// stores it where middleware.GetReqID finds it
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs each request through the charm logger
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
