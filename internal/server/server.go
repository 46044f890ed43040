package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrh3k5/tokenpage/internal/chain"
	tphttp "github.com/jrh3k5/tokenpage/internal/http"
	tpio "github.com/jrh3k5/tokenpage/internal/io"
	"github.com/jrh3k5/tokenpage/internal/metrics"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/snapshot"
	"github.com/jrh3k5/tokenpage/internal/token"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// SnapshotStore serves token snapshots to the hosting layer.
type SnapshotStore interface {
	Get(ctx context.Context, id token.Identifier) (snapshot.Result, error)
	MarkStale(id token.Identifier)
}

// Server is the hosting layer: it serves token snapshots and proxies metadata refreshes.
type Server struct {
	registry *chain.Registry
	store    SnapshotStore
	doer     tphttp.Doer
	router   chi.Router
}

func NewServer(registry *chain.Registry, store SnapshotStore, doer tphttp.Doer) *Server {
	s := &Server{
		registry: registry,
		store:    store,
		doer:     doer,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(countRequests)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/token/{chain}/{contract}/{id}", s.handleToken)
	r.Post("/api/reservoir/{chain}/tokens/refresh/v1", s.handleRefresh)

	s.router = r

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Listening", "addr", addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to serve on '%s': %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	id, err := token.ParseIdentifier(chi.URLParam(r, "chain"), chi.URLParam(r, "contract"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	result, err := s.store.Get(r.Context(), id)
	if err != nil {
		slog.WarnContext(r.Context(), "Gave up waiting for snapshot", "token", id.String(), "error", err)
		writeError(w, http.StatusServiceUnavailable, "snapshot is not available yet")

		return
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("s-maxage=%d, stale-while-revalidate", result.Revalidate))
	writeJSON(w, http.StatusOK, result.Props)
}

type refreshRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, ok := s.registry.Lookup(chi.URLParam(r, "chain"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown chain")

		return
	}

	var body refreshRequest
	if err := tpio.DecodeJSON(r.Body, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")

		return
	}

	contract, tokenID, found := strings.Cut(body.Token, ":")
	if !found {
		writeError(w, http.StatusBadRequest, "token must be '<contract>:<id>'")

		return
	}

	id, err := token.ParseIdentifier(c.RoutePrefix, contract, tokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	upstream := reservoir.NewClient(s.doer, c.BaseURL, c.APIKey)
	if err := upstream.RefreshToken(r.Context(), id.Ref()); err != nil {
		status := http.StatusBadGateway
		var statusErr *reservoir.StatusError
		if errors.As(err, &statusErr) {
			status = relayedStatus(statusErr.StatusCode)
		}

		slog.WarnContext(r.Context(), "Token refresh was not accepted upstream", "token", id.String(), "status", status, "error", err)
		writeError(w, status, "refresh request failed")

		return
	}

	s.store.MarkStale(id)
	slog.InfoContext(r.Context(), "Token refresh accepted", "token", id.String())

	writeJSON(w, http.StatusOK, map[string]string{"message": "Request to refresh token was accepted"})
}

// relayedStatus maps an upstream refresh status to the one returned to the caller.
// Only client errors about the request itself are passed through; rejected upstream
// credentials and anything outside the 4xx range become a bad gateway.
func relayedStatus(upstream int) int {
	switch {
	case upstream == http.StatusUnauthorized,
		upstream == http.StatusForbidden,
		upstream == http.StatusProxyAuthRequired:
		return http.StatusBadGateway
	case upstream >= 400 && upstream < 500:
		return upstream
	default:
		return http.StatusBadGateway
	}
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
