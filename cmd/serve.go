package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/jrh3k5/tokenpage/internal/chain"
	"github.com/jrh3k5/tokenpage/internal/config"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/server"
	"github.com/jrh3k5/tokenpage/internal/snapshot"
)

func runServe(ctx context.Context, cfg *config.Config, registry *chain.Registry, httpClient *http.Client) error {
	producer := snapshot.NewProducer(registry, func(c chain.Chain) reservoir.Gateway {
		return reservoir.NewClient(httpClient, c.BaseURL, c.APIKey)
	}, cfg.QueryOptions(), cfg.RevalidateSeconds)

	store, err := snapshot.NewStore(producer, cfg.SnapshotCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}
	defer store.Wait()

	for _, c := range registry.Chains() {
		slog.InfoContext(ctx, "Serving chain", "chain", c.RoutePrefix, "id", c.ID, "baseURL", c.BaseURL)
	}

	addr := net.JoinHostPort(cfg.ListenAddr, strconv.Itoa(cfg.ListenPort))

	return server.NewServer(registry, store, httpClient).Run(ctx, addr)
}
