package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jrh3k5/tokenpage/internal/config"
	tpslog "github.com/jrh3k5/tokenpage/internal/logging/slog"
)

const (
	defaultEnvFile  = ".env"
	upstreamTimeout = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(getArg("--env-file=", defaultEnvFile))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(tpslog.NewHandler(os.Stderr, &slog.HandlerOptions{
		Level: tpslog.ParseLevel(cfg.LogLevel),
	})))

	if err := cfg.Validate(); err != nil {
		slog.ErrorContext(ctx, "Invalid configuration", "error", err)
		os.Exit(1)
	}

	registry, err := cfg.Registry()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build chain registry", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: upstreamTimeout}

	switch command := getCommand(); command {
	case "serve":
		err = runServe(ctx, cfg, registry, httpClient)
	case "view":
		err = runView(ctx, cfg, registry, httpClient)
	default:
		err = fmt.Errorf("unknown command '%s'; expected 'serve' or 'view'", command)
	}

	if err != nil && !errors.Is(err, errUserCanceled) {
		slog.ErrorContext(ctx, "Command failed", "error", err)
		os.Exit(1)
	}
}

// getCommand returns the first positional argument, defaulting to "serve".
func getCommand() string {
	if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "--") {
		return os.Args[1]
	}

	return "serve"
}

// getArg returns the value of the first "--name=value" argument with the given prefix,
// or defaultValue when there is none.
func getArg(prefix string, defaultValue string) string {
	for _, arg := range os.Args[1:] {
		value, hasPrefix := strings.CutPrefix(arg, prefix)
		if hasPrefix {
			return value
		}
	}

	return defaultValue
}
