// Command ss58d serves the SS58 address codec over HTTP and WebSocket.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/pinch-protocol/ss58/internal/api"
	"github.com/pinch-protocol/ss58/internal/convert"
	"github.com/pinch-protocol/ss58/internal/hub"
	"github.com/pinch-protocol/ss58/internal/registry"
	"github.com/pinch-protocol/ss58/internal/store"
)

type config struct {
	port          string
	dbPath        string
	defaultFormat int
	strict        bool
	wsRate        float64
	networkTTL    time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig() (config, error) {
	cfg := config{
		port:   envOr("SS58_PORT", "8080"),
		dbPath: envOr("SS58_DB_PATH", "ss58.db"),
	}
	var err error
	if cfg.defaultFormat, err = registry.ResolveFormat(registry.Builtin(), envOr("SS58_DEFAULT_FORMAT", "42")); err != nil {
		return cfg, err
	}
	if cfg.strict, err = strconv.ParseBool(envOr("SS58_STRICT", "false")); err != nil {
		return cfg, err
	}
	if cfg.wsRate, err = strconv.ParseFloat(envOr("SS58_WS_RATE", "50"), 64); err != nil {
		return cfg, err
	}
	// Zero keeps custom networks forever.
	if cfg.networkTTL, err = time.ParseDuration(envOr("SS58_NETWORK_TTL", "0s")); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.OpenDB(cfg.dbPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	networks, err := store.NewNetworkStore(db)
	if err != nil {
		slog.Error("failed to create network store", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := convert.New(
		convert.WithRegistry(registry.Chain{networks, registry.Builtin()}),
		convert.WithStrict(cfg.strict),
		convert.WithDefaultFormat(cfg.defaultFormat),
		convert.WithMetrics(convert.NewMetrics(reg)),
	)

	h := hub.NewHub(svc, hub.Limits{Rate: rate.Limit(cfg.wsRate)})
	go h.Run(ctx)

	if cfg.networkTTL > 0 {
		go sweepNetworks(ctx, networks, cfg.networkTTL)
	}

	srv := &http.Server{
		Addr: ":" + cfg.port,
		Handler: api.NewRouter(ctx, api.Config{
			Service:  svc,
			Builtin:  registry.Builtin(),
			Networks: networks,
			Hub:      h,
			Gatherer: reg,
		}),
	}

	go func() {
		slog.Info("ss58d starting",
			"port", cfg.port,
			"db", cfg.dbPath,
			"defaultFormat", cfg.defaultFormat,
			"strict", cfg.strict,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down ss58d")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("ss58d stopped")
}

// sweepNetworks expires custom networks older than ttl.
func sweepNetworks(ctx context.Context, networks *store.NetworkStore, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := networks.SweepOlderThan(ttl)
			if err != nil {
				slog.Error("network sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired custom networks", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
