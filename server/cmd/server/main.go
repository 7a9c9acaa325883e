package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/aegismon/aegis/server/internal/alerts"
	"github.com/aegismon/aegis/server/internal/api"
	"github.com/aegismon/aegis/server/internal/config"
	"github.com/aegismon/aegis/server/internal/generator"
	"github.com/aegismon/aegis/server/internal/metrics"
	"github.com/aegismon/aegis/server/internal/pipeline"
	"github.com/aegismon/aegis/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	watch := flag.Bool("watch", true, "reload the config file when it changes")
	uiDir := flag.String("ui-dir", "", "serve the dashboard UI static files from this directory; leave empty to disable")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("aegis-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"refresh_interval", cfg.Server.RefreshInterval,
		"cache_ttl", cfg.Server.CacheTTL,
		"farm_size", cfg.Farm.Size,
		"alert_threshold", cfg.Farm.AlertThreshold,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	noise := newNoise(cfg)
	pipe, err := pipeline.New(pipelineOptions(cfg, noise))
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		os.Exit(1)
	}

	// Notifier evaluates alert rules on every hub refresh.
	notifier := alerts.NewNotifier(cfg.Alerts)

	if *watch {
		go func() {
			err := config.Watch(ctx, *configPath, cfg, func(next *config.Config, changed []string) {
				if err := pipe.Reconfigure(pipelineOptions(next, noise)); err != nil {
					slog.Error("config reload rejected", "err", err)
					return
				}
				level.Set(next.Log.SlogLevel())
				if slices.Contains(changed, "alerts") {
					notifier.Reload(next.Alerts)
				}
				if slices.Contains(changed, "server") {
					slog.Warn("server settings changed; restart to apply",
						"http_port", next.Server.HTTPPort,
						"refresh_interval", next.Server.RefreshInterval)
				}
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// WebSocket hub refreshes and pushes the dashboard every interval.
	hub := ws.New(pipe, cfg.Server.RefreshInterval, func(snap *pipeline.Snapshot) {
		notifier.Observe(snap.Facts(), snap.RefreshedAt)
	})
	go hub.Run(ctx)

	// Combined HTTP server: REST API, WebSocket hub and metrics on HTTPPort.
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(pipe, notifier))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", metrics.Handler(pipe))

	// Optional: serve a pre-built dashboard UI from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("aegis-server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

// pipelineOptions maps the config tree onto pipeline options.
func pipelineOptions(cfg *config.Config, noise generator.Noise) pipeline.Options {
	return pipeline.Options{
		Generator: cfg.Generator.Params,
		Noise:     noise,
		Baselines: cfg.Baselines,
		Limits:    cfg.Indicators,
		Settings: pipeline.Settings{
			FarmSize:       cfg.Farm.Size,
			AlertThreshold: cfg.Farm.AlertThreshold,
		},
		Bounds: pipeline.Bounds{
			FarmSizeMin:  cfg.Farm.SizeMin,
			FarmSizeMax:  cfg.Farm.SizeMax,
			ThresholdMin: cfg.Farm.ThresholdMin,
			ThresholdMax: cfg.Farm.ThresholdMax,
		},
		CacheTTL: cfg.Server.CacheTTL,
	}
}

// newNoise seeds the generator from the config, or the wall clock when no
// seed is set. The source lives for the whole process.
func newNoise(cfg *config.Config) generator.Noise {
	seed := time.Now().UnixNano()
	if cfg.Generator.Seed != nil {
		seed = *cfg.Generator.Seed
	}
	slog.Info("generator seeded", "seed", seed)
	return generator.NewSeeded(seed)
}
