package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/samirrijal/kadal/internal/adapters/earthengine"
	"github.com/samirrijal/kadal/internal/adapters/geocoding"
	"github.com/samirrijal/kadal/internal/adapters/llm"
	"github.com/samirrijal/kadal/internal/adapters/mcpserver"
	natsadapter "github.com/samirrijal/kadal/internal/adapters/nats"
	"github.com/samirrijal/kadal/internal/adapters/valkey"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/core/usecases"
	"github.com/samirrijal/kadal/internal/pkg/config"
	"github.com/samirrijal/kadal/internal/pkg/logging"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("kadal-mcp")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the protocol in stdio mode.
	logging.SetupWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	backend := earthengine.Initialize(ctx, earthengine.Options{
		ProjectID:       cfg.EarthEngine.ProjectID,
		CredentialsFile: cfg.EarthEngine.CredentialsFile,
		BaseURL:         cfg.EarthEngine.BaseURL,
		Timeout:         cfg.EarthEngine.Timeout,
	})

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, geocode cache disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, query events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	var provider ports.GeocodingProvider
	if g := geocoding.NewGoogle(geocoding.Options{
		APIKey:        cfg.Geocoding.APIKey,
		BaseURL:       cfg.Geocoding.BaseURL,
		RatePerSecond: cfg.Geocoding.RatePerSecond,
		Burst:         cfg.Geocoding.Burst,
		Timeout:       cfg.Geocoding.Timeout,
	}); g != nil {
		provider = g
	}

	geocoder := usecases.NewGeocodeService(provider, cache)
	imagery := usecases.NewImageryService(backend)
	heatmap := usecases.NewHeatmapService(backend, cfg.Imagery.Tiers)
	analysis := usecases.NewAnalysisService(backend)
	dispatcher := usecases.NewDispatcher(geocoder, imagery, analysis, heatmap)

	queries := usecases.NewQueryService(usecases.NewQueryPlanner(llm.FromConfig(cfg.LLM)), dispatcher, events, nil)

	s := mcpserver.New(version, dispatcher, queries)
	slog.Info("mcp server configured",
		"transport", cfg.MCP.Transport,
		"tools", len(usecases.ToolSpecs)+1,
		"earth_engine", backend.Ready(),
	)

	if cfg.MCP.Transport == "stdio" {
		if err := server.ServeStdio(s); err != nil {
			log.Fatalf("stdio server: %v", err)
		}
		return
	}

	httpServer := server.NewStreamableHTTPServer(s)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("forced shutdown", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.MCP.Port)
	slog.Info("MCP server starting", "addr", addr, "endpoint", "/mcp")
	if err := httpServer.Start(addr); err != nil {
		slog.Info("mcp server stopped", "error", err)
	}
}
