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

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/kadal/internal/adapters/earthengine"
	"github.com/samirrijal/kadal/internal/adapters/geocoding"
	"github.com/samirrijal/kadal/internal/adapters/http"
	"github.com/samirrijal/kadal/internal/adapters/llm"
	natsadapter "github.com/samirrijal/kadal/internal/adapters/nats"
	"github.com/samirrijal/kadal/internal/adapters/postgres"
	"github.com/samirrijal/kadal/internal/adapters/valkey"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/core/usecases"
	"github.com/samirrijal/kadal/internal/pkg/config"
	"github.com/samirrijal/kadal/internal/pkg/logging"
	"github.com/samirrijal/kadal/internal/pkg/telemetry"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("kadal-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		Version: version,
		Env: http.Environment{
			Debug:       cfg.Server.Debug,
			BackendPort: cfg.Server.Port,
			MCPPort:     cfg.MCP.Port,
			Name:        cfg.Server.Environment,
		},
	}

	// Database (optional query log)
	var queryLog ports.QueryLogRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Warn("database unavailable, query log disabled", "error", err)
		} else {
			defer db.Close()
			go db.ReportPoolStats(ctx, 15*time.Second)
			queryLog = postgres.NewQueryLogRepo(db)
			deps.DB = db
			deps.Reports = postgres.NewMonitorReportRepo(db)
		}
	}

	// Cache
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, geocode cache disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, query events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer nc.Close()
		deps.NATS = nc
	}

	// Earth Engine. A missing or broken credential leaves the backend
	// permanently not ready; analysis endpoints then answer 503.
	backend := earthengine.Initialize(ctx, earthengine.Options{
		ProjectID:       cfg.EarthEngine.ProjectID,
		CredentialsFile: cfg.EarthEngine.CredentialsFile,
		BaseURL:         cfg.EarthEngine.BaseURL,
		Timeout:         cfg.EarthEngine.Timeout,
	})
	deps.Backend = backend

	// Geocoding provider
	var provider ports.GeocodingProvider
	if g := geocoding.NewGoogle(geocoding.Options{
		APIKey:        cfg.Geocoding.APIKey,
		BaseURL:       cfg.Geocoding.BaseURL,
		RatePerSecond: cfg.Geocoding.RatePerSecond,
		Burst:         cfg.Geocoding.Burst,
		Timeout:       cfg.Geocoding.Timeout,
	}); g != nil {
		provider = g
	} else {
		slog.Info("no geocoding API key, using built-in location table")
	}

	// Use cases
	geocoder := usecases.NewGeocodeService(provider, cache)
	imagery := usecases.NewImageryService(backend)
	heatmap := usecases.NewHeatmapService(backend, cfg.Imagery.Tiers)
	analysis := usecases.NewAnalysisService(backend)
	dispatcher := usecases.NewDispatcher(geocoder, imagery, analysis, heatmap)
	planner := usecases.NewQueryPlanner(llm.FromConfig(cfg.LLM))

	deps.Geocoder = geocoder
	deps.Imagery = imagery
	deps.Heatmap = heatmap
	deps.Queries = usecases.NewQueryService(planner, dispatcher, events, queryLog)

	slog.Info("services ready",
		"earth_engine", backend.Ready(),
		"planner", planner.Name(),
		"query_log", queryLog != nil,
	)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Kadal API",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
