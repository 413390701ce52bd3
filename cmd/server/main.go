package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach/internal/api"
	"github.com/ignite/outreach/internal/auth"
	"github.com/ignite/outreach/internal/compose"
	"github.com/ignite/outreach/internal/config"
	"github.com/ignite/outreach/internal/delivery"
	"github.com/ignite/outreach/internal/generate"
	"github.com/ignite/outreach/internal/repository/postgres"
	"github.com/ignite/outreach/internal/service/batch"
	"github.com/ignite/outreach/internal/service/outreach"
	"github.com/ignite/outreach/internal/tracking"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("ping database: %v", err)
	}
	cancel()
	log.Println("[server] connected to database")

	batchRepo := postgres.NewBatchRepo(db)
	trackingRepo := postgres.NewTrackingRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)

	// Redis is optional; without it sends are paced but not rate-capped.
	var throttle *delivery.Throttle
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("[server] redis unavailable, sending without rate caps: %v", err)
		} else {
			throttle = delivery.NewThrottle(rdb, cfg.Sending.PerMinuteCap, cfg.Sending.DailyCap)
			log.Printf("[server] send throttle enabled: %d/min, %d/day", cfg.Sending.PerMinuteCap, cfg.Sending.DailyCap)
		}
	}

	injector, err := tracking.NewInjector(cfg.Tracking.BaseURL)
	if err != nil {
		log.Fatalf("tracking injector: %v", err)
	}
	collector := tracking.NewCollector(trackingRepo)
	trkHandler := tracking.NewHandler(collector)

	generator := generate.NewGenerator(cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout())
	engine := delivery.NewEngine(cfg.SMTP, throttle)

	batchSvc := batch.NewService(batchRepo)
	pipeline := outreach.NewService(
		batchRepo, settingsRepo, trackingRepo,
		compose.NewComposer(), generator, injector, engine,
		cfg.Sending.Delay(),
	)

	var authManager *auth.Manager
	if cfg.Auth.Email != "" && cfg.Auth.Password != "" {
		authManager = auth.NewManager(cfg.Auth, auth.NewFixedProvider(cfg.Auth.Email, cfg.Auth.Password))
		authManager.StartCleanup()
		defer authManager.Stop()
	} else {
		log.Println("[server] AUTH_EMAIL/AUTH_PASSWORD not set; API is unprotected")
	}

	handlers := api.NewHandlers(batchSvc, pipeline, settingsRepo, trackingRepo)
	server := api.NewServer(cfg.Server, handlers, authManager, trkHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	go func() {
		log.Printf("[server] listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[server] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
