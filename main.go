package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kam-backend/config"
	"kam-backend/controllers"
	"kam-backend/database"
	"kam-backend/helpers"
	"kam-backend/jobs"
	"kam-backend/metrics"
	"kam-backend/middleware"
	"kam-backend/routes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Println("using in-memory store; data is lost on restart")
		return database.NewMemoryStore(), nil
	}
	client, err := database.DBinstance(ctx, cfg.MongoURL)
	if err != nil {
		return nil, err
	}
	store := database.NewMongoStore(client, cfg.MongoDatabase)
	if err := store.EnsureIndexes(ctx); err != nil {
		store.Close(ctx)
		return nil, err
	}
	return store, nil
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	var (
		revoker    middleware.Revoker
		ctlOptions []controllers.Option
		blacklist  *helpers.TokenBlacklist
	)
	if cfg.RedisURL != "" {
		blacklist, err = helpers.NewTokenBlacklist(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect token blacklist: %v", err)
		}
		revoker = blacklist
		ctlOptions = append(ctlOptions, controllers.WithRevoker(blacklist))
		log.Println("token revocation enabled")
	}

	engine := metrics.NewEngine(store)
	hub := controllers.NewHub(cfg.CORSOrigins)
	ctl := controllers.New(store, engine, hub, controllers.AuthSettings{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenTTL,
	}, ctlOptions...)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "kam_ws_clients",
			Help: "Number of connected dashboard websocket clients",
		}, func() float64 { return float64(hub.Clients()) }),
	)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)
	router := routes.NewRouter(routes.RouterConfig{
		Controller:   ctl,
		Hub:          hub,
		JWTSecret:    cfg.JWTSecret,
		Revoker:      revoker,
		LoginLimiter: loginLimiter,
		Registry:     registry,
		CORSOrigins:  cfg.CORSOrigins,
	})

	scheduler := jobs.NewScheduler(engine, hub, log.Default())
	if err := scheduler.Setup(cfg.InteractionDueCron); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()

	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				loginLimiter.Cleanup(10 * time.Minute)
			case <-stopCleanup:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("kam backend listening on :%s (store: %s)", cfg.Port, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	close(stopCleanup)
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	if blacklist != nil {
		if err := blacklist.Close(); err != nil {
			log.Printf("close token blacklist: %v", err)
		}
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Printf("close store: %v", err)
	}
	log.Println("server stopped")
}
