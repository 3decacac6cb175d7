package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/accounthub/internal/accounts"
	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/cache"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/db"
	"github.com/geocoder89/accounthub/internal/domain/account"
	httpx "github.com/geocoder89/accounthub/internal/http"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/queue/redisclient"
	"github.com/geocoder89/accounthub/internal/repo/memory"
	"github.com/geocoder89/accounthub/internal/repo/postgres"
	"github.com/geocoder89/accounthub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "accounthub-api"

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.IsProd() && cfg.JWTSecret == config.DevJWTSecret {
		log.Error("JWT_SECRET must be set outside dev")
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.Env, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	var (
		repo   accounts.Repository
		jobs   accounts.JobsCreator
		checks []handlers.ReadinessCheck
	)

	switch cfg.Store {
	case "memory":
		repo = memory.NewAccountsRepo()
		log.Warn("using in-memory account store; data is lost on restart")
	default:
		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		mctx, cancel := config.WithTimeout(ctx, 30*time.Second)
		err = db.Migrate(mctx, pool)
		cancel()
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		repo = postgres.NewAccountsRepo(pool, prom)
		jobs = postgres.NewJobsRepo(pool, prom)
		checks = append(checks, handlers.ReadinessCheck{Name: "db", Check: pool.Ping})
	}

	switch cfg.Cache {
	case "memory":
		repo = accounts.NewCachedRepository(repo, cache.NewMemory[account.Account](cfg.CacheTTL))
	case "redis":
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}
		defer rc.Close()

		repo = accounts.NewCachedRepository(repo, cache.NewRedis[account.Account](rc.Raw(), "accounthub:", cfg.CacheTTL, log))
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Check: rc.Ping})
	}

	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	svc := accounts.NewService(repo, hasher, jobs, log)

	gate, err := auth.NewGate(repo, hasher)
	if err != nil {
		log.Error("auth gate init failed", "err", err)
		os.Exit(1)
	}

	sctx, cancel := config.WithTimeout(ctx, 10*time.Second)
	err = db.EnsureAdminAccount(sctx, svc, cfg)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	router := httpx.NewRouter(httpx.RouterDeps{
		Log:                log,
		Env:                cfg.Env,
		ServiceName:        serviceName,
		Accounts:           svc,
		Gate:               gate,
		Tokens:             auth.NewManager(cfg.JWTSecret, cfg.AccessTTL),
		Prom:               prom,
		Gatherer:           reg,
		Checks:             checks,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		CORSOrigins:        cfg.CORSOrigins,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store, "cache", cfg.Cache)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
