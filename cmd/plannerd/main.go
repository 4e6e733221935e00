// Command plannerd is the planner's long-running HTTP/WebSocket service:
// it boots a demo domain, exposes it over internal/api, periodically
// snapshots it to internal/storage/problemstore, and republishes its
// change notifications onto NATS via internal/transport/natsobserver.
// Bootstrap shape (logging, env config, NATS/Redis/Postgres connections,
// signal-driven shutdown) is grounded on the teacher's
// cmd/game-server/main.go; the cron-driven snapshot job is grounded on
// the teacher pack's mud-platform-backend/internal/npc/memory/jobs.go
// JobManager (cron.New, AddFunc, Start/Stop).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"contextualplanner/internal/api"
	"contextualplanner/internal/cache/successioncache"
	"contextualplanner/internal/demo"
	"contextualplanner/internal/historical"
	"contextualplanner/internal/planner"
	"contextualplanner/internal/plannerconfig"
	"contextualplanner/internal/storage/problemstore"
	"contextualplanner/internal/transport/natsobserver"
)

func main() {
	cfg := plannerconfig.Load()
	planner.SetLimits(cfg.MaxPlanSteps, cfg.MaxActionRepeats, cfg.EnableOptimisation)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("plannerd"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	succCache := successioncache.New(redisClient, cfg.SuccessionCacheTTL)

	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pgPool.Close()
	store := problemstore.New(pgPool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure problem_snapshots schema")
	}

	built, err := demo.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build demo domain")
	}
	prob, err := built.NewProblem(5, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build demo problem")
	}

	if actionIDs := built.Domain.ActionIDsSorted(); len(actionIDs) > 0 {
		if _, err := succCache.GetOrBuild(ctx, "demo", built.Domain.Succession(), actionIDs); err != nil {
			log.Warn().Err(err).Msg("failed to warm succession cache")
		}
	}

	publisher := natsobserver.New(nc, log.Logger)
	publisher.Attach(prob.Observers())
	defer publisher.Close()

	sessions := api.NewSessionStore()
	sessions.Register("demo", prob)

	server := &api.Server{
		Sessions:         sessions,
		GlobalHistorical: historical.New(),
		Tokens:           api.NewTokenManager(cfg.JWTSigningKey),
		AllowedOrigins:   []string{"http://localhost:3000"},
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SchedulerCron, func() {
		if err := store.SaveSnapshot(ctx, "demo", prob, 0, time.Now()); err != nil {
			log.Error().Err(err).Msg("scheduled snapshot failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule snapshot job")
	}
	c.Start()
	defer c.Stop()

	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.NewRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("plannerd listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
