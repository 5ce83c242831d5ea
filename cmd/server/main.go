package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cajapos/internal/config"
	"cajapos/internal/infra"
	"cajapos/internal/repository"
	"cajapos/internal/router"
	"cajapos/internal/service"
	"cajapos/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, infra.DBOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Redis only carries notifications; the ledger keeps working without it.
	var (
		rdb *redis.Client
		pub *worker.Publicador
	)
	if rdb, err = infra.NewRedis(cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, ledger events will not be published")
		rdb = nil
	} else {
		pub = worker.NewPublicador(rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	}

	var notif service.Notificador = service.NopNotificador{}
	if pub != nil {
		notif = pub
	}

	cajaRepo := repository.NewCajaRepository(db)
	secuenciaSvc := service.NewSecuenciaService(repository.NewSecuenciaRepository(db))
	cajaSvc := service.NewCajaService(cajaRepo, secuenciaSvc, notif, cfg.MontoAutomatico())
	conciliacionSvc := service.NewConciliacionService(cajaRepo, notif)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.StartAuditoriaCron(ctx, worker.AuditoriaCronConfig{
		Caja:         cajaSvc,
		Conciliacion: conciliacionSvc,
		Intervalo:    cfg.AuditoriaIntervalo,
	})

	r := router.New(cfg, router.Deps{
		DB:           db,
		Redis:        rdb,
		Publicador:   pub,
		Caja:         cajaSvc,
		Conciliacion: conciliacionSvc,
		Secuencias:   secuenciaSvc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Msgf("cajapos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown on SIGINT / SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// setupLogger: dev gets a pretty console writer, production plain JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
