package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abasto/internal/config"
	"abasto/internal/infra"
	"abasto/internal/repository"
	"abasto/internal/router"
	"abasto/internal/service"
	"abasto/internal/worker"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker pool for async tasks (PDF de órdenes, email a proveedores).
	// Handlers are wired here (composition root) with full access to infra.
	tipoCambio := infra.NewTipoCambioClient(cfg.TipoCambioAPIURL)
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	ordenRepo := repository.NewOrdenCompraRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)

	handlers := worker.Handlers{
		OrdenPDF: worker.NewOrdenPDFWorker(ordenRepo, proveedorRepo, dispatcher, rdb, cfg.PDFStoragePath, cfg.EmpresaNombre),
		Email:    worker.NewEmailWorker(mailer, rdb),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)

	// Nightly re-scoring of every active supplier
	evaluacionSvc := service.NewEvaluacionService(proveedorRepo)
	c := cron.New()
	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := evaluacionSvc.RecalcularTodos(context.Background()); err != nil {
			log.Error().Err(err).Msg("nightly evaluation run failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule nightly evaluation run")
	}
	c.Start()
	defer c.Stop()

	r := router.New(cfg, db, rdb, tipoCambio, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("abasto backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
