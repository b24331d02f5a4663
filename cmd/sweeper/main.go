package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flyup/recruit-backend/internal/bootstrap"
	"github.com/flyup/recruit-backend/internal/config"
	"github.com/flyup/recruit-backend/internal/observability/metrics"
)

const serviceName = "recruit-sweeper"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, serviceName, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	sweepMetrics := metrics.NewSweeperMetrics(serviceName)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", sweepMetrics.Handler())
	metricsServer := &http.Server{
		Addr:        ":" + cfg.SweeperMetricsPort,
		Handler:     metricsMux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	runSweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()

		start := time.Now()
		report, err := app.Sweeper.Sweep(sweepCtx)
		sweepMetrics.ObserveSweep(serviceName, time.Since(start), report)
		if err != nil {
			app.Logger.Error("sweep pass failed", "error", err)
			return
		}
		app.Logger.Info("sweep pass finished",
			"scanned", report.Scanned,
			"created", report.Created,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every "+cfg.SweepInterval.String(), runSweep); err != nil {
		log.Fatalf("schedule sweep: %v", err)
	}
	scheduler.Start()

	// Catch anything completed while the sweeper was down.
	go runSweep()

	log.Printf("sweeper subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeOfferCompleted(ctx, func(handlerCtx context.Context, email string) error {
		analyzeCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		sweepMetrics.StartAnalysis()
		start := time.Now()
		err := app.Analysis.EnsureFilter(analyzeCtx, email)
		sweepMetrics.FinishAnalysis(serviceName, time.Since(start), err)
		sweepMetrics.RecordQueueEvent(serviceName, err)
		return err
	})
	if err != nil {
		log.Printf("sweeper subscribe error: %v", err)
	}

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics shutdown error: %v", err)
	}
}
