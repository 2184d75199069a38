package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/CodeAbbas/london-bus-time-checker/internal/adapters/nats"
	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/postgres"
	"github.com/CodeAbbas/london-bus-time-checker/internal/adapters/tfl"
	"github.com/CodeAbbas/london-bus-time-checker/internal/core/usecases"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/config"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/logging"
	"github.com/CodeAbbas/london-bus-time-checker/internal/pkg/metrics"
)

// The poller keeps one tracking loop alive per favorited stop. Every
// reconcile tick it re-reads the favorites table, starts loops for stops
// added since the last tick and stops loops for stops removed. Each loop
// publishes its snapshots to NATS for the WebSocket relay.

func main() {
	cfg, err := config.Load("buschecker-poller")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	src := tfl.New(cfg.TfL.BaseURL, cfg.TfL.AppKey)
	repo := postgres.NewFavoritesRepo(db)

	interval := time.Duration(cfg.Poller.Interval) * time.Second
	fetchTimeout := time.Duration(cfg.Poller.FetchTimeout) * time.Second

	logger := logging.Component("poller")
	logger.Info("poller starting", "interval", interval, "fetch_timeout", fetchTimeout)

	// One tracking loop per favorited stop, keyed by stop ID.
	trackers := make(map[string]*usecases.TrackingService)

	reconcile := func() {
		rctx, rcancel := context.WithTimeout(ctx, 5*time.Second)
		defer rcancel()

		favs, err := repo.List(rctx)
		if err != nil {
			metrics.PollCycles.WithLabelValues("error").Inc()
			logger.Warn("list favorites failed", "error", err)
			return
		}

		wanted := make(map[string]bool, len(favs))
		for _, f := range favs {
			wanted[f.StopID] = true
			if _, ok := trackers[f.StopID]; !ok {
				t := usecases.NewTrackingService(src, pub, interval, fetchTimeout)
				t.Track(f.StopID)
				trackers[f.StopID] = t
				logger.Info("tracking started", "stop_id", f.StopID)
			}
		}
		for stopID, t := range trackers {
			if !wanted[stopID] {
				t.Stop()
				delete(trackers, stopID)
				logger.Info("tracking stopped", "stop_id", stopID)
			}
		}
		metrics.PollCycles.WithLabelValues("ok").Inc()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	reconcile()

	for {
		select {
		case <-ticker.C:
			reconcile()
		case sig := <-quit:
			logger.Info("shutdown signal received, stopping trackers", "signal", sig.String())
			for _, t := range trackers {
				t.Stop()
			}
			cancel()
			// Give in-flight fetches time to observe cancellation
			time.Sleep(2 * time.Second)
			return
		}
	}
}
