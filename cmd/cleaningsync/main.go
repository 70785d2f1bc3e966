package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pensio/internal/cleaning"
	"pensio/internal/cleaning/replica"
	"pensio/internal/reservations/repository"
	"pensio/pkg/config"
	"pensio/pkg/kafka"
	kafka_config "pensio/pkg/kafka/config"
	kafka_middleware "pensio/pkg/kafka/middleware"
	"pensio/pkg/model"
)

const ServiceName = "cleaningsync"

const (
	eventsTopic    = "reservation-events"
	eventsDLQTopic = "reservation-events-dlq"
	consumerGroup  = "cleaningsync"

	// Finished tasks older than this are dropped from the replica.
	taskRetention = 30 * 24 * time.Hour
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting cleaning sync worker")

	db, err := replica.Open(cfg.ReplicaDSN)
	if err != nil {
		cfg.Log.Fatal("Failed to open cleaning replica", "error", err)
	}

	reservationRepo := repository.NewMongoReservationRepository(cfg)
	roomRepo := repository.NewMongoRoomRepository(cfg)
	replicator := cleaning.NewReplicator(reservationRepo, roomRepo, replica.NewGormStore(db), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	// Full window sync on startup so a fresh replica is usable before
	// the first event or tick arrives.
	syncCurrentWindow(ctx, cfg, replicator)

	go runTicker(ctx, cfg, replicator)

	runConsumer(ctx, cfg, replicator)

	cfg.Log.Info("Cleaning sync worker stopped")
}

// runConsumer reacts to reservation change events. A delete drops the
// reservation's rows straight away; any other change rebuilds the days
// the reservation touches.
func runConsumer(ctx context.Context, cfg *config.Config, replicator *cleaning.Replicator) {
	handler := func(ctx context.Context, msg kafka.Message) error {
		var event model.ReservationEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("invalid message payload", err)
		}

		if msg.GetEventType() == model.EventReservationDeleted {
			return replicator.DeleteForReservation(ctx, event.ID)
		}

		if event.CheckinDate == "" || event.CheckoutDate == "" {
			syncCurrentWindow(ctx, cfg, replicator)
			return nil
		}

		if _, err := replicator.Sync(ctx, event.CheckinDate, event.CheckoutDate); err != nil {
			var repErr *cleaning.ReplicationError
			if errors.As(err, &repErr) {
				// Partial row failures are not worth a redelivery; the
				// periodic sync repairs them.
				cfg.Log.Warn("Partial replica sync from event", "error", err)
				return nil
			}
			return err
		}
		return nil
	}

	kafkaCfg := kafka_config.Load()
	consumer, err := kafka.NewConsumer(kafkaCfg, eventsTopic, consumerGroup, eventsDLQTopic, handler)
	if err != nil {
		cfg.Log.Fatal("Failed to create event consumer", "error", err)
	}
	defer consumer.Close()

	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware())
	}

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Event consumer stopped", "error", err)
	}
}

// runTicker periodically rebuilds the whole lookahead window and trims
// old finished tasks, repairing whatever single-event syncs missed.
func runTicker(ctx context.Context, cfg *config.Config, replicator *cleaning.Replicator) {
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncCurrentWindow(ctx, cfg, replicator)

			removed, err := replicator.CleanupCompleted(ctx, taskRetention)
			if err != nil {
				cfg.Log.Warn("Failed to clean up finished tasks", "error", err)
			} else if removed > 0 {
				cfg.Log.Info("Cleaned up finished tasks", "count", removed)
			}
		}
	}
}

func syncCurrentWindow(ctx context.Context, cfg *config.Config, replicator *cleaning.Replicator) {
	start := time.Now().UTC()
	end := start.AddDate(0, 0, cfg.SyncWindowDays)

	synced, err := replicator.Sync(ctx, start.Format(model.DateLayout), end.Format(model.DateLayout))
	if err != nil {
		cfg.Log.Warn("Window sync incomplete", "synced", synced, "error", err)
		return
	}
	cfg.Log.Info("Window sync complete", "synced", synced)
}
