package main

import (
	"pensio/internal/cleaning"
	"pensio/internal/cleaning/replica"
	editlockhandler "pensio/internal/editlocks/handler"
	editlockrepository "pensio/internal/editlocks/repository"
	editlockservice "pensio/internal/editlocks/service"
	"pensio/internal/reservations/handler"
	"pensio/internal/reservations/repository"
	"pensio/internal/reservations/service"
	"pensio/internal/reservations/validator"
	"pensio/pkg/app"
	"pensio/pkg/config"
	"pensio/pkg/kafka"
	kafka_config "pensio/pkg/kafka/config"
	kafka_middleware "pensio/pkg/kafka/middleware"
)

const ServiceName = "reservations"

const (
	eventsTopic    = "reservation-events"
	eventsDLQTopic = "reservation-events-dlq"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Reservations service")

	reservationService, lockService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg),
		editlockhandler.NewLockHandler(lockService, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.ReservationService, editlockservice.LockService) {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	roomRepo := repository.NewMongoRoomRepository(cfg)

	producer := initProducer(cfg)
	purger := initPurger(cfg, reservationRepo, roomRepo)

	reservationService := service.NewReservationService(
		reservationRepo,
		roomRepo,
		reservationValidator,
		producer,
		purger,
		cfg,
	)

	lockRepo := editlockrepository.NewMongoLockRepository(cfg)
	lockService := editlockservice.NewLockService(lockRepo, cfg)

	cfg.Log.Info("Reservation services initialized", "database", cfg.MongoDatabaseName)
	return reservationService, lockService
}

// initProducer wires the event stream producer. The service runs
// without it when the brokers are unreachable at startup; events are a
// convenience feed for the sync worker, not a dependency of the write
// path.
func initProducer(cfg *config.Config) service.EventPublisher {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, eventsTopic, eventsDLQTopic)
	if err != nil {
		cfg.Log.Warn("Event producer unavailable, continuing without event publishing", "error", err)
		return nil
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware())
	}
	return producer
}

// initPurger opens the cleaning replica so deletes can drop their rows
// immediately. Missing replica is not fatal for the API service; the
// sync worker repairs the replica on its next run.
func initPurger(cfg *config.Config, reservationRepo repository.ReservationRepository, roomRepo repository.RoomRepository) service.ReplicaPurger {
	db, err := replica.Open(cfg.ReplicaDSN)
	if err != nil {
		cfg.Log.Warn("Cleaning replica unavailable, deletes will not purge replica rows", "error", err)
		return nil
	}
	return cleaning.NewReplicator(reservationRepo, roomRepo, replica.NewGormStore(db), cfg)
}
