package main

import (
	appointmenthandler "salonhq/internal/appointments/handler"
	appointmentrepository "salonhq/internal/appointments/repository"
	appointmentservice "salonhq/internal/appointments/service"
	appointmentvalidator "salonhq/internal/appointments/validator"
	staffhandler "salonhq/internal/staff/handler"
	staffrepository "salonhq/internal/staff/repository"
	staffservice "salonhq/internal/staff/service"
	staffvalidator "salonhq/internal/staff/validator"
	"salonhq/pkg/app"
	"salonhq/pkg/config"
	"salonhq/pkg/identity"
	"salonhq/pkg/kafka"
	"salonhq/pkg/notify"
)

const ServiceName = "salon"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting salon service")

	directory := initStaffServices(cfg)
	store := initAppointmentServices(cfg, directory)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		staffhandler.NewStaffHandler(directory, cfg.Log),
		appointmenthandler.NewAppointmentHandler(store, cfg.Log),
	)
	serverApp.Run()
}

func initStaffServices(cfg *config.Config) staffservice.StaffDirectory {
	directory := staffservice.NewStaffDirectory(
		staffrepository.NewMongoStaffRepository(cfg),
		staffvalidator.NewStaffValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Staff directory initialized", "database", cfg.MongoDatabaseName)
	return directory
}

func initAppointmentServices(cfg *config.Config, directory staffservice.StaffDirectory) appointmentservice.AppointmentStore {
	store := appointmentservice.NewAppointmentStore(
		appointmentrepository.NewMongoAppointmentRepository(cfg),
		appointmentrepository.NewMongoSlotLockRepository(cfg),
		appointmentvalidator.NewAppointmentValidator(cfg.Log),
		directory,
		identity.NewContextProvider(),
		initNotificationSink(cfg),
		cfg,
	)

	cfg.Log.Info("Appointment store initialized", "database", cfg.MongoDatabaseName)
	return store
}

// initNotificationSink prefers the Kafka sink and falls back to log-only
// delivery when the producer cannot be built.
func initNotificationSink(cfg *config.Config) notify.Sink {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, using log notifications", "error", err)
		return notify.NewLogSink(cfg.Log)
	}

	cfg.Log.Info("Kafka notification sink initialized", "topic", cfg.KafkaNotificationTopic)
	return notify.NewKafkaSink(producer, ServiceName, cfg.Log)
}
