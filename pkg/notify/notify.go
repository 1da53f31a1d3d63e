// Package notify delivers human-readable success/failure messages to whatever
// surface shows them to users. The core treats it as a pure sink.
package notify

import (
	"context"

	"salonhq/pkg/kafka"
	"salonhq/pkg/logger"
)

const (
	KindSuccess = "success"
	KindError   = "error"
	KindWarning = "warning"
	KindInfo    = "info"
)

// Sink receives notifications. Implementations must not fail the calling
// operation; delivery is best effort.
type Sink interface {
	Notify(ctx context.Context, kind, message string)
}

// LogSink writes notifications to the structured log. Used as the fallback
// sink and in tests.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(_ context.Context, kind, message string) {
	s.log.Info("Notification", "kind", kind, "message", message)
}

// KafkaSink publishes notifications to a Kafka topic for downstream delivery
// (in-app message center, email digests).
type KafkaSink struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaSink(producer *kafka.Producer, source string, log *logger.Logger) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		source:   source,
		log:      log,
	}
}

type notificationEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *KafkaSink) Notify(ctx context.Context, kind, message string) {
	msg, err := kafka.NewMessage(kind, "notification", s.source, notificationEvent{
		Kind:    kind,
		Message: message,
	})
	if err != nil {
		s.log.Error("Failed to encode notification", "kind", kind, "error", err)
		return
	}

	if err := s.producer.Publish(ctx, msg); err != nil {
		s.log.Error("Failed to publish notification",
			"kind", kind,
			"error", err,
		)
	}
}
