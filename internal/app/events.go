package app

import (
	"time"

	"go.uber.org/zap"

	"paygate/internal/config"
	"paygate/internal/events"
	"paygate/internal/service"
)

const eventWriteTimeout = 5 * time.Second

// NewEventPublisher builds the event sink: the log always, Kafka when brokers are configured.
// The returned close function flushes the Kafka writer.
func NewEventPublisher(cfg config.KafkaConfig, logger *zap.Logger) (service.EventPublisher, func() error) {
	publishers := service.MultiPublisher{service.NewLogPublisher(logger.Named("events"))}
	closeFn := func() error { return nil }

	if len(cfg.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(events.NewWriter(cfg.Brokers, cfg.Topic), eventWriteTimeout)
		publishers = append(publishers, kafkaPublisher)
		closeFn = kafkaPublisher.Close
		logger.Info("kafka event sink enabled", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	}

	return publishers, closeFn
}
