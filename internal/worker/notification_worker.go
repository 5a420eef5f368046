package worker

import (
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/service"
)

// Subscribers lists the consumers attached to the lifecycle dispatcher.
type Subscribers struct {
	Notifications *service.NotificationService
	Forwarder     *events.KafkaForwarder
}

// StartEventSubscribers registers notification delivery and, when brokers are configured,
// the Kafka forwarder. Both run synchronously after each committed mutation.
func StartEventSubscribers(d events.Dispatcher, subs Subscribers, logger *zap.Logger) {
	if d == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if subs.Notifications != nil {
		subs.Notifications.RegisterHandlers()
	}
	subs.Forwarder.Register(d)
	logger.Info("event subscribers started",
		zap.Bool("notifications", subs.Notifications != nil),
		zap.Bool("kafka", subs.Forwarder.Enabled()))
}
