package app

import (
	"catalogservice/internal/book"
	"catalogservice/internal/config"
	"catalogservice/internal/events"

	"go.uber.org/zap"
)

// OpenPublisher connects the RabbitMQ event publisher when cfg.RabbitMQURL is
// set. A broker that cannot be reached is logged and events are dropped, so
// the catalog stays writable without it. The returned close func is never nil.
func OpenPublisher(cfg config.Config, log *zap.Logger) (book.EventPublisher, func()) {
	if cfg.RabbitMQURL == "" {
		return nil, func() {}
	}

	pub, err := events.NewPublisher(cfg.RabbitMQURL, log)
	if err != nil {
		log.Warn("event publishing disabled", zap.Error(err))
		return nil, func() {}
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("close event publisher", zap.Error(err))
		}
	}
}
