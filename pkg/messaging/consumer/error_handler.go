package consumer

import (
	"errors"

	"github.com/Sokol111/ecommerce-product-sync/pkg/core/logger"
	"github.com/Sokol111/ecommerce-product-sync/pkg/messaging/channel"
	"go.uber.org/zap"
)

// TransportErrorHandler logs faults of the receive loop. Repeating faults of
// the same class are logged at WARN once per interval and at DEBUG otherwise.
type TransportErrorHandler struct {
	endpoint  channel.Endpoint
	log       *zap.Logger
	throttler *logger.LogThrottler
}

func NewTransportErrorHandler(endpoint channel.Endpoint, log *zap.Logger, cfg Config) *TransportErrorHandler {
	return &TransportErrorHandler{
		endpoint:  endpoint,
		log:       log,
		throttler: logger.NewLogThrottler(log, cfg.ErrorLogInterval),
	}
}

// Handle logs err and returns its classification.
func (h *TransportErrorHandler) Handle(err error) channel.Reason {
	var te *channel.TransportError
	if !errors.As(err, &te) {
		te = &channel.TransportError{Reason: channel.ReasonOther, Endpoint: h.endpoint, Err: err}
	}
	endpoint := te.Endpoint
	if endpoint == (channel.Endpoint{}) {
		endpoint = h.endpoint
	}

	fields := []zap.Field{
		zap.String("reason", string(te.Reason)),
		zap.String("namespace", endpoint.Namespace),
		zap.String("entity", endpoint.Entity),
		zap.Error(te.Err),
	}

	switch te.Reason {
	case channel.ReasonTimeout:
		h.log.Debug("receive timed out", fields...)
	case channel.ReasonFatal:
		h.log.Error("fatal transport error", fields...)
	default:
		h.throttler.Warn(string(te.Reason), "transport error, backing off", fields...)
	}
	return te.Reason
}
