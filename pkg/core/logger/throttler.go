package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultThrottleInterval = 5 * time.Minute

// LogThrottler logs a repeating condition at WARN once per interval per key
// and at DEBUG in between.
type LogThrottler struct {
	log      *zap.Logger
	interval time.Duration
	limiters sync.Map // key -> *rate.Limiter
}

// NewLogThrottler creates a throttler. A zero interval means five minutes.
func NewLogThrottler(log *zap.Logger, interval time.Duration) *LogThrottler {
	if interval <= 0 {
		interval = defaultThrottleInterval
	}
	return &LogThrottler{log: log, interval: interval}
}

func (t *LogThrottler) Warn(key string, msg string, fields ...zap.Field) {
	if t.limiter(key).Allow() {
		t.log.Warn(msg, fields...)
		return
	}
	t.log.Debug(msg, fields...)
}

func (t *LogThrottler) limiter(key string) *rate.Limiter {
	if l, ok := t.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	l, _ := t.limiters.LoadOrStore(key, rate.NewLimiter(rate.Every(t.interval), 1))
	return l.(*rate.Limiter)
}
