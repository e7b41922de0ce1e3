package services

import (
	"time"

	"github.com/acronis/go-appkit/log"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

type options struct {
	logger   log.FieldLogger
	recorder ports.DecisionRecorder
	now      func() time.Time
}

// Option configura dependências opcionais dos serviços.
type Option func(*options)

func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithDecisionRecorder(recorder ports.DecisionRecorder) Option {
	return func(o *options) { o.recorder = recorder }
}

// WithClock substitui time.Now, usado pelo sliding log.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: log.NewDisabledLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
