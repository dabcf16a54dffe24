package bootstrap

import (
	"time"

	"github.com/kbukum/microhttp/logger"
)

const defaultStopTimeout = 15 * time.Second

// Option tunes an App at construction. Options are not generic, so one set
// works for every config type.
type Option func(*settings)

type settings struct {
	log         *logger.Logger
	stopTimeout time.Duration
}

// WithLogger uses l instead of a global logger built from the config's
// logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithGracefulTimeout bounds how long stopping the components may take.
// Non-positive values keep the 15s default.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}
