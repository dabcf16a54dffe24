package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/microhttp/component"
	"github.com/kbukum/microhttp/logger"
)

// Summary records how the application started. It is logged at debug level
// so command output on stdout stays untouched.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a new startup summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the time taken by startup.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// StartupDuration returns the recorded startup time.
func (s *Summary) StartupDuration() time.Duration {
	return s.startupDuration
}

// Log writes one line for the service, one per described component and one
// per component health result.
func (s *Summary) Log(ctx context.Context, registry *component.Registry, log *logger.Logger) {
	log.Debug("application started", logger.MergeWithDuration(logger.Fields(
		logger.FieldService, s.serviceName,
		"version", s.version,
	), s.startupDuration))

	if registry == nil {
		return
	}
	for _, d := range registry.Describe() {
		log.Debug("component", logger.Fields(
			logger.FieldComponent, d.Name,
			"type", d.Type,
			"details", d.Details,
		))
	}
	for _, h := range registry.HealthAll(ctx) {
		fields := logger.Fields(logger.FieldComponent, h.Name, "status", string(h.Status))
		if h.Message != "" {
			fields["message"] = h.Message
		}
		log.Debug("component health", fields)
	}
}
