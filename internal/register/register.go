package register

import (
	"log/slog"

	"github.com/vemurivi/CareerShotApi/internal/register/handler"
	"github.com/vemurivi/CareerShotApi/internal/register/service"
)

// Service orchestrates registration submissions across both stores.
type Service = service.Service

// Handler wires HTTP endpoints to the registration service.
type Handler = handler.Handler

// Option configures the registration service.
type Option = service.Option

// Re-exported service options so callers wire dependencies without importing
// the service package directly.
var (
	WithLogger         = service.WithLogger
	WithMetrics        = service.WithMetrics
	WithAuditPublisher = service.WithAuditPublisher
	WithReplayGuard    = service.WithReplayGuard
)

// NewService constructs the registration service with required dependencies.
func NewService(metadata service.MetadataStore, objects service.ObjectStore, container string, opts ...Option) (*Service, error) {
	return service.New(metadata, objects, container, opts...)
}

// NewHandler constructs an HTTP handler for the registration routes.
func NewHandler(s *Service, reads handler.ReadStore, logger *slog.Logger) *Handler {
	return handler.New(s, reads, logger)
}
