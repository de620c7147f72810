// Package service orchestrates profile registration: validate, normalize,
// write metadata, then stream objects. The metadata write always comes first,
// so a record can exist with zero or partial objects, but an object is never
// stored for a submission whose record failed to persist.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vemurivi/CareerShotApi/internal/audit"
	"github.com/vemurivi/CareerShotApi/internal/platform/middleware"
	"github.com/vemurivi/CareerShotApi/internal/register/metrics"
	"github.com/vemurivi/CareerShotApi/internal/register/models"
	"github.com/vemurivi/CareerShotApi/internal/register/normalize"
	dErrors "github.com/vemurivi/CareerShotApi/pkg/domain-errors"
	"github.com/vemurivi/CareerShotApi/pkg/platform/sentinel"
)

// MetadataStore is the metadata-table capability: atomic create-if-absent
// keyed by (PartitionKey, RowKey), surfacing sentinel.ErrConflict when the
// key exists.
type MetadataStore interface {
	Create(ctx context.Context, rec *models.Record) error
}

// ObjectStore is the blob capability: the full stream is durably stored under
// container/name (overwriting any previous object) or the call fails whole.
type ObjectStore interface {
	Put(ctx context.Context, container, name string, r io.Reader) (int64, error)
}

// ReplayGuard maps idempotency keys to the row key of the first attempt.
type ReplayGuard interface {
	Reserve(ctx context.Context, key, rowKey string) (string, error)
}

// AuditPublisher captures registration outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the registration state machine. Each request gets an
// independent run; the service itself holds no per-request state.
type Service struct {
	metadata  MetadataStore
	objects   ObjectStore
	container string

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	guard   ReplayGuard
	clock   func() time.Time
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithReplayGuard enables idempotency-key replay detection. Guard failures
// degrade to the non-idempotent path; they never fail a registration.
func WithReplayGuard(guard ReplayGuard) Option {
	return func(s *Service) { s.guard = guard }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// New constructs a Service. container names the object-store namespace all
// registrations write into.
func New(metadata MetadataStore, objects ObjectStore, container string, opts ...Option) (*Service, error) {
	if metadata == nil {
		return nil, errors.New("metadata store is required")
	}
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	if container == "" {
		return nil, errors.New("object container is required")
	}

	s := &Service{
		metadata:  metadata,
		objects:   objects,
		container: container,
		logger:    slog.Default(),
		clock:     time.Now,
		tracer:    otel.Tracer("careershot/register"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register runs one submission through the state machine and returns the
// generated row key on success. On failure the returned *models.StageError
// names the failing stage; committed stages are never undone, so callers must
// treat failure as "metadata may already exist".
func (s *Service) Register(ctx context.Context, sub *models.Submission) (*models.Result, error) {
	defer sub.Close()
	start := s.clock()

	ctx, span := s.tracer.Start(ctx, "register.Register")
	defer span.End()

	// Received → Validated
	if err := ValidateSubmission(sub); err != nil {
		return nil, s.fail(ctx, span, start, &models.StageError{Stage: models.StageReceived, Err: err})
	}

	// Validated → Normalized
	partitionKey := normalize.PartitionKey(sub.Name)
	baseName := normalize.ObjectBaseName(sub.Name)
	rowKey, replayed := s.resolveRowKey(ctx, sub)

	span.SetAttributes(
		attribute.String("register.partition_key", partitionKey),
		attribute.String("register.row_key", rowKey),
		attribute.Int("register.file_count", len(sub.Files)),
	)

	rec, err := buildRecord(sub, partitionKey, rowKey)
	if err != nil {
		return nil, s.fail(ctx, span, start, &models.StageError{Stage: models.StageNormalized, Err: err})
	}

	// Normalized → MetadataWritten. Honor caller cancellation before
	// starting a stage, never after one has committed.
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, span, start, &models.StageError{
			Stage: models.StageMetadataWritten,
			Err:   dErrors.Wrap(dErrors.CodeUnavailable, "registration cancelled", err),
		})
	}
	if err := s.metadata.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) && replayed {
			// The record from the first attempt persisted; finish its
			// object writes. Overwrites are safe.
			s.logger.InfoContext(ctx, "idempotent retry, record already persisted",
				"partition_key", partitionKey,
				"row_key", rowKey,
			)
		} else if errors.Is(err, sentinel.ErrConflict) {
			return nil, s.fail(ctx, span, start, &models.StageError{
				Stage: models.StageMetadataWritten,
				Err:   dErrors.Wrap(dErrors.CodeConflict, "row key already exists", err),
			})
		} else {
			return nil, s.fail(ctx, span, start, &models.StageError{
				Stage: models.StageMetadataWritten,
				Err:   dErrors.Wrap(dErrors.CodeUnavailable, "metadata store create failed", err),
			})
		}
	}

	// MetadataWritten → ObjectsWritten. Sequential, submission order, no
	// fan-out: the first failure aborts and nothing already written is
	// rolled back.
	objectNames := make([]string, 0, len(sub.Files))
	for i, file := range sub.Files {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(ctx, span, start, &models.StageError{
				Stage:   models.StageObjectsWritten,
				Written: i,
				Total:   len(sub.Files),
				Err:     dErrors.Wrap(dErrors.CodeUnavailable, "registration cancelled", err),
			})
		}

		name := normalize.ObjectName(baseName, file.FileName)
		written, err := s.objects.Put(ctx, s.container, name, file.Content)
		if err != nil {
			return nil, s.fail(ctx, span, start, &models.StageError{
				Stage:   models.StageObjectsWritten,
				Written: i,
				Total:   len(sub.Files),
				Err:     dErrors.Wrap(dErrors.CodeUnavailable, fmt.Sprintf("object write failed for %q", name), err),
			})
		}
		if s.metrics != nil {
			s.metrics.ObserveUpload(written)
		}
		objectNames = append(objectNames, name)
	}

	// ObjectsWritten → Complete
	elapsed := s.clock().Sub(start)
	if s.metrics != nil {
		s.metrics.ObserveSuccess(elapsed)
	}
	s.emitAudit(ctx, audit.Event{
		Actor:        middleware.GetSubject(ctx),
		Action:       audit.ActionRegistrationCompleted,
		PartitionKey: partitionKey,
		RowKey:       rowKey,
		Stage:        string(models.StageComplete),
	})
	s.logger.InfoContext(ctx, "registration complete",
		"partition_key", partitionKey,
		"row_key", rowKey,
		"objects", len(objectNames),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &models.Result{
		PartitionKey: partitionKey,
		RowKey:       rowKey,
		ObjectNames:  objectNames,
	}, nil
}

// resolveRowKey picks the row key for this attempt. Without an idempotency
// key every attempt gets a fresh uuid, which makes retries after an
// object-store failure create a second record — a documented consistency
// gap, not hidden. With a key the row key is stable across retries.
func (s *Service) resolveRowKey(ctx context.Context, sub *models.Submission) (rowKey string, replayed bool) {
	if sub.IdempotencyKey == "" {
		return normalize.NewRowKey(), false
	}

	rowKey = normalize.DerivedRowKey(sub.IdempotencyKey)
	if s.guard != nil {
		existing, err := s.guard.Reserve(ctx, sub.IdempotencyKey, rowKey)
		if err != nil {
			s.logger.WarnContext(ctx, "replay guard unavailable, proceeding without it",
				"error", err.Error(),
			)
			return rowKey, true
		}
		rowKey = existing
	}
	return rowKey, true
}

func buildRecord(sub *models.Submission, partitionKey, rowKey string) (*models.Record, error) {
	skills := sub.Skills
	if skills == nil {
		skills = map[string][]models.SkillEntry{}
	}
	encoded, err := json.Marshal(skills)
	if err != nil {
		// Surface serialization failures rather than silently dropping
		// fields; the validator cannot catch these.
		return nil, dErrors.Wrap(dErrors.CodeValidation, "skills map is not serializable", err)
	}

	extensions := make([]string, len(sub.Files))
	for i, f := range sub.Files {
		extensions[i] = normalize.Extension(f.FileName)
	}

	return &models.Record{
		PartitionKey:   partitionKey,
		RowKey:         rowKey,
		Name:           sub.Name,
		Description:    sub.Description,
		LinkedIn:       sub.LinkedIn,
		GitHub:         sub.GitHub,
		SkillsEncoded:  string(encoded),
		FileExtensions: extensions,
	}, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, start time.Time, stageErr *models.StageError) error {
	elapsed := s.clock().Sub(start)
	span.RecordError(stageErr)

	if s.metrics != nil {
		s.metrics.ObserveFailure(string(stageErr.Stage), elapsed)
	}
	s.emitAudit(ctx, audit.Event{
		Actor:  middleware.GetSubject(ctx),
		Action: audit.ActionRegistrationFailed,
		Stage:  string(stageErr.Stage),
		Detail: stageErr.Err.Error(),
	})

	if dErrors.HasCode(stageErr, dErrors.CodeValidation) {
		s.logger.WarnContext(ctx, "registration rejected",
			"stage", string(stageErr.Stage),
			"error", stageErr.Err.Error(),
		)
	} else {
		s.logger.ErrorContext(ctx, "registration failed",
			"stage", string(stageErr.Stage),
			"written", stageErr.Written,
			"total", stageErr.Total,
			"error", stageErr.Err.Error(),
		)
	}
	return stageErr
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err.Error())
	}
}
