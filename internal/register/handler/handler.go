package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vemurivi/CareerShotApi/internal/platform/middleware"
	"github.com/vemurivi/CareerShotApi/internal/register/models"
	dErrors "github.com/vemurivi/CareerShotApi/pkg/domain-errors"
	"github.com/vemurivi/CareerShotApi/pkg/platform/httputil"
	"github.com/vemurivi/CareerShotApi/pkg/platform/sentinel"
)

// Service defines the interface for registration orchestration.
type Service interface {
	Register(ctx context.Context, sub *models.Submission) (*models.Result, error)
}

// ReadStore is the query side of the metadata store.
type ReadStore interface {
	FindByKey(ctx context.Context, partitionKey, rowKey string) (*models.Record, error)
	ListByPartition(ctx context.Context, partitionKey string) ([]*models.Record, error)
}

// Handler handles registration endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	reads   ReadStore
}

// New creates a new registration Handler.
func New(service Service, reads ReadStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		reads:   reads,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/register", h.handleRegister)
	r.Get("/api/register/{partitionKey}", h.handleListPartition)
	r.Get("/api/register/{partitionKey}/{rowKey}", h.handleGetRecord)
}

// handleRegister accepts a multipart registration submission, persists its
// metadata and uploads its files.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	sub, err := parseSubmission(r)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected registration request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Register(ctx, sub)
	if err != nil {
		h.writeRegisterFailure(ctx, w, requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// writeRegisterFailure maps an orchestration error onto the wire. Stage and
// write progress are included so callers can tell "nothing happened" from
// "metadata exists but uploads are incomplete".
func (h *Handler) writeRegisterFailure(ctx context.Context, w http.ResponseWriter, requestID string, err error) {
	h.logger.ErrorContext(ctx, "registration failed",
		"request_id", requestID,
		"error", err.Error(),
	)

	var stageErr *models.StageError
	if !errors.As(err, &stageErr) {
		httputil.WriteError(w, err)
		return
	}

	status := httputil.StatusOf(stageErr)
	body := RegisterFailureResponse{
		Error: string(dErrors.CodeOf(stageErr)),
		Stage: string(stageErr.Stage),
	}
	if status < http.StatusInternalServerError {
		body.ErrorDescription = stageErr.Error()
	}
	if stageErr.Stage == models.StageObjectsWritten {
		body.ObjectsWritten = stageErr.Written
		body.ObjectsTotal = stageErr.Total
	}
	httputil.WriteJSON(w, status, body)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partitionKey := chi.URLParam(r, "partitionKey")
	rowKey := chi.URLParam(r, "rowKey")

	rec, err := h.reads.FindByKey(ctx, partitionKey, rowKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "registration record not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to load registration record",
			"request_id", middleware.GetRequestID(ctx),
			"partition_key", partitionKey,
			"row_key", rowKey,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load registration record"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) handleListPartition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partitionKey := chi.URLParam(r, "partitionKey")

	records, err := h.reads.ListByPartition(ctx, partitionKey)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list partition",
			"request_id", middleware.GetRequestID(ctx),
			"partition_key", partitionKey,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list registration records"))
		return
	}

	resp := ListResponse{
		PartitionKey: partitionKey,
		Records:      make([]*RecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, FromRecord(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
