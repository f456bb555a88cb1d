// Package handler exposes the profile engine over HTTP: the public update,
// rollback and change-trail routes behind JWT auth, the sync admin surface
// behind the operator token, and the unauthenticated health and metrics
// endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"praxis/internal/audit"
	"praxis/internal/platform/middleware"
	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	dErrors "praxis/pkg/domain-errors"
	"praxis/pkg/platform/httputil"
	"praxis/pkg/requestcontext"
)

// Service is the engine surface the handler delegates to.
type Service interface {
	PerformUpdate(ctx context.Context, subjectID id.SubjectID, section models.Section, newValue json.RawMessage, actorID id.ActorID) (*models.UpdateResult, error)
	Rollback(ctx context.Context, operationID id.OperationID) (bool, error)
	RecentChanges(ctx context.Context, subjectID id.SubjectID, limit int) ([]audit.Entry, error)
	ChangesBySection(ctx context.Context, subjectID id.SubjectID, section models.Section, limit int) ([]audit.Entry, error)
	SyncStats(ctx context.Context) (models.SyncStats, error)
	PendingSyncOperations(ctx context.Context) ([]*models.SyncOperation, error)
}

// HealthCheck probes one dependency for the health endpoint.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Handler serves the profile routes.
type Handler struct {
	service    Service
	validator  middleware.TokenValidator
	adminToken string
	logger     *slog.Logger
}

// New creates a profile Handler.
func New(service Service, validator middleware.TokenValidator, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{
		service:    service,
		validator:  validator,
		adminToken: adminToken,
		logger:     logger,
	}
}

// Register mounts the authenticated profile routes and the admin sync surface.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.RequireAuth(h.validator, h.logger))
	api.Post("/profiles/{subjectID}/sections/{section}", h.handleUpdateSection)
	api.Get("/profiles/{subjectID}/changes", h.handleListChanges)
	api.Post("/operations/{operationID}/rollback", h.handleRollback)
	r.Mount("/v1", api)

	ops := chi.NewRouter()
	ops.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
	ops.Get("/stats", h.handleSyncStats)
	ops.Get("/operations", h.handleListOperations)
	r.Mount("/internal/sync", ops)
}

// RegisterOps mounts the unauthenticated operational endpoints.
func (h *Handler) RegisterOps(r chi.Router, checks ...HealthCheck) {
	r.Get("/healthz", h.handleHealth(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (h *Handler) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	section := models.Section(chi.URLParam(r, "section"))

	req, ok := httputil.DecodeAndPrepare[updateSectionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.PerformUpdate(ctx, subjectID, section, req.Value, requestcontext.ActorID(ctx))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) || dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.WarnContext(ctx, "section update rejected",
				"request_id", requestID,
				"subject_id", subjectID,
				"section", section,
				"error", err,
			)
		} else {
			h.logger.ErrorContext(ctx, "section update failed",
				"request_id", requestID,
				"subject_id", subjectID,
				"section", section,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newUpdateSectionResponse(result))
}

func (h *Handler) handleRollback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	operationID, err := id.ParseOperationID(chi.URLParam(r, "operationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rolledBack, err := h.service.Rollback(ctx, operationID)
	if err != nil {
		h.logger.ErrorContext(ctx, "rollback failed",
			"request_id", requestID,
			"operation_id", operationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rollbackResponse{RolledBack: rolledBack})
}

func (h *Handler) handleListChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be an integer"))
			return
		}
	}

	var entries []audit.Entry
	if section := r.URL.Query().Get("section"); section != "" {
		entries, err = h.service.ChangesBySection(ctx, subjectID, models.Section(section), limit)
	} else {
		entries, err = h.service.RecentChanges(ctx, subjectID, limit)
	}
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "failed to list changes",
				"request_id", requestcontext.RequestID(ctx),
				"subject_id", subjectID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newChangesResponse(entries))
}

func (h *Handler) handleSyncStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.SyncStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read sync stats", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleListOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ops, err := h.service.PendingSyncOperations(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list pending operations", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newOperationsResponse(ops))
}

func (h *Handler) handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for _, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := check.Probe(ctx)
			cancel()
			if err != nil {
				resp.Status = "degraded"
				resp.Checks[check.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[check.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
