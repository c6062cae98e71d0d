package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"circulation-backend/internal/domains/licensepool/model"
	"circulation-backend/internal/domains/licensepool/repository"
	"circulation-backend/internal/domains/licensepool/service"
	"circulation-backend/internal/infrastructure/queue"
	"circulation-backend/internal/shared/response"
)

// Handler exposes license pools and their circulation history over HTTP.
type Handler struct {
	repo         repository.Repository
	availability *service.AvailabilityService
	asynqClient  *asynq.Client
}

func NewHandler(repo repository.Repository, availability *service.AvailabilityService, asynqClient *asynq.Client) *Handler {
	return &Handler{repo: repo, availability: availability, asynqClient: asynqClient}
}

// GetPool - GET /v1/pools/:id
func (h *Handler) GetPool(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Pool id must be a UUID")
		return
	}

	pool, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrPoolNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "License pool not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load pool")
		return
	}

	response.Success(c, http.StatusOK, pool)
}

// GetEvents - GET /v1/pools/:id/events
func (h *Handler) GetEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Pool id must be a UUID")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, model.ErrPoolNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "License pool not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load pool")
		return
	}

	events, err := h.repo.EventsForPool(ctx, id)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load events")
		return
	}

	response.Success(c, http.StatusOK, events)
}

// UpdateAvailability - POST /v1/pools/:id/availability (admin)
// Applies a circulation snapshot and logs the implied events.
func (h *Handler) UpdateAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Pool id must be a UUID")
		return
	}

	var req model.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	pool, err := h.availability.UpdateAvailability(c.Request.Context(), id,
		req.LicensesOwned, req.LicensesAvailable, req.LicensesReserved, req.PatronsInHoldQueue)
	if err != nil {
		if errors.Is(err, model.ErrPoolNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "License pool not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update availability")
		return
	}

	response.Success(c, http.StatusOK, pool)
}

// CalculateWork - POST /v1/pools/:id/calculate-work (admin)
// Queues work consolidation for the pool.
func (h *Handler) CalculateWork(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Pool id must be a UUID")
		return
	}

	// The body is optional; an empty one means default options.
	var req model.CalculateWorkRequest
	_ = c.ShouldBindJSON(&req)

	ctx := c.Request.Context()
	if _, err := h.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, model.ErrPoolNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "License pool not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load pool")
		return
	}

	task, err := queue.NewCalculateWorkTask(id, req.EvenIfNoAuthor)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build task")
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		log.Error().Err(err).Str("pool_id", id.String()).Msg("Failed to enqueue consolidation")
		response.ErrorResponse(c, http.StatusInternalServerError, "QUEUE_ERROR", "Failed to queue consolidation")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"license_pool_id": id, "status": "queued"})
}
