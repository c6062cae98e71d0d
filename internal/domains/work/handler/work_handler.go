package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	editionrepo "circulation-backend/internal/domains/edition/repository"
	"circulation-backend/internal/domains/work/model"
	"circulation-backend/internal/domains/work/repository"
	"circulation-backend/internal/domains/work/service"
	"circulation-backend/internal/infrastructure/queue"
	"circulation-backend/internal/shared/response"
)

// Handler exposes works over HTTP.
type Handler struct {
	works          repository.Repository
	editions       editionrepo.Repository
	consolidation  *service.ConsolidationService
	mergeThreshold float64
	asynqClient    *asynq.Client
}

func NewHandler(
	works repository.Repository,
	editions editionrepo.Repository,
	consolidation *service.ConsolidationService,
	mergeThreshold float64,
	asynqClient *asynq.Client,
) *Handler {
	return &Handler{
		works:          works,
		editions:       editions,
		consolidation:  consolidation,
		mergeThreshold: mergeThreshold,
		asynqClient:    asynqClient,
	}
}

// GetWork - GET /v1/works/:id
func (h *Handler) GetWork(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Work id must be a UUID")
		return
	}

	ctx := c.Request.Context()
	work, err := h.works.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrWorkNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "Work not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load work")
		return
	}

	genres, err := h.works.GenresFor(ctx, id)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load genres")
		return
	}
	editions, err := h.editions.ByWorkID(ctx, id)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load editions")
		return
	}

	response.Success(c, http.StatusOK, model.WorkDetailResponse{
		Work:     work,
		Genres:   genres,
		Editions: editions,
	})
}

// RecalculatePresentation - POST /v1/works/:id/recalculate (admin)
// Queues a full presentation refresh instead of blocking the request.
func (h *Handler) RecalculatePresentation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Work id must be a UUID")
		return
	}

	if _, err := h.works.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrWorkNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "Work not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load work")
		return
	}

	task, err := queue.NewRecalculatePresentationTask(id)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build task")
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		log.Error().Err(err).Str("work_id", id.String()).Msg("Failed to enqueue presentation refresh")
		response.ErrorResponse(c, http.StatusInternalServerError, "QUEUE_ERROR", "Failed to queue recalculation")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"work_id": id, "status": "queued"})
}

// MergeWork - POST /v1/works/:id/merge (admin)
// Merges the work into the target when they are similar enough.
func (h *Handler) MergeWork(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Work id must be a UUID")
		return
	}

	var req model.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	targetID, _ := uuid.Parse(req.TargetID)

	merged, similarity, err := h.consolidation.MergeInto(c.Request.Context(), sourceID, targetID, h.mergeThreshold)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrWorkNotFound):
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "Work not found")
		case errors.Is(err, model.ErrWorkMerged):
			response.ErrorResponse(c, http.StatusConflict, "ALREADY_MERGED", "Work was already merged")
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Merge failed")
		}
		return
	}

	response.Success(c, http.StatusOK, model.MergeResponse{Merged: merged, Similarity: similarity})
}
