package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"circulation-backend/internal/domains/work/service"
	"circulation-backend/internal/infrastructure/queue"
)

// RecalculatePresentationHandler refreshes one work's presentation.
type RecalculatePresentationHandler struct {
	presentation *service.PresentationService
}

func NewRecalculatePresentationHandler(presentation *service.PresentationService) *RecalculatePresentationHandler {
	return &RecalculatePresentationHandler{presentation: presentation}
}

func (h *RecalculatePresentationHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.RecalculatePresentationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal RecalculatePresentation payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	workID, err := uuid.Parse(payload.WorkID)
	if err != nil {
		return fmt.Errorf("parse work id: %w", err)
	}

	if err := h.presentation.CalculatePresentation(ctx, workID, service.AllPresentationOptions()); err != nil {
		log.Error().Err(err).Str("work_id", payload.WorkID).Msg("Presentation refresh failed")
		return fmt.Errorf("calculate presentation: %w", err)
	}

	log.Info().Str("work_id", payload.WorkID).Msg("Presentation refreshed")
	return nil
}
