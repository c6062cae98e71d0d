package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"circulation-backend/internal/domains/work/model"
	"circulation-backend/internal/domains/work/service"
	"circulation-backend/internal/infrastructure/queue"
)

// Pools that cannot be consolidated yet come around again with the sweep,
// so their tasks succeed instead of retrying forever.
const sweepBatchSize = 500

// CalculateWorkHandler consolidates a single license pool.
type CalculateWorkHandler struct {
	consolidation *service.ConsolidationService
}

func NewCalculateWorkHandler(consolidation *service.ConsolidationService) *CalculateWorkHandler {
	return &CalculateWorkHandler{consolidation: consolidation}
}

func (h *CalculateWorkHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.CalculateWorkPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal CalculateWork payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	poolID, err := uuid.Parse(payload.LicensePoolID)
	if err != nil {
		return fmt.Errorf("parse pool id: %w", err)
	}

	work, created, err := h.consolidation.CalculateWork(ctx, poolID, payload.EvenIfNoAuthor)
	if err != nil {
		if errors.Is(err, model.ErrNoEdition) || errors.Is(err, model.ErrInsufficientMetadata) {
			log.Warn().
				Str("pool_id", payload.LicensePoolID).
				Err(err).
				Msg("Pool not ready for consolidation, leaving for the sweep")
			return nil
		}
		log.Error().Err(err).Str("pool_id", payload.LicensePoolID).Msg("Consolidation failed")
		return fmt.Errorf("calculate work: %w", err)
	}

	log.Info().
		Str("pool_id", payload.LicensePoolID).
		Str("work_id", work.ID.String()).
		Bool("created", created).
		Msg("Pool consolidated")

	return nil
}

// ConsolidationSweepHandler assigns works to every unconsolidated pool.
type ConsolidationSweepHandler struct {
	consolidation *service.ConsolidationService
}

func NewConsolidationSweepHandler(consolidation *service.ConsolidationService) *ConsolidationSweepHandler {
	return &ConsolidationSweepHandler{consolidation: consolidation}
}

func (h *ConsolidationSweepHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	consolidated, err := h.consolidation.ConsolidateWorks(ctx, sweepBatchSize, false)
	if err != nil {
		log.Error().Err(err).Msg("Consolidation sweep failed")
		return fmt.Errorf("consolidation sweep: %w", err)
	}

	log.Info().Int("consolidated", consolidated).Msg("Consolidation sweep done")
	return nil
}
