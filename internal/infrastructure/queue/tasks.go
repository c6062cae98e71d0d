package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types dispatched to the worker.
const (
	TypeCalculateWork           = "consolidation:pool"
	TypeConsolidationSweep      = "consolidation:sweep"
	TypeRecalculatePresentation = "presentation:recalculate"
)

// CalculateWorkPayload asks the worker to consolidate one license pool.
type CalculateWorkPayload struct {
	LicensePoolID  string `json:"license_pool_id"`
	EvenIfNoAuthor bool   `json:"even_if_no_author"`
}

// RecalculatePresentationPayload asks the worker to refresh one work.
type RecalculatePresentationPayload struct {
	WorkID string `json:"work_id"`
}

// NewCalculateWorkTask builds the consolidation task for a pool.
func NewCalculateWorkTask(poolID uuid.UUID, evenIfNoAuthor bool) (*asynq.Task, error) {
	payload, err := json.Marshal(CalculateWorkPayload{
		LicensePoolID:  poolID.String(),
		EvenIfNoAuthor: evenIfNoAuthor,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeCalculateWork, payload, asynq.Queue("default")), nil
}

// NewConsolidationSweepTask builds the sweep task covering every pool with no
// work assigned.
func NewConsolidationSweepTask() *asynq.Task {
	return asynq.NewTask(TypeConsolidationSweep, nil, asynq.Queue("low"))
}

// NewRecalculatePresentationTask builds the presentation-refresh task.
func NewRecalculatePresentationTask(workID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(RecalculatePresentationPayload{WorkID: workID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeRecalculatePresentation, payload, asynq.Queue("default")), nil
}
