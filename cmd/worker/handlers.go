package main

import (
	"github.com/hibiken/asynq"

	"circulation-backend/internal/infrastructure/queue"
	"circulation-backend/pkg/container"

	workjob "circulation-backend/internal/domains/work/job"
)

// HandlerRegistry holds all job handlers.
type HandlerRegistry struct {
	calculateWork           *workjob.CalculateWorkHandler
	consolidationSweep      *workjob.ConsolidationSweepHandler
	recalculatePresentation *workjob.RecalculatePresentationHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		calculateWork:           c.CalculateWorkJob,
		consolidationSweep:      c.ConsolidationSweepJob,
		recalculatePresentation: c.RecalculatePresentationJob,
	}
}

// RegisterHandlers registers all handlers with the mux.
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TypeCalculateWork, h.calculateWork.ProcessTask)
	mux.HandleFunc(queue.TypeConsolidationSweep, h.consolidationSweep.ProcessTask)
	mux.HandleFunc(queue.TypeRecalculatePresentation, h.recalculatePresentation.ProcessTask)
}
