package queue

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Scheduler registers the recurring consolidation jobs.
type Scheduler struct {
	scheduler *asynq.Scheduler
	sweepCron string
}

func NewScheduler(redisAddr, sweepCron string) *Scheduler {
	return &Scheduler{
		scheduler: asynq.NewScheduler(
			asynq.RedisClientOpt{Addr: redisAddr},
			&asynq.SchedulerOpts{},
		),
		sweepCron: sweepCron,
	}
}

// RegisterConsolidationJobs wires the periodic sweep that assigns Works to
// unconsolidated LicensePools.
func (s *Scheduler) RegisterConsolidationJobs() error {
	entryID, err := s.scheduler.Register(s.sweepCron, NewConsolidationSweepTask())
	if err != nil {
		return fmt.Errorf("register consolidation sweep: %w", err)
	}
	log.Info().Str("entry_id", entryID).Str("cron", s.sweepCron).
		Msg("Registered consolidation sweep")
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
