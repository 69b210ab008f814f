package scheduler

import (
	"context"
	"time"

	"catalog-sync/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// runTimeout bounds one scheduled reconciliation run.
const runTimeout = 10 * time.Minute

// Scheduler triggers batch reconciliation on a cron schedule. Runs do
// not overlap from within one process: a tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	service service.ReconcileService
	logger  zerolog.Logger
}

// New creates a scheduler that runs the reconcile service on the given
// cron expression.
func New(cronSpec string, reconcile service.ReconcileService, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		service: reconcile,
		logger:  logger.With().Str("component", "scheduler").Logger(),
	}

	if _, err := s.cron.AddFunc(cronSpec, s.run); err != nil {
		return nil, err
	}

	s.logger.Info().Str("schedule", cronSpec).Msg("reconciliation schedule registered")
	return s, nil
}

// Start begins firing scheduled runs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	summary, err := s.service.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled reconciliation failed")
		return
	}

	s.logger.Info().
		Str("run_id", summary.RunID).
		Int("processed", summary.Processed).
		Int("updated", summary.Updated).
		Msg("scheduled reconciliation finished")
}
