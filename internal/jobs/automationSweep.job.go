package jobs

import (
	"context"

	"pms/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// AutomationSweepJob runs the reservation automation sweep on every scheduler
// tick. The sweep itself isolates per-reservation and per-property failures,
// so this job only reports whether the pass as a whole could run.
type AutomationSweepJob struct {
	automation *services.AutomationService
	log        logger.Logger
	schedule   services.Schedule
}

func NewAutomationSweepJob(
	automation *services.AutomationService,
	schedule services.Schedule,
) *AutomationSweepJob {
	log := logger.New("automationSweepJob")
	log.Info("Creating new automation sweep job", "schedule", schedule)

	return &AutomationSweepJob{
		automation: automation,
		log:        log,
		schedule:   schedule,
	}
}

func (j *AutomationSweepJob) Name() string {
	return "ReservationAutomationSweep"
}

func (j *AutomationSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting reservation automation sweep")

	if err := j.automation.RunAllSweeps(ctx); err != nil {
		return log.Err("automation sweep failed", err)
	}

	log.Info("Reservation automation sweep completed")
	return nil
}

func (j *AutomationSweepJob) Schedule() services.Schedule {
	return j.schedule
}
