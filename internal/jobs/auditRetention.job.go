package jobs

import (
	"context"
	"time"

	"pms/internal/repositories"
	"pms/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// AuditRetentionJob prunes status history entries older than each property's
// retention window. This is the audit trail's only delete path.
type AuditRetentionJob struct {
	settings     repositories.PropertySettingsRepository
	history      repositories.StatusHistoryRepository
	transactions *services.TransactionService
	log          logger.Logger
	schedule     services.Schedule
}

func NewAuditRetentionJob(
	settings repositories.PropertySettingsRepository,
	history repositories.StatusHistoryRepository,
	transactions *services.TransactionService,
	schedule services.Schedule,
) *AuditRetentionJob {
	log := logger.New("auditRetentionJob")
	log.Info("Creating new audit retention job", "schedule", schedule)

	return &AuditRetentionJob{
		settings:     settings,
		history:      history,
		transactions: transactions,
		log:          log,
		schedule:     schedule,
	}
}

func (j *AuditRetentionJob) Name() string {
	return "AuditLogRetention"
}

func (j *AuditRetentionJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting audit log retention pruning")

	return j.transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		propertyIDs, err := j.settings.ListPropertyIDs(ctx, tx)
		if err != nil {
			return log.Err("failed to list properties", err)
		}

		var pruned int64
		for _, propertyID := range propertyIDs {
			config, err := j.settings.GetAutomationConfig(ctx, tx, propertyID)
			if err != nil {
				log.Er("failed to load config, skipping property", err, "propertyID", propertyID)
				continue
			}

			if config.AuditLogRetentionDays <= 0 {
				continue
			}

			cutoff := time.Now().UTC().AddDate(0, 0, -config.AuditLogRetentionDays)
			rows, err := j.history.PruneOlderThan(ctx, tx, propertyID, cutoff)
			if err != nil {
				log.Er("failed to prune history, skipping property", err, "propertyID", propertyID)
				continue
			}
			pruned += rows
		}

		log.Info("Audit log retention pruning completed", "rowsPruned", pruned)
		return nil
	})
}

func (j *AuditRetentionJob) Schedule() services.Schedule {
	return j.schedule
}
