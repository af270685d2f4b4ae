package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hazina/sacco-engine/internal/config"
	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/internal/repository"
)

// MaintenanceService hosts the periodic jobs run by the scheduler binary.
type MaintenanceService struct {
	uow        repository.UnitOfWork
	apps       repository.LoanApplicationRepository
	guarantees repository.GuaranteeRequestRepository
	redis      *redis.Client
	config     *config.Config
}

func NewMaintenanceService(
	uow repository.UnitOfWork,
	apps repository.LoanApplicationRepository,
	guarantees repository.GuaranteeRequestRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *MaintenanceService {
	return &MaintenanceService{
		uow:        uow,
		apps:       apps,
		guarantees: guarantees,
		redis:      redisClient,
		config:     cfg,
	}
}

// RemindStaleGuaranteeRequests publishes a reminder event for every Pending
// guarantee request older than the configured age. Delivery is the
// notification layer's problem; this job only emits.
func (s *MaintenanceService) RemindStaleGuaranteeRequests(ctx context.Context) error {
	cutoff := time.Now().Add(-s.config.GetReminderAge())

	stale, err := s.guarantees.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, request := range stale {
		publishEvent(ctx, s.redis, s.config.Business.NotificationChannel, Event{
			Type:      "guarantee_request.reminder",
			Reference: request.Reference,
			Member:    request.Guarantor,
		})
	}

	zap.S().Infow("guarantee request reminders published", "count", len(stale))
	return nil
}

// RefreshCoverageSnapshots re-evaluates the advisory coverage columns of
// In Progress applications, since savings balances drift between member
// actions. Status never changes here; transitions only happen in response to
// actor events under the same lock.
func (s *MaintenanceService) RefreshCoverageSnapshots(ctx context.Context) error {
	apps, err := s.apps.ListByStatus(ctx, domain.StatusInProgress)
	if err != nil {
		return err
	}

	refreshed := 0
	for _, stale := range apps {
		err := s.uow.WithinApplicationTx(ctx, stale.Reference, func(r repository.Repos, app *domain.LoanApplication) error {
			if app.Status != domain.StatusInProgress {
				return nil
			}
			if err := recomputeCoverage(ctx, r, app); err != nil {
				return err
			}
			return r.Applications.Update(ctx, app)
		})
		if err != nil {
			zap.S().Warnw("coverage snapshot refresh failed", "reference", stale.Reference, "error", err)
			continue
		}

		cacheInvalidate(ctx, s.redis, applicationCacheKey(stale.Reference))
		refreshed++
	}

	zap.S().Infow("coverage snapshots refreshed", "count", refreshed)
	return nil
}
