package service

import (
	"context"
	"time"

	"github.com/cazfleet/accounts/internal/chargeability/domain"
	"github.com/cazfleet/accounts/internal/clock"
	compliancedomain "github.com/cazfleet/accounts/internal/compliance/domain"
	"github.com/cazfleet/accounts/internal/config"
	obsmetrics "github.com/cazfleet/accounts/internal/observability/metrics"
	vehicledomain "github.com/cazfleet/accounts/internal/vehicle/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	triggerAccountPopulate = "account_populate"
	triggerRefresh         = "refresh"
	triggerSingleVehicle   = "single_vehicle"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Charging   *config.ChargingConfigHolder
	Repo       domain.Repository
	Vehicles   vehicledomain.Repository
	Compliance compliancedomain.Client
}

// Service drives the chargeability cache: it selects the vehicles that need
// recomputation, splits them into compliance-API-sized batches and replaces
// their cached rows batch by batch. One invocation runs inside one database
// transaction; an external-service failure is converted to a result value
// inside that boundary, so sub-batches committed before the failing call stay
// persisted.
type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	charging   *config.ChargingConfigHolder
	repo       domain.Repository
	vehicles   vehicledomain.Repository
	compliance compliancedomain.Client
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("chargeability.service"),
		clock:      p.Clock,
		charging:   p.Charging,
		repo:       p.Repo,
		vehicles:   p.Vehicles,
		compliance: p.Compliance,
	}
}

// PopulateForAccount recomputes the cache for up to maxVehicles of one
// account's vehicles that do not have a complete cache in every zone.
func (s *Service) PopulateForAccount(ctx context.Context, accountID uuid.UUID, maxVehicles int) (domain.PopulationResult, error) {
	return s.run(ctx, triggerAccountPopulate, func(ctx context.Context, tx *gorm.DB, zones []compliancedomain.Zone) (domain.PopulationResult, error) {
		all, err := s.repo.FindIncompleteForAccount(ctx, tx, accountID, len(zones))
		if err != nil {
			return "", err
		}
		return s.process(ctx, tx, all, maxVehicles, zones)
	})
}

// Refresh recomputes the cache system-wide for up to maxVehicles vehicles that
// are incomplete or whose entries are older than expiryDays.
func (s *Service) Refresh(ctx context.Context, maxVehicles int, expiryDays int) (domain.PopulationResult, error) {
	return s.run(ctx, triggerRefresh, func(ctx context.Context, tx *gorm.DB, zones []compliancedomain.Zone) (domain.PopulationResult, error) {
		expiredBefore := s.clock.Now().AddDate(0, 0, -expiryDays)
		all, err := s.repo.FindIncompleteOrExpired(ctx, tx, len(zones), expiredBefore)
		if err != nil {
			return "", err
		}
		return s.process(ctx, tx, all, maxVehicles, zones)
	})
}

// PopulateSingle synchronously computes the cache for one vehicle in all
// zones, bypassing the selection query. Used on the "vehicle just added" path
// so the caller gets an immediate, consistent answer.
func (s *Service) PopulateSingle(ctx context.Context, vehicleID uuid.UUID, vrn string) (domain.PopulationResult, error) {
	return s.run(ctx, triggerSingleVehicle, func(ctx context.Context, tx *gorm.DB, zones []compliancedomain.Zone) (domain.PopulationResult, error) {
		return s.process(ctx, tx, domain.SingleVehicleWorkingSet(vehicleID, vrn), 0, zones)
	})
}

// run fetches the zone set fresh, then executes fn inside one transaction.
// Zone-fetch failure is an external-service outcome like any other compliance
// call failure.
func (s *Service) run(
	ctx context.Context,
	trigger string,
	fn func(ctx context.Context, tx *gorm.DB, zones []compliancedomain.Zone) (domain.PopulationResult, error),
) (domain.PopulationResult, error) {
	start := s.clock.Now()
	m := obsmetrics.Chargeability()

	zones, err := s.compliance.CleanAirZones(ctx)
	if err != nil {
		s.log.Error("fetching clean air zones failed",
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		m.IncRun(trigger, string(domain.ExternalServiceCallError))
		return domain.ExternalServiceCallError, nil
	}

	var result domain.PopulationResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = fn(ctx, tx, zones)
		return err
	})
	if err != nil {
		return "", err
	}

	m.IncRun(trigger, string(result))
	m.ObserveRun(s.clock.Now().Sub(start))
	return result, nil
}

// process is the shared routine over a selected working set. maxVehicles
// bounds the total work of this invocation (zero or negative means no limit);
// the configured bulk-check batch size bounds one external call. The
// "still not finished" signal is computed from the pre-cap selection size, not
// from re-querying after the run.
func (s *Service) process(
	ctx context.Context,
	tx *gorm.DB,
	all domain.WorkingSet,
	maxVehicles int,
	zones []compliancedomain.Zone,
) (domain.PopulationResult, error) {
	if all.IsEmpty() {
		return domain.AllRecordsCached, nil
	}

	toProcess := all
	if maxVehicles > 0 {
		toProcess = all.Truncate(maxVehicles)
	}

	batchSize := s.charging.Get().BulkCheckBatchSize
	for _, batch := range toProcess.Batches(batchSize) {
		done, err := s.computeBatch(ctx, tx, batch, zones)
		if err != nil {
			return "", err
		}
		if !done {
			return domain.ExternalServiceCallError, nil
		}
	}

	if maxVehicles > 0 && all.Size() > maxVehicles {
		return domain.ProcessedBatchButStillNotFinished, nil
	}
	return domain.AllRecordsCached, nil
}

// computeBatch replaces the cached rows of one sub-batch: delete any existing
// rows for its vehicles (a previous partial run may have left stale ones),
// bulk-check its plates, translate the outcomes and save. Returns done=false
// when the external call failed.
func (s *Service) computeBatch(
	ctx context.Context,
	tx *gorm.DB,
	batch domain.WorkingSet,
	zones []compliancedomain.Zone,
) (bool, error) {
	if err := s.repo.DeleteByVehicleIDs(ctx, tx, batch.VehicleIDs()); err != nil {
		return false, err
	}

	obsmetrics.Chargeability().IncBatch()
	outcomes, err := s.compliance.BulkCompliance(ctx, batch.VRNs())
	if err != nil {
		s.log.Error("bulk compliance check failed",
			zap.Int("batch_size", batch.Size()),
			zap.Error(err),
		)
		return false, nil
	}

	now := s.clock.Now()
	entries := make([]domain.VehicleChargeability, 0, len(outcomes)*len(zones))
	for _, outcome := range outcomes {
		vehicleID, err := batch.VehicleIDFor(outcome.RegistrationNumber)
		if err != nil {
			return false, err
		}

		// The compliance service reports the vehicle type as a side effect;
		// record it while we are here.
		if outcome.VehicleType != "" {
			if err := s.vehicles.UpdateVehicleType(ctx, tx, vehicleID, outcome.VehicleType); err != nil {
				return false, err
			}
		}

		entries = append(entries, buildEntries(vehicleID, outcome, zones, now)...)
	}

	return true, s.repo.SaveAll(ctx, tx, entries)
}

// buildEntries translates one compliance outcome into cache rows. An empty
// per-zone list encodes "non-compliant in every zone": one row per known zone
// with an undetermined charge, so the vehicle reads as chargeable everywhere
// rather than still unknown.
func buildEntries(
	vehicleID uuid.UUID,
	outcome compliancedomain.Outcome,
	zones []compliancedomain.Zone,
	now time.Time,
) []domain.VehicleChargeability {
	if len(outcome.Outcomes) == 0 {
		entries := make([]domain.VehicleChargeability, 0, len(zones))
		for _, zone := range zones {
			entries = append(entries, domain.VehicleChargeability{
				VehicleID:   vehicleID,
				ZoneID:      zone.ID,
				RefreshedAt: now,
			})
		}
		return entries
	}

	entries := make([]domain.VehicleChargeability, 0, len(outcome.Outcomes))
	for _, zoneOutcome := range outcome.Outcomes {
		charge := zoneOutcome.Charge
		entry := domain.VehicleChargeability{
			VehicleID:     vehicleID,
			ZoneID:        zoneOutcome.ZoneID,
			Charge:        &charge,
			IsExempt:      outcome.IsExempt,
			IsRetrofitted: outcome.IsRetrofitted,
			RefreshedAt:   now,
		}
		if zoneOutcome.TariffCode != "" {
			tariff := zoneOutcome.TariffCode
			entry.TariffCode = &tariff
		}
		entries = append(entries, entry)
	}
	return entries
}
