package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the persistence boundary for chargeability rows. The two find
// queries return the same WorkingSet shape so callers can treat the
// account-scoped and system-wide entry points uniformly; both report vehicles
// with no rows at all, which are trivially incomplete. Results are ordered by
// VRN ascending so batch splits are deterministic.
type Repository interface {
	// FindIncompleteForAccount returns the account's vehicles whose cached
	// entry count is less than zoneCount.
	FindIncompleteForAccount(ctx context.Context, db *gorm.DB, accountID uuid.UUID, zoneCount int) (WorkingSet, error)

	// FindIncompleteOrExpired returns, system-wide, vehicles whose entry count
	// is less than zoneCount or that have any entry refreshed before
	// expiredBefore.
	FindIncompleteOrExpired(ctx context.Context, db *gorm.DB, zoneCount int, expiredBefore time.Time) (WorkingSet, error)

	// DeleteByVehicleIDs removes every chargeability row for the given
	// vehicles. Empty input is a no-op, not an error.
	DeleteByVehicleIDs(ctx context.Context, db *gorm.DB, vehicleIDs []uuid.UUID) error

	// SaveAll bulk-inserts freshly computed rows. Deletion always precedes it
	// for the same vehicles within one orchestration step.
	SaveAll(ctx context.Context, db *gorm.DB, entries []VehicleChargeability) error

	// FindByVehicleIDs loads the cached rows for the given vehicles, used to
	// enrich listing pages.
	FindByVehicleIDs(ctx context.Context, db *gorm.DB, vehicleIDs []uuid.UUID) ([]VehicleChargeability, error)
}
