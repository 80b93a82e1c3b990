package repository

import (
	"context"
	"time"

	"github.com/cazfleet/accounts/internal/chargeability/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// vehicleRow is the (id, vrn) projection shared by the selection queries.
type vehicleRow struct {
	ID  uuid.UUID `gorm:"column:id"`
	VRN string    `gorm:"column:vrn"`
}

const incompleteForAccountSQL = `
SELECT av.id, av.vrn
FROM account_vehicles av
LEFT JOIN vehicle_chargeability vc ON av.id = vc.vehicle_id
WHERE av.account_id = ?
GROUP BY av.id, av.vrn
HAVING COUNT(DISTINCT vc.zone_id) != ?
ORDER BY av.vrn ASC`

const incompleteSystemWideSQL = `
SELECT av.id, av.vrn
FROM account_vehicles av
LEFT JOIN vehicle_chargeability vc ON av.id = vc.vehicle_id
GROUP BY av.id, av.vrn
HAVING COUNT(DISTINCT vc.zone_id) != ?
ORDER BY av.vrn ASC`

const expiredSQL = `
SELECT DISTINCT av.id, av.vrn
FROM account_vehicles av
JOIN vehicle_chargeability vc ON av.id = vc.vehicle_id
WHERE vc.refreshed_at < ?
ORDER BY av.vrn ASC`

func (r *repo) FindIncompleteForAccount(ctx context.Context, db *gorm.DB, accountID uuid.UUID, zoneCount int) (domain.WorkingSet, error) {
	var rows []vehicleRow
	err := db.WithContext(ctx).Raw(incompleteForAccountSQL, accountID, zoneCount).Scan(&rows).Error
	if err != nil {
		return domain.WorkingSet{}, err
	}
	return toWorkingSet(rows), nil
}

func (r *repo) FindIncompleteOrExpired(ctx context.Context, db *gorm.DB, zoneCount int, expiredBefore time.Time) (domain.WorkingSet, error) {
	var incomplete []vehicleRow
	err := db.WithContext(ctx).Raw(incompleteSystemWideSQL, zoneCount).Scan(&incomplete).Error
	if err != nil {
		return domain.WorkingSet{}, err
	}

	var expired []vehicleRow
	err = db.WithContext(ctx).Raw(expiredSQL, expiredBefore).Scan(&expired).Error
	if err != nil {
		return domain.WorkingSet{}, err
	}

	// NewWorkingSet de-duplicates by vehicle id, keeping first occurrence.
	return toWorkingSet(append(incomplete, expired...)), nil
}

func (r *repo) DeleteByVehicleIDs(ctx context.Context, db *gorm.DB, vehicleIDs []uuid.UUID) error {
	if len(vehicleIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("vehicle_id IN ?", vehicleIDs).
		Delete(&domain.VehicleChargeability{}).Error
}

func (r *repo) SaveAll(ctx context.Context, db *gorm.DB, entries []domain.VehicleChargeability) error {
	if len(entries) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&entries).Error
}

func (r *repo) FindByVehicleIDs(ctx context.Context, db *gorm.DB, vehicleIDs []uuid.UUID) ([]domain.VehicleChargeability, error) {
	if len(vehicleIDs) == 0 {
		return nil, nil
	}
	var entries []domain.VehicleChargeability
	err := db.WithContext(ctx).
		Where("vehicle_id IN ?", vehicleIDs).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func toWorkingSet(rows []vehicleRow) domain.WorkingSet {
	vehicles := make([]domain.VehicleToCompute, 0, len(rows))
	for _, row := range rows {
		vehicles = append(vehicles, domain.VehicleToCompute{VehicleID: row.ID, VRN: row.VRN})
	}
	return domain.NewWorkingSet(vehicles)
}
