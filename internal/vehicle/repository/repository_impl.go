package repository

import (
	"context"
	"sort"

	"github.com/cazfleet/accounts/internal/vehicle/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, vehicle *domain.AccountVehicle) error {
	return db.WithContext(ctx).Create(vehicle).Error
}

func (r *repo) FindByAccountAndVRN(ctx context.Context, db *gorm.DB, accountID uuid.UUID, vrn string) (*domain.AccountVehicle, error) {
	var vehicles []domain.AccountVehicle
	err := db.WithContext(ctx).
		Where("account_id = ? AND vrn = ?", accountID, vrn).
		Limit(1).
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, nil
	}
	return &vehicles[0], nil
}

func (r *repo) DeleteByAccountAndVRN(ctx context.Context, db *gorm.DB, accountID uuid.UUID, vrn string) error {
	return db.WithContext(ctx).
		Where("account_id = ? AND vrn = ?", accountID, vrn).
		Delete(&domain.AccountVehicle{}).Error
}

func (r *repo) ListPage(ctx context.Context, db *gorm.DB, accountID uuid.UUID, filter domain.ListFilter, pageNumber, pageSize int) ([]domain.AccountVehicle, int64, error) {
	var total int64
	err := r.pageQuery(ctx, db, accountID, filter).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var vehicles []domain.AccountVehicle
	err = r.pageQuery(ctx, db, accountID, filter).
		Order("vrn asc").
		Limit(pageSize).
		Offset(pageNumber * pageSize).
		Find(&vehicles).Error
	if err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

func (r *repo) pageQuery(ctx context.Context, db *gorm.DB, accountID uuid.UUID, filter domain.ListFilter) *gorm.DB {
	stmt := db.WithContext(ctx).
		Model(&domain.AccountVehicle{}).
		Where("account_id = ?", accountID)
	if filter.Query != "" {
		stmt = stmt.Where("vrn LIKE ?", "%"+filter.Query+"%")
	}
	if filter.OnlyChargeable {
		stmt = stmt.Where("id IN (SELECT vehicle_id FROM vehicle_chargeability WHERE charge IS NOT NULL)")
	}
	return stmt
}

func (r *repo) ListFirst(ctx context.Context, db *gorm.DB, accountID uuid.UUID, limit int, zoneID *uuid.UUID) ([]domain.AccountVehicle, error) {
	var vehicles []domain.AccountVehicle
	err := r.keysetQuery(ctx, db, accountID, zoneID).
		Order("vrn asc").
		Limit(limit).
		Find(&vehicles).Error
	return vehicles, err
}

func (r *repo) ListAfter(ctx context.Context, db *gorm.DB, accountID uuid.UUID, anchorVRN string, limit int, zoneID *uuid.UUID) ([]domain.AccountVehicle, error) {
	var vehicles []domain.AccountVehicle
	err := r.keysetQuery(ctx, db, accountID, zoneID).
		Where("vrn > ?", anchorVRN).
		Order("vrn asc").
		Limit(limit).
		Find(&vehicles).Error
	return vehicles, err
}

// ListBefore walks backwards from the anchor but returns the page in
// ascending order.
func (r *repo) ListBefore(ctx context.Context, db *gorm.DB, accountID uuid.UUID, anchorVRN string, limit int, zoneID *uuid.UUID) ([]domain.AccountVehicle, error) {
	var vehicles []domain.AccountVehicle
	err := r.keysetQuery(ctx, db, accountID, zoneID).
		Where("vrn < ?", anchorVRN).
		Order("vrn desc").
		Limit(limit).
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].VRN < vehicles[j].VRN })
	return vehicles, nil
}

func (r *repo) keysetQuery(ctx context.Context, db *gorm.DB, accountID uuid.UUID, zoneID *uuid.UUID) *gorm.DB {
	stmt := db.WithContext(ctx).
		Model(&domain.AccountVehicle{}).
		Where("account_id = ?", accountID)
	if zoneID != nil {
		stmt = stmt.Where(
			"id IN (SELECT vehicle_id FROM vehicle_chargeability WHERE zone_id = ? AND charge IS NOT NULL AND charge > 0)",
			*zoneID,
		)
	}
	return stmt
}

const countUndeterminedSQL = `
SELECT COUNT(DISTINCT av.id)
FROM account_vehicles av
LEFT JOIN vehicle_chargeability vc ON av.id = vc.vehicle_id
WHERE av.account_id = ? AND vc.charge IS NULL`

func (r *repo) CountUndetermined(ctx context.Context, db *gorm.DB, accountID uuid.UUID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(countUndeterminedSQL, accountID).Scan(&count).Error
	return count, err
}

func (r *repo) UpdateVehicleType(ctx context.Context, db *gorm.DB, vehicleID uuid.UUID, vehicleType string) error {
	return db.WithContext(ctx).
		Model(&domain.AccountVehicle{}).
		Where("id = ?", vehicleID).
		Update("vehicle_type", vehicleType).Error
}
