package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows offset-paged vehicle listings. Query is a VRN substring;
// OnlyChargeable keeps vehicles with at least one non-null cached charge.
type ListFilter struct {
	Query          string
	OnlyChargeable bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vehicle *AccountVehicle) error
	FindByAccountAndVRN(ctx context.Context, db *gorm.DB, accountID uuid.UUID, vrn string) (*AccountVehicle, error)
	DeleteByAccountAndVRN(ctx context.Context, db *gorm.DB, accountID uuid.UUID, vrn string) error

	// ListPage returns one offset page sorted by VRN ascending plus the total
	// row count for the filter.
	ListPage(ctx context.Context, db *gorm.DB, accountID uuid.UUID, filter ListFilter, pageNumber, pageSize int) ([]AccountVehicle, int64, error)

	// Keyset queries, all sorted by VRN ascending and optionally restricted to
	// vehicles chargeable in one zone. ListBefore returns the page of VRNs
	// strictly less than the anchor, still in ascending order.
	ListFirst(ctx context.Context, db *gorm.DB, accountID uuid.UUID, limit int, zoneID *uuid.UUID) ([]AccountVehicle, error)
	ListAfter(ctx context.Context, db *gorm.DB, accountID uuid.UUID, anchorVRN string, limit int, zoneID *uuid.UUID) ([]AccountVehicle, error)
	ListBefore(ctx context.Context, db *gorm.DB, accountID uuid.UUID, anchorVRN string, limit int, zoneID *uuid.UUID) ([]AccountVehicle, error)

	// CountUndetermined counts the account's vehicles that still have a
	// null or missing charge in some zone.
	CountUndetermined(ctx context.Context, db *gorm.DB, accountID uuid.UUID) (int64, error)

	UpdateVehicleType(ctx context.Context, db *gorm.DB, vehicleID uuid.UUID, vehicleType string) error
}
