package domain

import (
	"time"

	chargeabilitydomain "github.com/cazfleet/accounts/internal/chargeability/domain"
	"github.com/google/uuid"
)

// AccountVehicle is a vehicle registered to a fleet account. VRN is unique
// within an account, not system-wide. VehicleType is populated as a side
// effect of chargeability computation once the compliance service reports it.
type AccountVehicle struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	AccountID   uuid.UUID `gorm:"column:account_id;not null;type:uuid;uniqueIndex:idx_account_vehicles_account_vrn" json:"account_id"`
	VRN         string    `gorm:"column:vrn;not null;uniqueIndex:idx_account_vehicles_account_vrn" json:"vrn"`
	VehicleType *string   `gorm:"column:vehicle_type" json:"vehicle_type,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`

	// Chargeability is attached by the listing layer in a second query keyed
	// by the page's vehicle ids; it is not a persisted relation.
	Chargeability []chargeabilitydomain.VehicleChargeability `gorm:"-" json:"chargeability,omitempty"`
}

func (AccountVehicle) TableName() string {
	return "account_vehicles"
}
