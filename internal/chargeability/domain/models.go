package domain

import (
	"time"

	"github.com/google/uuid"
)

// VehicleChargeability is one cached (vehicle, zone) compliance fact. A nil
// Charge means the charge is undetermined for that zone: either the vehicle is
// exempt there or the compliance service reported it non-compliant everywhere.
type VehicleChargeability struct {
	VehicleID     uuid.UUID `gorm:"column:vehicle_id;primaryKey;type:uuid" json:"vehicle_id"`
	ZoneID        uuid.UUID `gorm:"column:zone_id;primaryKey;type:uuid" json:"zone_id"`
	Charge        *float64  `gorm:"column:charge;type:numeric(10,2)" json:"charge"`
	IsExempt      bool      `gorm:"column:is_exempt;not null" json:"is_exempt"`
	IsRetrofitted bool      `gorm:"column:is_retrofitted;not null" json:"is_retrofitted"`
	TariffCode    *string   `gorm:"column:tariff_code" json:"tariff_code"`
	RefreshedAt   time.Time `gorm:"column:refreshed_at;not null" json:"-"`
}

func (VehicleChargeability) TableName() string {
	return "vehicle_chargeability"
}
