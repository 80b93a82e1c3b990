package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Zone is one clean air zone known to the compliance service. The zone set is
// fetched fresh per orchestration run; zones can be added or retired between
// runs.
type Zone struct {
	ID   uuid.UUID `json:"cleanAirZoneId"`
	Name string    `json:"name"`
}

// ZoneOutcome is a computed charge for one zone the vehicle is compliant in.
type ZoneOutcome struct {
	ZoneID     uuid.UUID `json:"cleanAirZoneId"`
	Charge     float64   `json:"charge"`
	TariffCode string    `json:"tariffCode"`
}

// Outcome is the compliance result for one vehicle. An empty Outcomes list
// means the vehicle is non-compliant in every zone: chargeable everywhere with
// no charge amount known. That is distinct from the vehicle being absent from
// the response entirely.
type Outcome struct {
	RegistrationNumber string        `json:"registrationNumber"`
	VehicleType        string        `json:"vehicleType,omitempty"`
	IsExempt           bool          `json:"isExempt"`
	IsRetrofitted      bool          `json:"isRetrofitted"`
	Outcomes           []ZoneOutcome `json:"complianceOutcomes"`
}

// Client calls the external compliance-calculation service.
type Client interface {
	CleanAirZones(ctx context.Context) ([]Zone, error)
	BulkCompliance(ctx context.Context, vrns []string) ([]Outcome, error)
}

// ServiceError is a non-success response from the compliance service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("compliance service returned %d: %s", e.StatusCode, e.Body)
}
