package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// TravelDirection steers keyset pagination relative to the anchor VRN.
type TravelDirection string

const (
	DirectionNext     TravelDirection = "NEXT"
	DirectionPrevious TravelDirection = "PREVIOUS"
)

// ParseTravelDirection rejects anything but NEXT and PREVIOUS; an unknown
// direction is a caller programming error and is never silently defaulted.
func ParseTravelDirection(raw string) (TravelDirection, error) {
	switch TravelDirection(raw) {
	case DirectionNext:
		return DirectionNext, nil
	case DirectionPrevious:
		return DirectionPrevious, nil
	default:
		return "", ErrInvalidDirection
	}
}

type ListRequest struct {
	AccountID      uuid.UUID
	Query          string
	PageNumber     int
	PageSize       int
	OnlyChargeable bool
}

// VehiclePage is one offset page of chargeability-enriched vehicles.
// AnyUndetermined reports whether any vehicle of the account still has an
// undetermined charge somewhere, independent of the page contents.
type VehiclePage struct {
	Vehicles        []AccountVehicle `json:"vehicles"`
	TotalCount      int64            `json:"total_count"`
	TotalPages      int              `json:"total_pages"`
	AnyUndetermined bool             `json:"any_undetermined_vehicles"`
}

type CursorListRequest struct {
	AccountID uuid.UUID
	PageSize  int
	AnchorVRN string
	Direction TravelDirection
	ZoneID    *uuid.UUID
}

type Service interface {
	List(ctx context.Context, req ListRequest) (VehiclePage, error)
	ListWithCursor(ctx context.Context, req CursorListRequest) ([]AccountVehicle, error)
	Create(ctx context.Context, accountID uuid.UUID, vrn string) (AccountVehicle, error)
	Get(ctx context.Context, accountID uuid.UUID, vrn string) (AccountVehicle, error)
	Delete(ctx context.Context, accountID uuid.UUID, vrn string) error
}

var (
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrVehicleNotFound      = errors.New("vehicle_not_found")
	ErrVehicleAlreadyExists = errors.New("vehicle_already_exists")
	ErrPageOutOfBounds      = errors.New("page_out_of_bounds")
	ErrInvalidDirection     = errors.New("invalid_travel_direction")
	ErrInvalidVRN           = errors.New("invalid_vrn")
)
