package domain

import (
	"strings"

	"github.com/google/uuid"
)

// VehicleToCompute pairs a vehicle id with its VRN for one recomputation run.
type VehicleToCompute struct {
	VehicleID uuid.UUID
	VRN       string
}

// WorkingSet is the set of vehicles that need a chargeability recomputation.
// Membership is unique by vehicle id and iteration follows insertion order, so
// batch contents are deterministic for a given selection query.
type WorkingSet struct {
	vehicles []VehicleToCompute
}

func NewWorkingSet(vehicles []VehicleToCompute) WorkingSet {
	seen := make(map[uuid.UUID]struct{}, len(vehicles))
	deduped := make([]VehicleToCompute, 0, len(vehicles))
	for _, v := range vehicles {
		if _, ok := seen[v.VehicleID]; ok {
			continue
		}
		seen[v.VehicleID] = struct{}{}
		deduped = append(deduped, v)
	}
	return WorkingSet{vehicles: deduped}
}

// SingleVehicleWorkingSet builds a one-element set for the synchronous
// "vehicle just added" path.
func SingleVehicleWorkingSet(vehicleID uuid.UUID, vrn string) WorkingSet {
	return WorkingSet{vehicles: []VehicleToCompute{{VehicleID: vehicleID, VRN: vrn}}}
}

func (s WorkingSet) Size() int {
	return len(s.vehicles)
}

func (s WorkingSet) IsEmpty() bool {
	return len(s.vehicles) == 0
}

// VehicleIDs projects the set to its vehicle ids, in insertion order.
func (s WorkingSet) VehicleIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		ids = append(ids, v.VehicleID)
	}
	return ids
}

// VRNs projects the set to its plate numbers, in insertion order.
func (s WorkingSet) VRNs() []string {
	vrns := make([]string, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		vrns = append(vrns, v.VRN)
	}
	return vrns
}

// Truncate keeps the first limit members.
func (s WorkingSet) Truncate(limit int) WorkingSet {
	if limit >= len(s.vehicles) {
		return s
	}
	return WorkingSet{vehicles: s.vehicles[:limit]}
}

// Batches partitions the set into sub-sets of at most size members,
// preserving insertion order.
func (s WorkingSet) Batches(size int) []WorkingSet {
	if size <= 0 || len(s.vehicles) == 0 {
		return nil
	}
	batches := make([]WorkingSet, 0, (len(s.vehicles)+size-1)/size)
	for start := 0; start < len(s.vehicles); start += size {
		end := start + size
		if end > len(s.vehicles) {
			end = len(s.vehicles)
		}
		batches = append(batches, WorkingSet{vehicles: s.vehicles[start:end]})
	}
	return batches
}

// VehicleIDFor reverse-looks-up the vehicle id for a VRN. The mapping is only
// valid within the set that produced it: VRNs are unique per account, not
// system-wide, so this must never be promoted to a cross-set cache.
func (s WorkingSet) VehicleIDFor(vrn string) (uuid.UUID, error) {
	normalized := normalizeVRN(vrn)
	for _, v := range s.vehicles {
		if normalizeVRN(v.VRN) == normalized {
			return v.VehicleID, nil
		}
	}
	return uuid.Nil, ErrNoMatchingVehicle
}

// normalizeVRN trims whitespace, lowercases and strips leading zeros before
// comparison, matching the registration formats the compliance service echoes
// back.
func normalizeVRN(vrn string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(vrn)), "0")
}
