package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// PopulationResult is the tagged outcome of one cache population run. The
// external-call failure path is a value, not an error, so batch-boundary
// commit semantics stay explicit: sub-batches committed before the failing
// call remain persisted.
type PopulationResult string

const (
	// AllRecordsCached means no vehicle in scope still needs computation.
	AllRecordsCached PopulationResult = "ALL_RECORDS_CACHED"
	// ProcessedBatchButStillNotFinished means the capped run completed but the
	// pre-cap selection was larger than the cap; callers re-invoke to continue.
	ProcessedBatchButStillNotFinished PopulationResult = "PROCESSED_BATCH_BUT_STILL_NOT_FINISHED"
	// ExternalServiceCallError means a compliance-service call failed and the
	// run aborted. Partial progress may have been committed.
	ExternalServiceCallError PopulationResult = "EXTERNAL_SERVICE_CALL_EXCEPTION"
)

// Service computes and caches per-zone chargeability for fleet vehicles.
// maxVehicles bounds the total work of one invocation; zero or negative means
// no limit. The returned error carries infrastructure failures only.
type Service interface {
	PopulateForAccount(ctx context.Context, accountID uuid.UUID, maxVehicles int) (PopulationResult, error)
	Refresh(ctx context.Context, maxVehicles int, expiryDays int) (PopulationResult, error)
	PopulateSingle(ctx context.Context, vehicleID uuid.UUID, vrn string) (PopulationResult, error)
}

var ErrNoMatchingVehicle = errors.New("no_matching_vehicle")
