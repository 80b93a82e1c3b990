package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	accountdomain "github.com/cazfleet/accounts/internal/account/domain"
	accountrepository "github.com/cazfleet/accounts/internal/account/repository"
	chargeabilitydomain "github.com/cazfleet/accounts/internal/chargeability/domain"
	chargeabilityrepository "github.com/cazfleet/accounts/internal/chargeability/repository"
	"github.com/cazfleet/accounts/internal/vehicle/domain"
	"github.com/cazfleet/accounts/internal/vehicle/repository"
)

// chargeabilityStub records the synchronous populate calls made on the
// vehicle-creation path.
type chargeabilityStub struct {
	populated []string
	result    chargeabilitydomain.PopulationResult
	err       error
}

func (s *chargeabilityStub) PopulateForAccount(ctx context.Context, accountID uuid.UUID, maxVehicles int) (chargeabilitydomain.PopulationResult, error) {
	return s.result, s.err
}

func (s *chargeabilityStub) Refresh(ctx context.Context, maxVehicles, expiryDays int) (chargeabilitydomain.PopulationResult, error) {
	return s.result, s.err
}

func (s *chargeabilityStub) PopulateSingle(ctx context.Context, vehicleID uuid.UUID, vrn string) (chargeabilitydomain.PopulationResult, error) {
	s.populated = append(s.populated, vrn)
	if s.err != nil {
		return "", s.err
	}
	if s.result == "" {
		return chargeabilitydomain.AllRecordsCached, nil
	}
	return s.result, nil
}

type fixture struct {
	db        *gorm.DB
	svc       domain.Service
	stub      *chargeabilityStub
	cache     chargeabilitydomain.Repository
	accountID uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&domain.AccountVehicle{},
		&chargeabilitydomain.VehicleChargeability{},
	))

	accountID := uuid.New()
	require.NoError(t, accountrepository.Provide().Insert(context.Background(), db, &accountdomain.Account{
		ID:   accountID,
		Name: "Fleet Ltd",
	}))

	stub := &chargeabilityStub{}
	cache := chargeabilityrepository.Provide()
	svc := New(Params{
		DB:            db,
		Log:           zaptest.NewLogger(t),
		Repo:          repository.Provide(),
		Accounts:      accountrepository.Provide(),
		Cache:         cache,
		Chargeability: stub,
	})

	return &fixture{db: db, svc: svc, stub: stub, cache: cache, accountID: accountID}
}

func (f *fixture) addVehicle(t *testing.T, vrn string) domain.AccountVehicle {
	t.Helper()
	v := domain.AccountVehicle{
		ID:        uuid.New(),
		AccountID: f.accountID,
		VRN:       vrn,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&v).Error)
	return v
}

func (f *fixture) cacheRow(t *testing.T, vehicleID, zoneID uuid.UUID, charge *float64) {
	t.Helper()
	require.NoError(t, f.db.Create(&chargeabilitydomain.VehicleChargeability{
		VehicleID:   vehicleID,
		ZoneID:      zoneID,
		Charge:      charge,
		RefreshedAt: time.Now().UTC(),
	}).Error)
}

func floatPtr(v float64) *float64 { return &v }

func vrns(vehicles []domain.AccountVehicle) []string {
	out := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, v.VRN)
	}
	return out
}

func TestListPagesInVRNOrder(t *testing.T) {
	f := setup(t)
	zone := uuid.New()
	for _, vrn := range []string{"VRN3", "VRN1", "VRN5", "VRN2", "VRN4"} {
		v := f.addVehicle(t, vrn)
		f.cacheRow(t, v.ID, zone, floatPtr(12.0))
	}

	page, err := f.svc.List(context.Background(), domain.ListRequest{
		AccountID:  f.accountID,
		PageNumber: 0,
		PageSize:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN1", "VRN2"}, vrns(page.Vehicles))
	assert.Equal(t, int64(5), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.AnyUndetermined)

	page, err = f.svc.List(context.Background(), domain.ListRequest{
		AccountID:  f.accountID,
		PageNumber: 2,
		PageSize:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN5"}, vrns(page.Vehicles))
}

func TestListPageOutOfBounds(t *testing.T) {
	f := setup(t)
	f.addVehicle(t, "VRN1")

	_, err := f.svc.List(context.Background(), domain.ListRequest{
		AccountID:  f.accountID,
		PageNumber: 1,
		PageSize:   10,
	})
	assert.ErrorIs(t, err, domain.ErrPageOutOfBounds)

	// Page zero of an empty account is a valid empty page.
	empty := setup(t)
	page, err := empty.svc.List(context.Background(), domain.ListRequest{
		AccountID:  empty.accountID,
		PageNumber: 0,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Vehicles)
	assert.Equal(t, 0, page.TotalPages)
}

func TestListReportsUndeterminedVehicles(t *testing.T) {
	f := setup(t)
	zone := uuid.New()

	determined := f.addVehicle(t, "VRN1")
	f.cacheRow(t, determined.ID, zone, floatPtr(12.0))
	undetermined := f.addVehicle(t, "VRN2")
	f.cacheRow(t, undetermined.ID, zone, nil)

	page, err := f.svc.List(context.Background(), domain.ListRequest{
		AccountID: f.accountID,
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.True(t, page.AnyUndetermined)

	// The flag is account-wide even when filters exclude the vehicle.
	page, err = f.svc.List(context.Background(), domain.ListRequest{
		AccountID: f.accountID,
		Query:     "VRN1",
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN1"}, vrns(page.Vehicles))
	assert.True(t, page.AnyUndetermined)
}

func TestListOnlyChargeableFilter(t *testing.T) {
	f := setup(t)
	zone := uuid.New()

	chargeable := f.addVehicle(t, "VRN1")
	f.cacheRow(t, chargeable.ID, zone, floatPtr(12.0))
	exempt := f.addVehicle(t, "VRN2")
	f.cacheRow(t, exempt.ID, zone, nil)
	f.addVehicle(t, "VRN3")

	page, err := f.svc.List(context.Background(), domain.ListRequest{
		AccountID:      f.accountID,
		PageSize:       10,
		OnlyChargeable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN1"}, vrns(page.Vehicles))
	assert.Equal(t, int64(1), page.TotalCount)
}

func TestListEnrichesWithCachedEntries(t *testing.T) {
	f := setup(t)
	zoneA := uuid.New()
	zoneB := uuid.New()

	v := f.addVehicle(t, "VRN1")
	f.cacheRow(t, v.ID, zoneA, floatPtr(12.0))
	f.cacheRow(t, v.ID, zoneB, nil)

	page, err := f.svc.List(context.Background(), domain.ListRequest{
		AccountID: f.accountID,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.Len(t, page.Vehicles, 1)
	assert.Len(t, page.Vehicles[0].Chargeability, 2)
}

func TestListUnknownAccount(t *testing.T) {
	f := setup(t)

	_, err := f.svc.List(context.Background(), domain.ListRequest{
		AccountID: uuid.New(),
		PageSize:  10,
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func cursorFixture(t *testing.T) *fixture {
	t.Helper()
	f := setup(t)
	zone := uuid.New()
	for _, vrn := range []string{"VRN1", "VRN2", "VRN3", "VRN4", "VRN5"} {
		v := f.addVehicle(t, vrn)
		f.cacheRow(t, v.ID, zone, floatPtr(12.0))
	}
	return f
}

func TestListWithCursorFirstPage(t *testing.T) {
	f := cursorFixture(t)

	vehicles, err := f.svc.ListWithCursor(context.Background(), domain.CursorListRequest{
		AccountID: f.accountID,
		PageSize:  2,
		Direction: domain.DirectionNext,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN1", "VRN2"}, vrns(vehicles))
}

func TestListWithCursorNext(t *testing.T) {
	f := cursorFixture(t)

	vehicles, err := f.svc.ListWithCursor(context.Background(), domain.CursorListRequest{
		AccountID: f.accountID,
		PageSize:  2,
		AnchorVRN: "VRN2",
		Direction: domain.DirectionNext,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN3", "VRN4"}, vrns(vehicles))
}

func TestListWithCursorPrevious(t *testing.T) {
	f := cursorFixture(t)

	vehicles, err := f.svc.ListWithCursor(context.Background(), domain.CursorListRequest{
		AccountID: f.accountID,
		PageSize:  2,
		AnchorVRN: "VRN4",
		Direction: domain.DirectionPrevious,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN2", "VRN3"}, vrns(vehicles))
}

func TestListWithCursorUnknownAnchor(t *testing.T) {
	f := cursorFixture(t)

	_, err := f.svc.ListWithCursor(context.Background(), domain.CursorListRequest{
		AccountID: f.accountID,
		PageSize:  2,
		AnchorVRN: "ZZZ999",
		Direction: domain.DirectionNext,
	})
	assert.ErrorIs(t, err, domain.ErrVehicleNotFound)
}

func TestListWithCursorInvalidDirection(t *testing.T) {
	f := cursorFixture(t)

	_, err := f.svc.ListWithCursor(context.Background(), domain.CursorListRequest{
		AccountID: f.accountID,
		PageSize:  2,
		AnchorVRN: "VRN2",
		Direction: domain.TravelDirection("SIDEWAYS"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)
}

func TestListWithCursorZoneFilter(t *testing.T) {
	f := setup(t)
	zoneA := uuid.New()
	zoneB := uuid.New()

	inZone := f.addVehicle(t, "VRN1")
	f.cacheRow(t, inZone.ID, zoneA, floatPtr(12.0))
	freeInZone := f.addVehicle(t, "VRN2")
	f.cacheRow(t, freeInZone.ID, zoneA, floatPtr(0.0))
	otherZone := f.addVehicle(t, "VRN3")
	f.cacheRow(t, otherZone.ID, zoneB, floatPtr(12.0))

	vehicles, err := f.svc.ListWithCursor(context.Background(), domain.CursorListRequest{
		AccountID: f.accountID,
		PageSize:  10,
		Direction: domain.DirectionNext,
		ZoneID:    &zoneA,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"VRN1"}, vrns(vehicles))
}

func TestParseTravelDirection(t *testing.T) {
	next, err := domain.ParseTravelDirection("NEXT")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionNext, next)

	prev, err := domain.ParseTravelDirection("PREVIOUS")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionPrevious, prev)

	_, err = domain.ParseTravelDirection("next")
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)
}

func TestCreateTriggersSynchronousPopulate(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(context.Background(), f.accountID, " CAS300 ")
	require.NoError(t, err)
	assert.Equal(t, "CAS300", created.VRN)
	assert.Equal(t, []string{"CAS300"}, f.stub.populated)

	var count int64
	require.NoError(t, f.db.Model(&domain.AccountVehicle{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateSurvivesExternalServiceFailure(t *testing.T) {
	f := setup(t)
	f.stub.result = chargeabilitydomain.ExternalServiceCallError

	created, err := f.svc.Create(context.Background(), f.accountID, "CAS300")
	require.NoError(t, err)

	// Vehicle persisted even though its cache could not be computed.
	found, err := f.svc.Get(context.Background(), f.accountID, created.VRN)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Empty(t, found.Chargeability)
}

func TestCreateRejectsInvalidVRN(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), f.accountID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidVRN)

	_, err = f.svc.Create(context.Background(), f.accountID, "WAYTOOLONGREGISTRATION")
	assert.ErrorIs(t, err, domain.ErrInvalidVRN)
}

func TestCreateDuplicateVRN(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), f.accountID, "CAS300")
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.accountID, "CAS300")
	assert.ErrorIs(t, err, domain.ErrVehicleAlreadyExists)
}

func TestGetNotFound(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Get(context.Background(), f.accountID, "CAS300")
	assert.ErrorIs(t, err, domain.ErrVehicleNotFound)
}

func TestDeleteRemovesVehicleAndCache(t *testing.T) {
	f := setup(t)
	zone := uuid.New()
	v := f.addVehicle(t, "CAS300")
	f.cacheRow(t, v.ID, zone, floatPtr(12.0))

	require.NoError(t, f.svc.Delete(context.Background(), f.accountID, "CAS300"))

	var vehicles, entries int64
	require.NoError(t, f.db.Model(&domain.AccountVehicle{}).Count(&vehicles).Error)
	require.NoError(t, f.db.Model(&chargeabilitydomain.VehicleChargeability{}).Count(&entries).Error)
	assert.Zero(t, vehicles)
	assert.Zero(t, entries)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), f.accountID, "CAS300"), domain.ErrVehicleNotFound)
}
