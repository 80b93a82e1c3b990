package service

import (
	"context"
	"strings"
	"time"

	accountdomain "github.com/cazfleet/accounts/internal/account/domain"
	chargeabilitydomain "github.com/cazfleet/accounts/internal/chargeability/domain"
	"github.com/cazfleet/accounts/internal/vehicle/domain"
	"github.com/cazfleet/accounts/pkg/db"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxVRNLength = 15

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Repo          domain.Repository
	Accounts      accountdomain.Repository
	Cache         chargeabilitydomain.Repository
	Chargeability chargeabilitydomain.Service
}

// Service serves chargeability-enriched vehicle listings and the vehicle CRUD
// surface that keeps the cache in step (synchronous populate on create, cache
// delete on remove).
type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	repo          domain.Repository
	accounts      accountdomain.Repository
	cache         chargeabilitydomain.Repository
	chargeability chargeabilitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("vehicle.service"),
		repo:          p.Repo,
		accounts:      p.Accounts,
		cache:         p.Cache,
		chargeability: p.Chargeability,
	}
}

// List returns one offset page of the account's vehicles sorted by VRN
// ascending, enriched with their cached chargeability rows, plus the
// account-wide undetermined flag.
func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.VehiclePage, error) {
	if err := s.verifyAccount(ctx, req.AccountID); err != nil {
		return domain.VehiclePage{}, err
	}

	filter := domain.ListFilter{
		Query:          strings.TrimSpace(req.Query),
		OnlyChargeable: req.OnlyChargeable,
	}
	vehicles, total, err := s.repo.ListPage(ctx, s.db, req.AccountID, filter, req.PageNumber, req.PageSize)
	if err != nil {
		return domain.VehiclePage{}, err
	}

	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	// Valid page numbers are 0..totalPages-1, provided any data exists at all;
	// page 0 of an empty result set is fine.
	if totalPages > 0 && req.PageNumber > totalPages-1 {
		return domain.VehiclePage{}, domain.ErrPageOutOfBounds
	}

	if err := s.enrich(ctx, vehicles); err != nil {
		return domain.VehiclePage{}, err
	}

	undetermined, err := s.repo.CountUndetermined(ctx, s.db, req.AccountID)
	if err != nil {
		return domain.VehiclePage{}, err
	}

	return domain.VehiclePage{
		Vehicles:        vehicles,
		TotalCount:      total,
		TotalPages:      totalPages,
		AnyUndetermined: undetermined > 0,
	}, nil
}

// ListWithCursor returns one keyset page anchored on a VRN. With no anchor the
// first page is returned; otherwise the anchor must exist for the account and
// NEXT/PREVIOUS select the page strictly after/before it, always presented in
// ascending order.
func (s *Service) ListWithCursor(ctx context.Context, req domain.CursorListRequest) ([]domain.AccountVehicle, error) {
	if err := s.verifyAccount(ctx, req.AccountID); err != nil {
		return nil, err
	}

	anchor := strings.TrimSpace(req.AnchorVRN)
	if anchor == "" {
		vehicles, err := s.repo.ListFirst(ctx, s.db, req.AccountID, req.PageSize, req.ZoneID)
		if err != nil {
			return nil, err
		}
		return vehicles, s.enrich(ctx, vehicles)
	}

	existing, err := s.repo.FindByAccountAndVRN(ctx, s.db, req.AccountID, anchor)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrVehicleNotFound
	}

	var vehicles []domain.AccountVehicle
	switch req.Direction {
	case domain.DirectionNext:
		vehicles, err = s.repo.ListAfter(ctx, s.db, req.AccountID, anchor, req.PageSize, req.ZoneID)
	case domain.DirectionPrevious:
		vehicles, err = s.repo.ListBefore(ctx, s.db, req.AccountID, anchor, req.PageSize, req.ZoneID)
	default:
		return nil, domain.ErrInvalidDirection
	}
	if err != nil {
		return nil, err
	}
	return vehicles, s.enrich(ctx, vehicles)
}

// Create registers a vehicle and synchronously computes its chargeability
// cache so the caller gets a consistent answer without waiting for the
// periodic refresh. An external-service failure during that computation does
// not fail the creation; the vehicle stays undetermined until the next
// refresh picks it up.
func (s *Service) Create(ctx context.Context, accountID uuid.UUID, vrn string) (domain.AccountVehicle, error) {
	vrn = strings.TrimSpace(vrn)
	if vrn == "" || len(vrn) > maxVRNLength {
		return domain.AccountVehicle{}, domain.ErrInvalidVRN
	}
	if err := s.verifyAccount(ctx, accountID); err != nil {
		return domain.AccountVehicle{}, err
	}

	vehicle := domain.AccountVehicle{
		ID:        uuid.New(),
		AccountID: accountID,
		VRN:       vrn,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &vehicle); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.AccountVehicle{}, domain.ErrVehicleAlreadyExists
		}
		return domain.AccountVehicle{}, err
	}

	result, err := s.chargeability.PopulateSingle(ctx, vehicle.ID, vehicle.VRN)
	if err != nil {
		return domain.AccountVehicle{}, err
	}
	if result == chargeabilitydomain.ExternalServiceCallError {
		s.log.Warn("chargeability not computed for new vehicle",
			zap.String("vrn", vehicle.VRN),
			zap.String("vehicle_id", vehicle.ID.String()),
		)
	}
	return vehicle, nil
}

func (s *Service) Get(ctx context.Context, accountID uuid.UUID, vrn string) (domain.AccountVehicle, error) {
	if err := s.verifyAccount(ctx, accountID); err != nil {
		return domain.AccountVehicle{}, err
	}

	vehicle, err := s.repo.FindByAccountAndVRN(ctx, s.db, accountID, strings.TrimSpace(vrn))
	if err != nil {
		return domain.AccountVehicle{}, err
	}
	if vehicle == nil {
		return domain.AccountVehicle{}, domain.ErrVehicleNotFound
	}

	vehicles := []domain.AccountVehicle{*vehicle}
	if err := s.enrich(ctx, vehicles); err != nil {
		return domain.AccountVehicle{}, err
	}
	return vehicles[0], nil
}

// Delete removes the vehicle together with its cached chargeability rows.
func (s *Service) Delete(ctx context.Context, accountID uuid.UUID, vrn string) error {
	if err := s.verifyAccount(ctx, accountID); err != nil {
		return err
	}

	vehicle, err := s.repo.FindByAccountAndVRN(ctx, s.db, accountID, strings.TrimSpace(vrn))
	if err != nil {
		return err
	}
	if vehicle == nil {
		return domain.ErrVehicleNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.cache.DeleteByVehicleIDs(ctx, tx, []uuid.UUID{vehicle.ID}); err != nil {
			return err
		}
		return s.repo.DeleteByAccountAndVRN(ctx, tx, accountID, vehicle.VRN)
	})
}

// enrich attaches the cached chargeability rows to the given vehicles in a
// second query keyed by the page's vehicle ids, preserving slice order.
func (s *Service) enrich(ctx context.Context, vehicles []domain.AccountVehicle) error {
	if len(vehicles) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}

	entries, err := s.cache.FindByVehicleIDs(ctx, s.db, ids)
	if err != nil {
		return err
	}

	byVehicle := make(map[uuid.UUID][]chargeabilitydomain.VehicleChargeability, len(vehicles))
	for _, entry := range entries {
		byVehicle[entry.VehicleID] = append(byVehicle[entry.VehicleID], entry)
	}
	for i := range vehicles {
		vehicles[i].Chargeability = byVehicle[vehicles[i].ID]
	}
	return nil
}

func (s *Service) verifyAccount(ctx context.Context, accountID uuid.UUID) error {
	exists, err := s.accounts.Exists(ctx, s.db, accountID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrAccountNotFound
	}
	return nil
}
