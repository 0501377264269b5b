package services

import (
	"context"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

type driverStore interface {
	Get(ctx context.Context, driverID string) (*models.Driver, error)
	Save(ctx context.Context, driver *models.Driver) error
	List(ctx context.Context, filter dto.ListDriversFilter) ([]*models.Driver, error)
}

type driverService struct {
	store    driverStore
	clockNow func() time.Time
}

func NewDriverService(store driverStore) *driverService {
	return &driverService{
		store:    store,
		clockNow: time.Now,
	}
}

func (s *driverService) GetDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	return s.store.Get(ctx, driverID)
}

func (s *driverService) ListDrivers(ctx context.Context, filter dto.ListDriversFilter) ([]*models.Driver, error) {
	return s.store.List(ctx, filter)
}

// SubmitProfileEdit stages a driver's own edit for staff review. The canonical
// profile is not changed.
func (s *driverService) SubmitProfileEdit(ctx context.Context, driverID string, req dto.ProfileEditRequest) (dto.SubmitEditResult, error) {
	log := logger.FromContext(ctx)

	driver, err := s.store.Get(ctx, driverID)
	if err != nil {
		return dto.SubmitEditResult{}, err
	}

	next, keys, err := stageEdit(*driver, req, s.clockNow())
	if err != nil {
		log.Warn("profile edit rejected", "driver_id", driverID, "error", err)
		return dto.SubmitEditResult{}, err
	}
	if len(keys) == 0 {
		log.Debug("profile edit had no changes", "driver_id", driverID)
		return dto.SubmitEditResult{Staged: []string{}, Pending: driver.Pending}, nil
	}

	next.UpdatedAt = s.clockNow()
	if err := s.store.Save(ctx, &next); err != nil {
		return dto.SubmitEditResult{}, err
	}

	log.Info("profile edit staged", "driver_id", driverID, "keys", keys, "pending", len(next.Pending))
	return dto.SubmitEditResult{Staged: keys, Pending: next.Pending}, nil
}

func (s *driverService) PendingChanges(ctx context.Context, driverID string) (dto.PendingChangesResponse, error) {
	driver, err := s.store.Get(ctx, driverID)
	if err != nil {
		return dto.PendingChangesResponse{}, err
	}
	return dto.PendingChangesResponse{
		EntityID: driverID,
		Changes:  driver.Pending,
		Count:    len(driver.Pending),
	}, nil
}

// ReviewChanges merges approved proposals into the driver record and discards
// rejected ones.
func (s *driverService) ReviewChanges(ctx context.Context, driverID string, review dto.Review) (*models.Driver, error) {
	log := logger.FromContext(ctx)

	driver, err := s.store.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}

	merged, remaining, err := Merge(*driver, driver.Pending, review)
	if err != nil {
		log.Warn("pending change review failed", "driver_id", driverID, "error", err)
		return nil, err
	}

	merged.UpdatedAt = s.clockNow()
	if err := s.store.Save(ctx, &merged); err != nil {
		return nil, err
	}

	log.Info("pending changes reviewed", "driver_id", driverID, "remaining", len(remaining))
	return &merged, nil
}
