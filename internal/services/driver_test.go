package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

type driverFakeStore struct {
	drivers map[string]models.Driver
	saves   int
	saveErr error
}

func (f *driverFakeStore) Get(_ context.Context, id string) (*models.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return nil, errs.NewNotFoundError("driver not found")
	}
	return &d, nil
}

func (f *driverFakeStore) Save(_ context.Context, d *models.Driver) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.drivers[d.DriverID] = *d
	return nil
}

func (f *driverFakeStore) List(_ context.Context, filter dto.ListDriversFilter) ([]*models.Driver, error) {
	var out []*models.Driver
	for _, d := range f.drivers {
		if filter.PendingOnly && len(d.Pending) == 0 {
			continue
		}
		cp := d
		out = append(out, &cp)
	}
	return out, nil
}

func newDriverFixture() (*driverService, *driverFakeStore) {
	store := &driverFakeStore{drivers: map[string]models.Driver{"d1": janeDriver()}}
	svc := NewDriverService(store)
	svc.clockNow = func() time.Time { return submittedAt }
	return svc, store
}

func TestSubmitProfileEditStagesWithoutTouchingCanonical(t *testing.T) {
	svc, store := newDriverFixture()

	res, err := svc.SubmitProfileEdit(testCtx(), "d1", dto.ProfileEditRequest{Fields: map[string]string{"firstName": "Joanne"}})
	if err != nil {
		t.Fatalf("SubmitProfileEdit returned error: %v", err)
	}
	if len(res.Staged) != 1 || res.Staged[0] != "firstName" {
		t.Fatalf("unexpected staged keys %v", res.Staged)
	}
	stored := store.drivers["d1"]
	if stored.FirstName != "Jane" || !stored.HasPendingChanges || stored.Pending["firstName"].Field.ProposedValue != "Joanne" {
		t.Fatalf("unexpected stored driver %+v", stored)
	}
}

func TestSubmitProfileEditNoOpDoesNotSave(t *testing.T) {
	svc, store := newDriverFixture()

	res, err := svc.SubmitProfileEdit(testCtx(), "d1", dto.ProfileEditRequest{Fields: map[string]string{"firstName": "Jane"}})
	if err != nil {
		t.Fatalf("SubmitProfileEdit returned error: %v", err)
	}
	if len(res.Staged) != 0 || store.saves != 0 {
		t.Fatalf("expected nothing staged or saved, got %v saves=%d", res.Staged, store.saves)
	}
}

func TestReviewChangesMergesAndClears(t *testing.T) {
	svc, store := newDriverFixture()
	ctx := testCtx()
	svc.SubmitProfileEdit(ctx, "d1", dto.ProfileEditRequest{Fields: map[string]string{"firstName": "Joanne"}})

	pending, _ := svc.PendingChanges(ctx, "d1")
	if pending.Count != 1 {
		t.Fatalf("expected one pending change, got %d", pending.Count)
	}

	merged, err := svc.ReviewChanges(ctx, "d1", dto.ApproveAll())
	if err != nil {
		t.Fatalf("ReviewChanges returned error: %v", err)
	}
	if merged.FirstName != "Joanne" || len(merged.Pending) != 0 {
		t.Fatalf("unexpected merged driver %+v", merged)
	}
	if store.drivers["d1"].HasPendingChanges {
		t.Fatal("stored driver still flagged as pending")
	}

	drivers, _ := svc.ListDrivers(ctx, dto.ListDriversFilter{PendingOnly: true})
	if len(drivers) != 0 {
		t.Fatalf("expected no drivers awaiting review, got %d", len(drivers))
	}
}

func TestReviewChangesFailureDoesNotSave(t *testing.T) {
	svc, store := newDriverFixture()

	_, err := svc.ReviewChanges(testCtx(), "d1", dto.Review{Approve: []string{"phone"}})
	var unknown *errs.UnknownPendingKeyError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPendingKeyError, got %v", err)
	}
	if store.saves != 0 {
		t.Fatal("failed review must not save")
	}
}

func TestGetDriverNotFound(t *testing.T) {
	svc, _ := newDriverFixture()
	_, err := svc.GetDriver(testCtx(), "nobody")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
