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

type appFakeStore struct {
	apps map[string]models.DriverApplication
}

func (f *appFakeStore) Create(_ context.Context, app *models.DriverApplication) error {
	if _, ok := f.apps[app.ApplicationID]; ok {
		return errs.NewAlreadyExistsError("application already exists")
	}
	f.apps[app.ApplicationID] = *app
	return nil
}

func (f *appFakeStore) Get(_ context.Context, id string) (*models.DriverApplication, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, errs.NewNotFoundError("application not found")
	}
	return &app, nil
}

func (f *appFakeStore) Save(_ context.Context, app *models.DriverApplication) error {
	f.apps[app.ApplicationID] = *app
	return nil
}

func (f *appFakeStore) List(_ context.Context, filter dto.ListApplicationsFilter) ([]*models.DriverApplication, error) {
	var out []*models.DriverApplication
	for _, app := range f.apps {
		if filter.IntakeStatus != "" && app.IntakeStatus != filter.IntakeStatus {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		cp := app
		out = append(out, &cp)
	}
	return out, nil
}

type appFakeDrivers struct {
	created []models.Driver
}

func (f *appFakeDrivers) Create(_ context.Context, d *models.Driver) error {
	f.created = append(f.created, *d)
	return nil
}

type fakeIntake struct {
	err      error
	payloads []dto.IntakePayload
}

func (f *fakeIntake) Submit(_ context.Context, p dto.IntakePayload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

func newApplicationFixture(intakeErr error) (*applicationService, *appFakeStore, *appFakeDrivers, *fakeIntake) {
	apps := &appFakeStore{apps: map[string]models.DriverApplication{}}
	drivers := &appFakeDrivers{}
	intake := &fakeIntake{err: intakeErr}
	svc := NewApplicationService(apps, drivers, intake)
	svc.clockNow = func() time.Time { return submittedAt }
	svc.newID = func() string { return "app-1" }
	return svc, apps, drivers, intake
}

func applicationRequest() dto.ApplicationRequest {
	return dto.ApplicationRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "+447700900123",
		Address:   "1 High Street",
		Postcode:  "LS1 1AA",
		Documents: map[string]dto.DocumentInput{
			"drivingLicence": {Number: "DOE99901", Expiry: "2030-01-01", FileName: "dl.pdf", FileRef: "gs://b/dl.pdf"},
			"proofOfAddress": {FileName: "bill.pdf", FileRef: "gs://b/bill.pdf"},
		},
	}
}

func TestSubmitApplicationDeliversIntake(t *testing.T) {
	svc, apps, _, intake := newApplicationFixture(nil)

	app, err := svc.Submit(testCtx(), "uid-1", applicationRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if app.Status != models.ApplicationStatusSubmitted || app.IntakeStatus != models.IntakeStatusDelivered {
		t.Fatalf("unexpected application %+v", app)
	}
	if apps.apps["app-1"].IntakeStatus != models.IntakeStatusDelivered {
		t.Fatal("intake status not persisted")
	}
	if len(intake.payloads) != 1 || len(intake.payloads[0].Attachments) != 2 {
		t.Fatalf("unexpected intake payloads %+v", intake.payloads)
	}
	if intake.payloads[0].Attachments[0].DocumentKey != "drivingLicence" {
		t.Fatalf("attachments should be ordered by key, got %+v", intake.payloads[0].Attachments)
	}
}

func TestSubmitApplicationIntakeFailureIsRecorded(t *testing.T) {
	svc, apps, _, _ := newApplicationFixture(errs.NewExternalServiceError("intake", "down", true, nil))

	app, err := svc.Submit(testCtx(), "uid-1", applicationRequest())
	if err != nil {
		t.Fatalf("intake failure must not fail submission, got %v", err)
	}
	if app.IntakeStatus != models.IntakeStatusFailed || apps.apps["app-1"].IntakeError == "" {
		t.Fatalf("expected failed intake recorded, got %+v", apps.apps["app-1"])
	}
}

func TestRetryIntake(t *testing.T) {
	svc, apps, _, intake := newApplicationFixture(errors.New("unreachable"))
	ctx := testCtx()
	svc.Submit(ctx, "uid-1", applicationRequest())

	intake.err = nil
	res, err := svc.RetryIntake(ctx)
	if err != nil {
		t.Fatalf("RetryIntake returned error: %v", err)
	}
	if res.Attempted != 1 || res.Delivered != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if apps.apps["app-1"].IntakeStatus != models.IntakeStatusDelivered || apps.apps["app-1"].IntakeError != "" {
		t.Fatalf("unexpected stored app %+v", apps.apps["app-1"])
	}
}

func TestApplicationEditThenOnboard(t *testing.T) {
	svc, apps, drivers, _ := newApplicationFixture(nil)
	ctx := testCtx()
	svc.Submit(ctx, "uid-1", applicationRequest())

	res, err := svc.SubmitEdit(ctx, "uid-1", "app-1", dto.ProfileEditRequest{
		Fields: map[string]string{"firstName": "Joanne"},
		Documents: map[string]dto.DocumentInput{
			"badge": {Number: "B1", Expiry: "2027-01-31", IssuingAuthority: "Leeds City Council", FileName: "badge.pdf", FileRef: "gs://b/badge.pdf"},
		},
	})
	if err != nil {
		t.Fatalf("SubmitEdit returned error: %v", err)
	}
	if len(res.Staged) != 2 || apps.apps["app-1"].Status != models.ApplicationStatusUnderReview {
		t.Fatalf("unexpected edit result %+v status=%s", res, apps.apps["app-1"].Status)
	}

	driver, err := svc.Onboard(ctx, "app-1")
	if err != nil {
		t.Fatalf("Onboard returned error: %v", err)
	}
	if driver.DriverID != "uid-1" || driver.FirstName != "Joanne" || driver.ApplicationID != "app-1" {
		t.Fatalf("unexpected driver %+v", driver)
	}
	if _, ok := driver.Documents["proofOfAddress"]; ok {
		t.Fatal("proof of address should not carry over to the driver")
	}
	if driver.Documents["badge"].Number != "B1" {
		t.Fatalf("approved badge missing from driver: %+v", driver.Documents)
	}
	if len(drivers.created) != 1 {
		t.Fatalf("expected one driver created, got %d", len(drivers.created))
	}
	stored := apps.apps["app-1"]
	if stored.Status != models.ApplicationStatusOnboarded || stored.OnboardedAt == nil || len(stored.Pending) != 0 {
		t.Fatalf("unexpected stored application %+v", stored)
	}

	_, err = svc.Onboard(ctx, "app-1")
	var exists *errs.AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("second onboard: expected AlreadyExistsError, got %v", err)
	}
}

func TestOnboardIncompleteDocumentLeavesApplicationOpen(t *testing.T) {
	svc, apps, drivers, _ := newApplicationFixture(nil)
	ctx := testCtx()
	svc.Submit(ctx, "uid-1", applicationRequest())

	app := apps.apps["app-1"]
	app.Pending = models.PendingChangeSet{
		"badge": {
			Kind:     models.ChangeKindDocument,
			Document: &models.DocumentUpdateRequest{DocumentKey: models.DocBadge, FileName: "badge.pdf", FileRef: "gs://b/badge.pdf"},
		},
	}
	apps.apps["app-1"] = app

	_, err := svc.Onboard(ctx, "app-1")
	var incomplete *errs.IncompleteDocumentMergeError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteDocumentMergeError, got %v", err)
	}
	if len(drivers.created) != 0 || apps.apps["app-1"].Status != models.ApplicationStatusSubmitted {
		t.Fatal("failed onboarding must not create a driver or close the application")
	}
}

func TestGetOwnApplicationHidesOthers(t *testing.T) {
	svc, _, _, _ := newApplicationFixture(nil)
	ctx := testCtx()
	svc.Submit(ctx, "uid-1", applicationRequest())

	_, err := svc.GetOwnApplication(ctx, "uid-2", "app-1")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeclineClosesApplication(t *testing.T) {
	svc, apps, _, _ := newApplicationFixture(nil)
	ctx := testCtx()
	svc.Submit(ctx, "uid-1", applicationRequest())
	svc.SubmitEdit(ctx, "uid-1", "app-1", dto.ProfileEditRequest{Fields: map[string]string{"postcode": "LS2 2BB"}})

	declined, err := svc.Decline(ctx, "app-1")
	if err != nil {
		t.Fatalf("Decline returned error: %v", err)
	}
	if declined.Status != models.ApplicationStatusRejected || len(apps.apps["app-1"].Pending) != 0 {
		t.Fatalf("unexpected declined application %+v", apps.apps["app-1"])
	}

	_, err = svc.SubmitEdit(ctx, "uid-1", "app-1", dto.ProfileEditRequest{Fields: map[string]string{"postcode": "LS3 3CC"}})
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("edit after decline: expected ValidationError, got %v", err)
	}
}
