package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

type applicationStore interface {
	Create(ctx context.Context, app *models.DriverApplication) error
	Get(ctx context.Context, applicationID string) (*models.DriverApplication, error)
	Save(ctx context.Context, app *models.DriverApplication) error
	List(ctx context.Context, filter dto.ListApplicationsFilter) ([]*models.DriverApplication, error)
}

type applicationDriverStore interface {
	Create(ctx context.Context, driver *models.Driver) error
}

type intakeClient interface {
	Submit(ctx context.Context, payload dto.IntakePayload) error
}

type applicationService struct {
	apps     applicationStore
	drivers  applicationDriverStore
	intake   intakeClient
	clockNow func() time.Time
	newID    func() string
}

func NewApplicationService(apps applicationStore, drivers applicationDriverStore, intake intakeClient) *applicationService {
	return &applicationService{
		apps:     apps,
		drivers:  drivers,
		intake:   intake,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

// Submit records a new application and forwards it to the intake endpoint.
// Intake failures are recorded on the application, never returned.
func (s *applicationService) Submit(ctx context.Context, applicantUID string, req dto.ApplicationRequest) (*models.DriverApplication, error) {
	log := logger.FromContext(ctx)
	now := s.clockNow()

	app := models.DriverApplication{
		ApplicationID: s.newID(),
		ApplicantUID:  applicantUID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Postcode:      req.Postcode,
		Documents:     map[string]models.Document{},
		Status:        models.ApplicationStatusSubmitted,
		IntakeStatus:  models.IntakeStatusPending,
		Pending:       models.PendingChangeSet{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for name, in := range req.Documents {
		key := models.DocumentKey(name)
		if _, ok := app.Schema().Document(key); !ok {
			return nil, errs.NewValidationError(fmt.Sprintf("unknown document %q", name))
		}
		app = app.WithDocument(key, overlayDocument(models.Document{}, in))
	}

	if err := s.apps.Create(ctx, &app); err != nil {
		return nil, err
	}
	log.Info("application submitted", "application_id", app.ApplicationID)

	delivered := s.deliverIntake(ctx, &app)
	return delivered, nil
}

func (s *applicationService) GetApplication(ctx context.Context, applicationID string) (*models.DriverApplication, error) {
	return s.apps.Get(ctx, applicationID)
}

// GetOwnApplication hides applications that belong to someone else.
func (s *applicationService) GetOwnApplication(ctx context.Context, applicantUID, applicationID string) (*models.DriverApplication, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantUID != applicantUID {
		return nil, errs.NewNotFoundError("application not found")
	}
	return app, nil
}

func (s *applicationService) ListApplications(ctx context.Context, filter dto.ListApplicationsFilter) ([]*models.DriverApplication, error) {
	return s.apps.List(ctx, filter)
}

// SubmitEdit stages an applicant's change to their own open application.
func (s *applicationService) SubmitEdit(ctx context.Context, applicantUID, applicationID string, req dto.ProfileEditRequest) (dto.SubmitEditResult, error) {
	log := logger.FromContext(ctx)

	app, err := s.GetOwnApplication(ctx, applicantUID, applicationID)
	if err != nil {
		return dto.SubmitEditResult{}, err
	}
	if err := requireOpen(app); err != nil {
		return dto.SubmitEditResult{}, err
	}

	next, keys, err := stageEdit(*app, req, s.clockNow())
	if err != nil {
		log.Warn("application edit rejected", "application_id", applicationID, "error", err)
		return dto.SubmitEditResult{}, err
	}
	if len(keys) == 0 {
		return dto.SubmitEditResult{Staged: []string{}, Pending: app.Pending}, nil
	}

	next.UpdatedAt = s.clockNow()
	if next.Status == models.ApplicationStatusSubmitted {
		next.Status = models.ApplicationStatusUnderReview
	}
	if err := s.apps.Save(ctx, &next); err != nil {
		return dto.SubmitEditResult{}, err
	}

	log.Info("application edit staged", "application_id", applicationID, "keys", keys)
	return dto.SubmitEditResult{Staged: keys, Pending: next.Pending}, nil
}

func (s *applicationService) PendingChanges(ctx context.Context, applicationID string) (dto.PendingChangesResponse, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return dto.PendingChangesResponse{}, err
	}
	return dto.PendingChangesResponse{
		EntityID: applicationID,
		Changes:  app.Pending,
		Count:    len(app.Pending),
	}, nil
}

func (s *applicationService) ReviewChanges(ctx context.Context, applicationID string, review dto.Review) (*models.DriverApplication, error) {
	log := logger.FromContext(ctx)

	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(app); err != nil {
		return nil, err
	}

	merged, remaining, err := Merge(*app, app.Pending, review)
	if err != nil {
		log.Warn("application review failed", "application_id", applicationID, "error", err)
		return nil, err
	}

	merged.UpdatedAt = s.clockNow()
	if err := s.apps.Save(ctx, &merged); err != nil {
		return nil, err
	}

	log.Info("application changes reviewed", "application_id", applicationID, "remaining", len(remaining))
	return &merged, nil
}

// Onboard approves everything still pending, closes the application and creates the
// driver record from the merged result.
func (s *applicationService) Onboard(ctx context.Context, applicationID string) (*models.Driver, error) {
	log := logger.FromContext(ctx)

	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(app); err != nil {
		return nil, err
	}

	merged, _, err := Merge(*app, app.Pending, dto.ApproveAll())
	if err != nil {
		log.Warn("onboarding merge failed", "application_id", applicationID, "error", err)
		return nil, err
	}

	now := s.clockNow()
	driver := driverFromApplication(merged, now)
	if err := s.drivers.Create(ctx, &driver); err != nil {
		return nil, err
	}

	merged.Status = models.ApplicationStatusOnboarded
	merged.OnboardedAt = &now
	merged.UpdatedAt = now
	if err := s.apps.Save(ctx, &merged); err != nil {
		log.Error("driver created but application not closed", "application_id", applicationID, "driver_id", driver.DriverID, "error", err)
		return nil, err
	}

	log.Info("applicant onboarded", "application_id", applicationID, "driver_id", driver.DriverID)
	return &driver, nil
}

// Decline closes the application; pending proposals are discarded with it.
func (s *applicationService) Decline(ctx context.Context, applicationID string) (*models.DriverApplication, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(app); err != nil {
		return nil, err
	}

	declined := app.WithPendingChanges(models.PendingChangeSet{})
	declined.Status = models.ApplicationStatusRejected
	declined.UpdatedAt = s.clockNow()
	if err := s.apps.Save(ctx, &declined); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("application declined", "application_id", applicationID)
	return &declined, nil
}

// RetryIntake re-posts every application whose intake delivery failed.
func (s *applicationService) RetryIntake(ctx context.Context) (dto.IntakeRetryResult, error) {
	result := dto.IntakeRetryResult{}

	apps, err := s.apps.List(ctx, dto.ListApplicationsFilter{IntakeStatus: models.IntakeStatusFailed})
	if err != nil {
		return result, err
	}

	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++
		if s.deliverIntake(ctx, app).IntakeStatus == models.IntakeStatusDelivered {
			result.Delivered++
		} else {
			result.Failed++
		}
	}

	logger.FromContext(ctx).Info("intake retry completed", "attempted", result.Attempted, "delivered", result.Delivered, "failed", result.Failed)
	return result, nil
}

// deliverIntake posts the application and records the outcome on it.
func (s *applicationService) deliverIntake(ctx context.Context, app *models.DriverApplication) *models.DriverApplication {
	log := logger.FromContext(ctx)

	next := *app
	if err := s.intake.Submit(ctx, intakePayload(app)); err != nil {
		log.Warn("intake delivery failed", "application_id", app.ApplicationID, "error", err)
		next.IntakeStatus = models.IntakeStatusFailed
		next.IntakeError = err.Error()
	} else {
		next.IntakeStatus = models.IntakeStatusDelivered
		next.IntakeError = ""
	}
	next.UpdatedAt = s.clockNow()

	if err := s.apps.Save(ctx, &next); err != nil {
		log.Error("failed to record intake status", "application_id", app.ApplicationID, "error", err)
		return app
	}
	return &next
}

func requireOpen(app *models.DriverApplication) error {
	switch app.Status {
	case models.ApplicationStatusOnboarded:
		return errs.NewAlreadyExistsError("application already onboarded")
	case models.ApplicationStatusRejected:
		return errs.NewValidationError("application has been declined")
	}
	return nil
}

func driverFromApplication(app models.DriverApplication, now time.Time) models.Driver {
	docs := make(map[string]models.Document, len(app.Documents))
	for k, v := range app.Documents {
		if k == string(models.DocProofOfAddress) {
			continue
		}
		docs[k] = v
	}
	return models.Driver{
		DriverID:      app.ApplicantUID,
		FirstName:     app.FirstName,
		LastName:      app.LastName,
		Email:         app.Email,
		Phone:         app.Phone,
		Address:       app.Address,
		Postcode:      app.Postcode,
		Documents:     docs,
		Status:        models.DriverStatusActive,
		ApplicationID: app.ApplicationID,
		Pending:       models.PendingChangeSet{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func intakePayload(app *models.DriverApplication) dto.IntakePayload {
	keys := make([]string, 0, len(app.Documents))
	for k := range app.Documents {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attachments := make([]dto.IntakeAttachment, 0, len(keys))
	for _, k := range keys {
		doc := app.Documents[k]
		attachments = append(attachments, dto.IntakeAttachment{
			DocumentKey:      k,
			FileName:         doc.FileName,
			FileRef:          doc.FileRef,
			Number:           doc.Number,
			Expiry:           doc.Expiry,
			IssuingAuthority: doc.IssuingAuthority,
		})
	}

	return dto.IntakePayload{
		Applicant: dto.IntakeApplicant{
			ApplicationID: app.ApplicationID,
			FirstName:     app.FirstName,
			LastName:      app.LastName,
			Email:         app.Email,
			Phone:         app.Phone,
			Address:       app.Address,
			Postcode:      app.Postcode,
		},
		Attachments: attachments,
	}
}
