package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

type applicationStore struct {
	client *firestore.Client
}

func NewApplicationStore(client *firestore.Client) *applicationStore {
	return &applicationStore{client: client}
}

func (s *applicationStore) collection() *firestore.CollectionRef {
	return s.client.Collection("driver_applications")
}

func (s *applicationStore) Create(ctx context.Context, app *models.DriverApplication) error {
	now := time.Now()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	_, err := s.collection().Doc(app.ApplicationID).Create(ctx, app)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("application already exists")
		}
		return errs.NewDatabaseError("create", "failed to create application", err)
	}
	return nil
}

func (s *applicationStore) Get(ctx context.Context, applicationID string) (*models.DriverApplication, error) {
	doc, err := s.collection().Doc(applicationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("application not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get application", err)
	}
	var app models.DriverApplication
	if err := doc.DataTo(&app); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse application data", err)
	}
	return &app, nil
}

func (s *applicationStore) Save(ctx context.Context, app *models.DriverApplication) error {
	app.HasPendingChanges = len(app.Pending) > 0
	_, err := s.collection().Doc(app.ApplicationID).Set(ctx, app)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to save application", err)
	}
	return nil
}

func (s *applicationStore) List(ctx context.Context, filter dto.ListApplicationsFilter) ([]*models.DriverApplication, error) {
	query := s.collection().Query
	if filter.Status != "" {
		query = query.Where("status", "==", filter.Status)
	}
	if filter.IntakeStatus != "" {
		query = query.Where("intakeStatus", "==", filter.IntakeStatus)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []*models.DriverApplication
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list applications", err)
		}
		var app models.DriverApplication
		if err := doc.DataTo(&app); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse application data", err)
		}
		out = append(out, &app)
	}
	return out, nil
}
