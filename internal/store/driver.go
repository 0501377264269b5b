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

type driverStore struct {
	client *firestore.Client
}

func NewDriverStore(client *firestore.Client) *driverStore {
	return &driverStore{client: client}
}

func (s *driverStore) collection() *firestore.CollectionRef {
	return s.client.Collection("drivers")
}

func (s *driverStore) Create(ctx context.Context, d *models.Driver) error {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	d.HasPendingChanges = len(d.Pending) > 0
	_, err := s.collection().Doc(d.DriverID).Create(ctx, d)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("driver already exists")
		}
		return errs.NewDatabaseError("create", "failed to create driver", err)
	}
	return nil
}

func (s *driverStore) Get(ctx context.Context, driverID string) (*models.Driver, error) {
	doc, err := s.collection().Doc(driverID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("driver not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get driver", err)
	}
	var d models.Driver
	if err := doc.DataTo(&d); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse driver data", err)
	}
	return &d, nil
}

// Save replaces the whole driver document, pending change-set included.
func (s *driverStore) Save(ctx context.Context, d *models.Driver) error {
	d.HasPendingChanges = len(d.Pending) > 0
	_, err := s.collection().Doc(d.DriverID).Set(ctx, d)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to save driver", err)
	}
	return nil
}

func (s *driverStore) List(ctx context.Context, filter dto.ListDriversFilter) ([]*models.Driver, error) {
	query := s.collection().Query
	if filter.PendingOnly {
		query = query.Where("hasPendingChanges", "==", true)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []*models.Driver
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list drivers", err)
		}
		var d models.Driver
		if err := doc.DataTo(&d); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse driver data", err)
		}
		out = append(out, &d)
	}
	return out, nil
}
