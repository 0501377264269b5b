package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type objectStore interface {
	Put(ctx context.Context, object, contentType string, body io.Reader) (ref string, err error)
}

type uploadService struct {
	objects  objectStore
	clockNow func() time.Time
	newID    func() string
}

func NewUploadService(objects objectStore) *uploadService {
	return &uploadService{
		objects:  objects,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

// Upload stores a document scan and returns the opaque reference that edit requests carry.
func (s *uploadService) Upload(ctx context.Context, ownerID, fileName, contentType string, body io.Reader) (dto.UploadResult, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedUploadTypes[contentType] {
		return dto.UploadResult{}, errs.NewValidationError(fmt.Sprintf("unsupported file type %q", contentType))
	}
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return dto.UploadResult{}, errs.NewValidationError("file name is required")
	}

	object := fmt.Sprintf("uploads/%s/%s-%s", ownerID, s.newID(), base)
	ref, err := s.objects.Put(ctx, object, contentType, body)
	if err != nil {
		return dto.UploadResult{}, err
	}

	logger.FromContext(ctx).Info("document uploaded", "owner_id", ownerID, "file_ref", ref)
	return dto.UploadResult{FileName: base, FileRef: ref, Uploaded: s.clockNow()}, nil
}
