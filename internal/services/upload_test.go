package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
)

type fakeObjects struct {
	object      string
	contentType string
	body        string
	err         error
}

func (f *fakeObjects) Put(_ context.Context, object, contentType string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.object, f.contentType, f.body = object, contentType, string(b)
	return "gs://uploads-bucket/" + object, nil
}

func newUploadFixture() (*uploadService, *fakeObjects) {
	objects := &fakeObjects{}
	svc := NewUploadService(objects)
	svc.clockNow = func() time.Time { return submittedAt }
	svc.newID = func() string { return "u1" }
	return svc, objects
}

func TestUploadStoresUnderOwnerPrefix(t *testing.T) {
	svc, objects := newUploadFixture()

	res, err := svc.Upload(testCtx(), "d1", `C:\scans\badge.pdf`, "application/pdf; charset=binary", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if objects.object != "uploads/d1/u1-badge.pdf" || objects.contentType != "application/pdf" || objects.body != "%PDF" {
		t.Fatalf("unexpected stored object %+v", objects)
	}
	if res.FileName != "badge.pdf" || res.FileRef != "gs://uploads-bucket/uploads/d1/u1-badge.pdf" || !res.Uploaded.Equal(submittedAt) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, objects := newUploadFixture()

	_, err := svc.Upload(testCtx(), "d1", "notes.txt", "text/plain", strings.NewReader("x"))
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if objects.object != "" {
		t.Fatal("nothing should be stored for a rejected upload")
	}
}

func TestUploadPropagatesStorageError(t *testing.T) {
	svc, objects := newUploadFixture()
	objects.err = errs.NewExternalServiceError("storage", "write failed", true, nil)

	_, err := svc.Upload(testCtx(), "d1", "scan.png", "image/png", strings.NewReader("png"))
	var ext *errs.ExternalServiceError
	if !errors.As(err, &ext) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
}
