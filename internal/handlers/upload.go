package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/middleware"
	"github.com/GregMSThompson/dispatch-backend/internal/response"
)

const maxUploadBytes = 10 << 20

type uploadService interface {
	Upload(ctx context.Context, ownerID, fileName, contentType string, body io.Reader) (dto.UploadResult, error)
}

type uploadHandlers struct {
	ResponseHandler response.ResponseHandler
	UploadSvc       uploadService
}

func NewUploadHandlers(deps *Deps) *uploadHandlers {
	return &uploadHandlers{
		ResponseHandler: deps.ResponseHandler,
		UploadSvc:       deps.UploadSvc,
	}
}

func (h *uploadHandlers) UploadRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	return r
}

// Upload accepts a multipart form with a single "file" part and returns its fileRef.
func (h *uploadHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ResponseHandler.WriteError(w, r, http.StatusRequestEntityTooLarge, "too_large", "file exceeds 10MB")
			return
		}
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	res, err := h.UploadSvc.Upload(r.Context(), middleware.UID(r.Context()), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, res)
}
