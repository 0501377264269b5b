package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/middleware"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/internal/response"
)

type applicationService interface {
	Submit(ctx context.Context, applicantUID string, req dto.ApplicationRequest) (*models.DriverApplication, error)
	GetApplication(ctx context.Context, applicationID string) (*models.DriverApplication, error)
	GetOwnApplication(ctx context.Context, applicantUID, applicationID string) (*models.DriverApplication, error)
	ListApplications(ctx context.Context, filter dto.ListApplicationsFilter) ([]*models.DriverApplication, error)
	SubmitEdit(ctx context.Context, applicantUID, applicationID string, req dto.ProfileEditRequest) (dto.SubmitEditResult, error)
	PendingChanges(ctx context.Context, applicationID string) (dto.PendingChangesResponse, error)
	ReviewChanges(ctx context.Context, applicationID string, review dto.Review) (*models.DriverApplication, error)
	Onboard(ctx context.Context, applicationID string) (*models.Driver, error)
	Decline(ctx context.Context, applicationID string) (*models.DriverApplication, error)
}

type applicationHandlers struct {
	ResponseHandler response.ResponseHandler
	ApplicationSvc  applicationService
	validate        *validator.Validate
}

func NewApplicationHandlers(deps *Deps) *applicationHandlers {
	return &applicationHandlers{
		ResponseHandler: deps.ResponseHandler,
		ApplicationSvc:  deps.ApplicationSvc,
		validate:        validatorOf(deps),
	}
}

// ApplicantRoutes are used by a signed-in applicant before onboarding.
func (h *applicationHandlers) ApplicantRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	r.Get("/{applicationId}", h.GetOwnApplication)
	r.Post("/{applicationId}/edits", h.SubmitEdit)
	return r
}

func (h *applicationHandlers) StaffRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListApplications)
	r.Get("/{applicationId}", h.GetApplication)
	r.Get("/{applicationId}/pending-changes", h.PendingChanges)
	r.Post("/{applicationId}/review", h.ReviewChanges)
	r.Post("/{applicationId}/onboard", h.Onboard)
	r.Post("/{applicationId}/decline", h.Decline)
	return r
}

func (h *applicationHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplicationRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	app, err := h.ApplicationSvc.Submit(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, app)
}

func (h *applicationHandlers) GetOwnApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.ApplicationSvc.GetOwnApplication(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "applicationId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, app)
}

func (h *applicationHandlers) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileEditRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	res, err := h.ApplicationSvc.SubmitEdit(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "applicationId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	status := http.StatusAccepted
	if len(res.Staged) == 0 {
		status = http.StatusOK
	}
	h.ResponseHandler.WriteSuccess(w, r, status, res)
}

func (h *applicationHandlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	apps, err := h.ApplicationSvc.ListApplications(r.Context(), dto.ListApplicationsFilter{
		Status:       q.Get("status"),
		IntakeStatus: q.Get("intakeStatus"),
	})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, apps)
}

func (h *applicationHandlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.ApplicationSvc.GetApplication(r.Context(), chi.URLParam(r, "applicationId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, app)
}

func (h *applicationHandlers) PendingChanges(w http.ResponseWriter, r *http.Request) {
	res, err := h.ApplicationSvc.PendingChanges(r.Context(), chi.URLParam(r, "applicationId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, res)
}

func (h *applicationHandlers) ReviewChanges(w http.ResponseWriter, r *http.Request) {
	var review dto.Review
	if err := decodeJSON(w, r, h.validate, &review); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	app, err := h.ApplicationSvc.ReviewChanges(r.Context(), chi.URLParam(r, "applicationId"), review)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, app)
}

func (h *applicationHandlers) Onboard(w http.ResponseWriter, r *http.Request) {
	driver, err := h.ApplicationSvc.Onboard(r.Context(), chi.URLParam(r, "applicationId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, driver)
}

func (h *applicationHandlers) Decline(w http.ResponseWriter, r *http.Request) {
	app, err := h.ApplicationSvc.Decline(r.Context(), chi.URLParam(r, "applicationId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, app)
}
