package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/middleware"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/internal/response"
)

type driverService interface {
	GetDriver(ctx context.Context, driverID string) (*models.Driver, error)
	ListDrivers(ctx context.Context, filter dto.ListDriversFilter) ([]*models.Driver, error)
	SubmitProfileEdit(ctx context.Context, driverID string, req dto.ProfileEditRequest) (dto.SubmitEditResult, error)
	PendingChanges(ctx context.Context, driverID string) (dto.PendingChangesResponse, error)
	ReviewChanges(ctx context.Context, driverID string, review dto.Review) (*models.Driver, error)
}

type driverHandlers struct {
	ResponseHandler response.ResponseHandler
	DriverSvc       driverService
	validate        *validator.Validate
}

func NewDriverHandlers(deps *Deps) *driverHandlers {
	return &driverHandlers{
		ResponseHandler: deps.ResponseHandler,
		DriverSvc:       deps.DriverSvc,
		validate:        validatorOf(deps),
	}
}

// DriverRoutes are the signed-in driver's own profile routes.
func (h *driverHandlers) DriverRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetOwnProfile)
	r.Post("/profile-edits", h.SubmitProfileEdit)
	r.Get("/pending-changes", h.OwnPendingChanges)
	return r
}

func (h *driverHandlers) StaffRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDrivers)
	r.Get("/{driverId}", h.GetDriver)
	r.Get("/{driverId}/pending-changes", h.PendingChanges)
	r.Post("/{driverId}/review", h.ReviewChanges)
	return r
}

func (h *driverHandlers) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	driver, err := h.DriverSvc.GetDriver(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, driver)
}

func (h *driverHandlers) SubmitProfileEdit(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileEditRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	res, err := h.DriverSvc.SubmitProfileEdit(r.Context(), middleware.UID(r.Context()), req)
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

func (h *driverHandlers) OwnPendingChanges(w http.ResponseWriter, r *http.Request) {
	res, err := h.DriverSvc.PendingChanges(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, res)
}

func (h *driverHandlers) ListDrivers(w http.ResponseWriter, r *http.Request) {
	pendingOnly, _ := strconv.ParseBool(r.URL.Query().Get("pending"))
	drivers, err := h.DriverSvc.ListDrivers(r.Context(), dto.ListDriversFilter{PendingOnly: pendingOnly})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, drivers)
}

func (h *driverHandlers) GetDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := h.DriverSvc.GetDriver(r.Context(), chi.URLParam(r, "driverId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, driver)
}

func (h *driverHandlers) PendingChanges(w http.ResponseWriter, r *http.Request) {
	res, err := h.DriverSvc.PendingChanges(r.Context(), chi.URLParam(r, "driverId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, res)
}

func (h *driverHandlers) ReviewChanges(w http.ResponseWriter, r *http.Request) {
	var review dto.Review
	if err := decodeJSON(w, r, h.validate, &review); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	driver, err := h.DriverSvc.ReviewChanges(r.Context(), chi.URLParam(r, "driverId"), review)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, driver)
}
