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

type bankAccountService interface {
	ListAccounts(ctx context.Context, driverID string) ([]dto.BankAccountView, error)
	AddAccount(ctx context.Context, driverID string, req dto.BankAccountRequest) (dto.BankAccountView, error)
	UpdateAccount(ctx context.Context, driverID, accountID string, req dto.BankAccountRequest) (dto.BankAccountView, error)
	SetDefaultAccount(ctx context.Context, driverID, accountID string) ([]dto.BankAccountView, error)
	DeleteAccount(ctx context.Context, driverID, accountID string) error
}

type verificationService interface {
	IssueCode(ctx context.Context, driverID, accountID string) (*models.BankAccount, error)
	Resend(ctx context.Context, driverID, accountID string) (*models.BankAccount, error)
	Confirm(ctx context.Context, driverID, accountID, code string) (*models.BankAccount, error)
	Status(ctx context.Context, driverID, accountID string) (dto.VerificationStatus, error)
}

type bankAccountHandlers struct {
	ResponseHandler response.ResponseHandler
	BankAccountSvc  bankAccountService
	VerificationSvc verificationService
	validate        *validator.Validate
}

func NewBankAccountHandlers(deps *Deps) *bankAccountHandlers {
	return &bankAccountHandlers{
		ResponseHandler: deps.ResponseHandler,
		BankAccountSvc:  deps.BankAccountSvc,
		VerificationSvc: deps.VerificationSvc,
		validate:        validatorOf(deps),
	}
}

func (h *bankAccountHandlers) BankAccountRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListAccounts)
	r.Post("/", h.AddAccount)
	r.Route("/{accountId}", func(r chi.Router) {
		r.Put("/", h.UpdateAccount)
		r.Delete("/", h.DeleteAccount)
		r.Post("/default", h.SetDefault)
		r.Get("/verification", h.VerificationStatus)
		r.Post("/verification", h.IssueCode)
		r.Post("/verification/confirm", h.ConfirmCode)
		r.Post("/verification/resend", h.ResendCode)
	})
	return r
}

func (h *bankAccountHandlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	views, err := h.BankAccountSvc.ListAccounts(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, views)
}

func (h *bankAccountHandlers) AddAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.BankAccountRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	view, err := h.BankAccountSvc.AddAccount(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, view)
}

func (h *bankAccountHandlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.BankAccountRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	view, err := h.BankAccountSvc.UpdateAccount(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "accountId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, view)
}

func (h *bankAccountHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.BankAccountSvc.DeleteAccount(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "accountId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *bankAccountHandlers) SetDefault(w http.ResponseWriter, r *http.Request) {
	views, err := h.BankAccountSvc.SetDefaultAccount(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "accountId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, views)
}

func (h *bankAccountHandlers) VerificationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.VerificationSvc.Status(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "accountId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, status)
}

func (h *bankAccountHandlers) IssueCode(w http.ResponseWriter, r *http.Request) {
	account, err := h.VerificationSvc.IssueCode(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "accountId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusAccepted, dto.NewBankAccountView(*account))
}

func (h *bankAccountHandlers) ResendCode(w http.ResponseWriter, r *http.Request) {
	account, err := h.VerificationSvc.Resend(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "accountId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusAccepted, dto.NewBankAccountView(*account))
}

func (h *bankAccountHandlers) ConfirmCode(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmCodeRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	account, err := h.VerificationSvc.Confirm(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "accountId"), req.Code)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.NewBankAccountView(*account))
}
