package handlers

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"

	"github.com/GregMSThompson/dispatch-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Validate        *validator.Validate
	Firebase        *auth.Client

	DriverSvc       driverService
	ApplicationSvc  applicationService
	BankAccountSvc  bankAccountService
	VerificationSvc verificationService
	UploadSvc       uploadService
}
