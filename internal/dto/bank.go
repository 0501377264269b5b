package dto

import (
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

type BankAccountRequest struct {
	AccountHolderName  string                    `json:"accountHolderName" validate:"required,max=128"`
	BankName           string                    `json:"bankName" validate:"required,max=128"`
	AccountNumber      string                    `json:"accountNumber" validate:"required,numeric,len=8"`
	SortCode           string                    `json:"sortCode" validate:"required,sortcode"`
	IBAN               string                    `json:"iban,omitempty" validate:"omitempty,alphanum,min=15,max=34"`
	VerificationMethod models.VerificationMethod `json:"verificationMethod" validate:"required,oneof=email sms"`
}

type ConfirmCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// BankAccountView is what clients see: account number and IBAN masked.
type BankAccountView struct {
	AccountID               string                    `json:"accountId"`
	AccountHolderName       string                    `json:"accountHolderName"`
	BankName                string                    `json:"bankName"`
	AccountNumberLast4      string                    `json:"accountNumberLast4"`
	SortCode                string                    `json:"sortCode"`
	IBANLast4               string                    `json:"ibanLast4,omitempty"`
	IsDefault               bool                      `json:"isDefault"`
	Verified                bool                      `json:"verified"`
	VerificationMethod      models.VerificationMethod `json:"verificationMethod"`
	VerificationSentAt      time.Time                 `json:"verificationSentAt"`
	VerificationConfirmedAt *time.Time                `json:"verificationConfirmedAt,omitempty"`
}

func NewBankAccountView(a models.BankAccount) BankAccountView {
	return BankAccountView{
		AccountID:               a.AccountID,
		AccountHolderName:       a.AccountHolderName,
		BankName:                a.BankName,
		AccountNumberLast4:      last4(a.AccountNumber),
		SortCode:                a.SortCode,
		IBANLast4:               last4(a.IBAN),
		IsDefault:               a.IsDefault,
		Verified:                a.Verified,
		VerificationMethod:      a.VerificationMethod,
		VerificationSentAt:      a.VerificationSentAt,
		VerificationConfirmedAt: a.VerificationConfirmedAt,
	}
}

func last4(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

// VerificationStatus is recomputed from wall-clock time on every poll.
type VerificationStatus struct {
	AccountID       string                    `json:"accountId"`
	Verified        bool                      `json:"verified"`
	Method          models.VerificationMethod `json:"method"`
	TimeLeftSeconds int                       `json:"timeLeftSeconds"`
	Expired         bool                      `json:"expired"`
	CanResend       bool                      `json:"canResend"`
	ConfirmedAt     *time.Time                `json:"confirmedAt,omitempty"`
}
