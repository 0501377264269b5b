package services

import (
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

// These functions keep "at most one default account per driver". Each returns a new
// slice; the input is never modified.

// SetDefault marks targetID as the only default. The list is returned unchanged with a
// NotFoundError when targetID is absent.
func SetDefault(accounts []models.BankAccount, targetID string) ([]models.BankAccount, error) {
	if indexOfAccount(accounts, targetID) < 0 {
		return accounts, errs.NewNotFoundError("bank account not found")
	}
	out := make([]models.BankAccount, len(accounts))
	for i, a := range accounts {
		a.IsDefault = a.AccountID == targetID
		out[i] = a
	}
	return out, nil
}

// OnAdd appends account; it becomes the default only when it is the first one.
func OnAdd(accounts []models.BankAccount, account models.BankAccount) []models.BankAccount {
	account.IsDefault = len(accounts) == 0
	out := make([]models.BankAccount, 0, len(accounts)+1)
	out = append(out, accounts...)
	return append(out, account)
}

// OnDelete removes id. Deleting the default does not promote another account.
func OnDelete(accounts []models.BankAccount, id string) ([]models.BankAccount, error) {
	idx := indexOfAccount(accounts, id)
	if idx < 0 {
		return accounts, errs.NewNotFoundError("bank account not found")
	}
	out := make([]models.BankAccount, 0, len(accounts)-1)
	out = append(out, accounts[:idx]...)
	return append(out, accounts[idx+1:]...), nil
}

func indexOfAccount(accounts []models.BankAccount, id string) int {
	for i, a := range accounts {
		if a.AccountID == id {
			return i
		}
	}
	return -1
}
