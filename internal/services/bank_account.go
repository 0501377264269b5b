package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

type bankAccountStore interface {
	List(ctx context.Context, driverID string) ([]models.BankAccount, error)
	// ReplaceAll writes accounts and removes deleted in one transaction.
	ReplaceAll(ctx context.Context, driverID string, accounts []models.BankAccount, deleted []string) error
}

type codeIssuer interface {
	IssueCode(ctx context.Context, driverID, accountID string) (*models.BankAccount, error)
}

type bankAccountService struct {
	accounts bankAccountStore
	issuer   codeIssuer
	locks    *ownerLocks
	clockNow func() time.Time
	newID    func() string
}

func NewBankAccountService(accounts bankAccountStore, issuer codeIssuer, locks *ownerLocks) *bankAccountService {
	return &bankAccountService{
		accounts: accounts,
		issuer:   issuer,
		locks:    locks,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

func (s *bankAccountService) ListAccounts(ctx context.Context, driverID string) ([]dto.BankAccountView, error) {
	accounts, err := s.accounts.List(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return viewsOf(accounts), nil
}

// AddAccount stores a new unverified account and sends it a verification code.
// A failed send is logged; the caller can resend from the verification view.
func (s *bankAccountService) AddAccount(ctx context.Context, driverID string, req dto.BankAccountRequest) (dto.BankAccountView, error) {
	log := logger.FromContext(ctx)
	now := s.clockNow()

	account := models.BankAccount{
		AccountID:          s.newID(),
		DriverID:           driverID,
		AccountHolderName:  strings.TrimSpace(req.AccountHolderName),
		BankName:           strings.TrimSpace(req.BankName),
		AccountNumber:      req.AccountNumber,
		SortCode:           normalizeSortCode(req.SortCode),
		IBAN:               strings.ToUpper(req.IBAN),
		VerificationMethod: req.VerificationMethod,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	unlock := s.locks.Lock(driverID)
	current, err := s.accounts.List(ctx, driverID)
	if err != nil {
		unlock()
		return dto.BankAccountView{}, err
	}
	next := OnAdd(current, account)
	err = s.accounts.ReplaceAll(ctx, driverID, next, nil)
	unlock()
	if err != nil {
		return dto.BankAccountView{}, err
	}
	added := next[len(next)-1]
	log.Info("bank account added", "account_id", added.AccountID, "is_default", added.IsDefault)

	issued, err := s.issuer.IssueCode(ctx, driverID, added.AccountID)
	if err != nil {
		log.Warn("verification code not issued for new account", "account_id", added.AccountID, "error", err)
		return dto.NewBankAccountView(added), nil
	}
	return dto.NewBankAccountView(*issued), nil
}

// UpdateAccount edits an account. Banking details of a verified account are fixed;
// changing them on an unverified account invalidates the outstanding code and issues a
// new one.
func (s *bankAccountService) UpdateAccount(ctx context.Context, driverID, accountID string, req dto.BankAccountRequest) (dto.BankAccountView, error) {
	log := logger.FromContext(ctx)

	unlock := s.locks.Lock(driverID)
	current, err := s.accounts.List(ctx, driverID)
	if err != nil {
		unlock()
		return dto.BankAccountView{}, err
	}
	idx := indexOfAccount(current, accountID)
	if idx < 0 {
		unlock()
		return dto.BankAccountView{}, errs.NewNotFoundError("bank account not found")
	}

	existing := current[idx]
	updated := existing
	updated.AccountHolderName = strings.TrimSpace(req.AccountHolderName)
	updated.BankName = strings.TrimSpace(req.BankName)
	updated.AccountNumber = req.AccountNumber
	updated.SortCode = normalizeSortCode(req.SortCode)
	updated.IBAN = strings.ToUpper(req.IBAN)
	updated.VerificationMethod = req.VerificationMethod

	detailsChanged := updated.AccountNumber != existing.AccountNumber ||
		updated.SortCode != existing.SortCode ||
		updated.IBAN != existing.IBAN
	if existing.Verified && detailsChanged {
		unlock()
		return dto.BankAccountView{}, errs.NewValidationError("banking details of a verified account cannot be changed; add a new account instead")
	}
	reissue := !existing.Verified && (detailsChanged || updated.VerificationMethod != existing.VerificationMethod)
	if reissue {
		updated.PendingCode = nil
	}
	updated.UpdatedAt = s.clockNow()

	next := make([]models.BankAccount, len(current))
	copy(next, current)
	next[idx] = updated
	err = s.accounts.ReplaceAll(ctx, driverID, next, nil)
	unlock()
	if err != nil {
		return dto.BankAccountView{}, err
	}
	log.Info("bank account updated", "account_id", accountID, "reissue_code", reissue)

	if !reissue {
		return dto.NewBankAccountView(updated), nil
	}
	issued, err := s.issuer.IssueCode(ctx, driverID, accountID)
	if err != nil {
		log.Warn("verification code not issued for edited account", "account_id", accountID, "error", err)
		return dto.NewBankAccountView(updated), nil
	}
	return dto.NewBankAccountView(*issued), nil
}

func (s *bankAccountService) SetDefaultAccount(ctx context.Context, driverID, accountID string) ([]dto.BankAccountView, error) {
	unlock := s.locks.Lock(driverID)
	defer unlock()

	current, err := s.accounts.List(ctx, driverID)
	if err != nil {
		return nil, err
	}
	next, err := SetDefault(current, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.ReplaceAll(ctx, driverID, next, nil); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("default bank account changed", "account_id", accountID)
	return viewsOf(next), nil
}

// DeleteAccount removes an account. If it was the default, none is promoted.
func (s *bankAccountService) DeleteAccount(ctx context.Context, driverID, accountID string) error {
	unlock := s.locks.Lock(driverID)
	defer unlock()

	current, err := s.accounts.List(ctx, driverID)
	if err != nil {
		return err
	}
	next, err := OnDelete(current, accountID)
	if err != nil {
		return err
	}
	if err := s.accounts.ReplaceAll(ctx, driverID, next, []string{accountID}); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("bank account deleted", "account_id", accountID)
	return nil
}

func viewsOf(accounts []models.BankAccount) []dto.BankAccountView {
	views := make([]dto.BankAccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, dto.NewBankAccountView(a))
	}
	return views
}

// normalizeSortCode stores sort codes as six digits without separators.
func normalizeSortCode(sc string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(sc)
}
