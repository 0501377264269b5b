package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

type verificationAccountStore interface {
	Get(ctx context.Context, driverID, accountID string) (*models.BankAccount, error)
	Save(ctx context.Context, driverID string, account *models.BankAccount) error
}

type verificationContacts interface {
	Get(ctx context.Context, driverID string) (*models.Driver, error)
}

type notificationOutbox interface {
	Enqueue(ctx context.Context, n models.Notification) error
}

// codeCipher keeps issued codes opaque at rest.
type codeCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

type VerificationConfig struct {
	TTL          time.Duration
	ResendWindow time.Duration
	CodeLength   int
}

func DefaultVerificationConfig() VerificationConfig {
	return VerificationConfig{
		TTL:          600 * time.Second,
		ResendWindow: 30 * time.Second,
		CodeLength:   6,
	}
}

type verificationService struct {
	accounts verificationAccountStore
	contacts verificationContacts
	outbox   notificationOutbox
	cipher   codeCipher
	locks    *ownerLocks
	cfg      VerificationConfig
	clockNow func() time.Time
	newCode  func(length int) (string, error)
}

func NewVerificationService(accounts verificationAccountStore, contacts verificationContacts, outbox notificationOutbox, cipher codeCipher, locks *ownerLocks, cfg VerificationConfig) *verificationService {
	return &verificationService{
		accounts: accounts,
		contacts: contacts,
		outbox:   outbox,
		cipher:   cipher,
		locks:    locks,
		cfg:      cfg,
		clockNow: time.Now,
		newCode:  randomDigits,
	}
}

// IssueCode starts a fresh confirmation window for an unverified account.
func (s *verificationService) IssueCode(ctx context.Context, driverID, accountID string) (*models.BankAccount, error) {
	unlock := s.locks.Lock(driverID)
	defer unlock()

	account, err := s.accounts.Get(ctx, driverID, accountID)
	if err != nil {
		return nil, err
	}
	if account.Verified {
		return nil, errs.NewAlreadyVerifiedError()
	}
	return s.issue(ctx, account)
}

// Resend replaces the outstanding code once it is close to expiry, already expired,
// or was never delivered.
func (s *verificationService) Resend(ctx context.Context, driverID, accountID string) (*models.BankAccount, error) {
	unlock := s.locks.Lock(driverID)
	defer unlock()

	account, err := s.accounts.Get(ctx, driverID, accountID)
	if err != nil {
		return nil, err
	}
	if account.Verified {
		return nil, errs.NewAlreadyVerifiedError()
	}
	if pc := account.PendingCode; pc != nil && pc.Delivered {
		if left := pc.TimeLeft(s.clockNow()); left > s.cfg.ResendWindow {
			logger.FromContext(ctx).Warn("verification resend throttled", "account_id", accountID, "time_left", left.String())
			return nil, errs.NewResendTooSoonError(left - s.cfg.ResendWindow)
		}
	}
	return s.issue(ctx, account)
}

// Confirm commits the account as verified when code matches an unexpired issued code.
// A failed attempt leaves the issued code in place.
func (s *verificationService) Confirm(ctx context.Context, driverID, accountID, code string) (*models.BankAccount, error) {
	unlock := s.locks.Lock(driverID)
	defer unlock()

	log := logger.FromContext(ctx)

	account, err := s.accounts.Get(ctx, driverID, accountID)
	if err != nil {
		return nil, err
	}
	if account.Verified {
		return nil, errs.NewAlreadyVerifiedError()
	}
	if account.PendingCode == nil {
		return nil, errs.NewValidationError("no verification code has been issued for this account")
	}

	now := s.clockNow()
	if account.PendingCode.Expired(now) {
		log.Warn("verification code expired", "account_id", accountID)
		return nil, errs.NewExpiredError()
	}
	if len(code) != 6 && len(code) != 8 {
		return nil, errs.NewInvalidFormatError("verification code must be 6 or 8 characters")
	}

	expected, err := s.cipher.Decrypt(ctx, account.PendingCode.SealedCode)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) != 1 {
		log.Warn("verification code mismatch", "account_id", accountID)
		return nil, errs.NewInvalidCodeError()
	}

	verified := *account
	verified.Verified = true
	verified.VerificationConfirmedAt = &now
	verified.PendingCode = nil
	verified.UpdatedAt = now
	if err := s.accounts.Save(ctx, driverID, &verified); err != nil {
		return nil, err
	}

	log.Info("bank account verified", "account_id", accountID, "method", verified.VerificationMethod)
	return &verified, nil
}

// Status reports the countdown as of now; clients poll it instead of decrementing locally.
func (s *verificationService) Status(ctx context.Context, driverID, accountID string) (dto.VerificationStatus, error) {
	account, err := s.accounts.Get(ctx, driverID, accountID)
	if err != nil {
		return dto.VerificationStatus{}, err
	}
	return verificationStatus(account, s.clockNow(), s.cfg.ResendWindow), nil
}

func verificationStatus(account *models.BankAccount, now time.Time, resendWindow time.Duration) dto.VerificationStatus {
	st := dto.VerificationStatus{
		AccountID:   account.AccountID,
		Verified:    account.Verified,
		Method:      account.VerificationMethod,
		ConfirmedAt: account.VerificationConfirmedAt,
	}
	if account.Verified {
		return st
	}
	if account.PendingCode == nil {
		st.CanResend = true
		return st
	}
	left := account.PendingCode.TimeLeft(now)
	st.TimeLeftSeconds = int(math.Ceil(left.Seconds()))
	st.Expired = left == 0
	st.CanResend = !account.PendingCode.Delivered || left <= resendWindow
	return st
}

// issue must be called with the owner lock held.
func (s *verificationService) issue(ctx context.Context, account *models.BankAccount) (*models.BankAccount, error) {
	log := logger.FromContext(ctx)

	driver, err := s.contacts.Get(ctx, account.DriverID)
	if err != nil {
		return nil, err
	}
	to, err := destination(driver, account.VerificationMethod)
	if err != nil {
		return nil, err
	}

	code, err := s.newCode(s.cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}
	sealed, err := s.cipher.Encrypt(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.clockNow()
	issued := *account
	issued.PendingCode = &models.PendingCode{
		VerificationTimer: models.VerificationTimer{
			IssuedAt:   now,
			TTLSeconds: int(s.cfg.TTL / time.Second),
		},
		SealedCode: sealed,
	}
	issued.VerificationSentAt = now
	issued.UpdatedAt = now
	if err := s.accounts.Save(ctx, account.DriverID, &issued); err != nil {
		return nil, err
	}

	if err := s.outbox.Enqueue(ctx, codeNotification(account.VerificationMethod, to, code, s.cfg.TTL, now)); err != nil {
		// Delivered stays false so Resend is not throttled.
		log.Warn("verification code delivery failed", "account_id", account.AccountID, "error", err)
		return nil, errs.NewExternalServiceError("notifications", "verification code could not be sent", true, err)
	}

	issued.PendingCode.Delivered = true
	if err := s.accounts.Save(ctx, account.DriverID, &issued); err != nil {
		return nil, err
	}

	log.Info("verification code issued", "account_id", account.AccountID, "method", account.VerificationMethod)
	return &issued, nil
}

func destination(driver *models.Driver, method models.VerificationMethod) (string, error) {
	switch method {
	case models.VerificationEmail:
		if driver.Email == "" {
			return "", errs.NewValidationError("driver has no email address on file")
		}
		return driver.Email, nil
	case models.VerificationSMS:
		if driver.Phone == "" {
			return "", errs.NewValidationError("driver has no phone number on file")
		}
		return driver.Phone, nil
	default:
		return "", errs.NewValidationError(fmt.Sprintf("unsupported verification method %q", method))
	}
}

func codeNotification(method models.VerificationMethod, to, code string, ttl time.Duration, now time.Time) models.Notification {
	body := fmt.Sprintf("Your bank account verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
	n := models.Notification{To: to, Body: body, CreatedAt: now}
	if method == models.VerificationSMS {
		n.Channel = models.ChannelSMS
		return n
	}
	n.Channel = models.ChannelEmail
	n.Subject = "Confirm your bank account"
	return n
}

func randomDigits(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
