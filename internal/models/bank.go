package models

import (
	"time"
)

type VerificationMethod string

const (
	VerificationEmail VerificationMethod = "email"
	VerificationSMS   VerificationMethod = "sms"
)

// BankAccount is a driver's payout account. At most one per driver has IsDefault set.
type BankAccount struct {
	AccountID               string             `firestore:"accountId" json:"accountId"`
	DriverID                string             `firestore:"driverId" json:"driverId"`
	AccountHolderName       string             `firestore:"accountHolderName" json:"accountHolderName"`
	BankName                string             `firestore:"bankName" json:"bankName"`
	AccountNumber           string             `firestore:"accountNumber" json:"accountNumber"` // KMS ciphertext at rest
	SortCode                string             `firestore:"sortCode" json:"sortCode"`
	IBAN                    string             `firestore:"iban,omitempty" json:"iban,omitempty"` // KMS ciphertext at rest
	IsDefault               bool               `firestore:"isDefault" json:"isDefault"`
	Verified                bool               `firestore:"verified" json:"verified"`
	VerificationMethod      VerificationMethod `firestore:"verificationMethod" json:"verificationMethod"`
	VerificationSentAt      time.Time          `firestore:"verificationSentAt" json:"verificationSentAt"`
	VerificationConfirmedAt *time.Time         `firestore:"verificationConfirmedAt,omitempty" json:"verificationConfirmedAt,omitempty"`
	PendingCode             *PendingCode       `firestore:"pendingCode,omitempty" json:"-"`
	CreatedAt               time.Time          `firestore:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time          `firestore:"updatedAt" json:"updatedAt"`
}

// PendingCode is an issued, unconfirmed verification code. SealedCode is KMS ciphertext.
type PendingCode struct {
	VerificationTimer
	SealedCode string `firestore:"sealedCode"`
	Delivered  bool   `firestore:"delivered"`
}

// VerificationTimer derives the remaining confirmation window from wall-clock time,
// so missed ticks never drift the countdown.
type VerificationTimer struct {
	IssuedAt   time.Time `firestore:"issuedAt" json:"issuedAt"`
	TTLSeconds int       `firestore:"ttlSeconds" json:"ttlSeconds"`
}

// TimeLeft is ttl - (now - issuedAt), clamped at zero.
func (t VerificationTimer) TimeLeft(now time.Time) time.Duration {
	left := time.Duration(t.TTLSeconds)*time.Second - now.Sub(t.IssuedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (t VerificationTimer) Expired(now time.Time) bool {
	return t.TimeLeft(now) == 0
}
