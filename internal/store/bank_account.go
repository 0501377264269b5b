package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

type fieldCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

type bankAccountStore struct {
	client *firestore.Client
	cipher fieldCipher
}

func NewBankAccountStore(client *firestore.Client, cipher fieldCipher) *bankAccountStore {
	return &bankAccountStore{client: client, cipher: cipher}
}

func (s *bankAccountStore) accounts(driverID string) *firestore.CollectionRef {
	return s.client.Collection("drivers").Doc(driverID).Collection("bank_accounts")
}

func (s *bankAccountStore) List(ctx context.Context, driverID string) ([]models.BankAccount, error) {
	iter := s.accounts(driverID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []models.BankAccount
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list bank accounts", err)
		}
		account, err := s.decode(ctx, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *account)
	}
	return out, nil
}

func (s *bankAccountStore) Get(ctx context.Context, driverID, accountID string) (*models.BankAccount, error) {
	doc, err := s.accounts(driverID).Doc(accountID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("bank account not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get bank account", err)
	}
	return s.decode(ctx, doc)
}

func (s *bankAccountStore) Save(ctx context.Context, driverID string, account *models.BankAccount) error {
	sealed, err := s.seal(ctx, *account)
	if err != nil {
		return err
	}
	if _, err := s.accounts(driverID).Doc(account.AccountID).Set(ctx, sealed); err != nil {
		return errs.NewDatabaseError("update", "failed to save bank account", err)
	}
	return nil
}

// ReplaceAll writes every account and deletes the listed ids atomically, so
// the default flag never lands on two documents at once.
func (s *bankAccountStore) ReplaceAll(ctx context.Context, driverID string, accounts []models.BankAccount, deleted []string) error {
	sealed := make([]models.BankAccount, 0, len(accounts))
	for _, a := range accounts {
		enc, err := s.seal(ctx, a)
		if err != nil {
			return err
		}
		sealed = append(sealed, enc)
	}

	col := s.accounts(driverID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, a := range sealed {
			if err := tx.Set(col.Doc(a.AccountID), a); err != nil {
				return err
			}
		}
		for _, id := range deleted {
			if err := tx.Delete(col.Doc(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to write bank accounts", err)
	}
	return nil
}

func (s *bankAccountStore) seal(ctx context.Context, a models.BankAccount) (models.BankAccount, error) {
	var err error
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = time.Now()
	if a.AccountNumber, err = s.cipher.Encrypt(ctx, a.AccountNumber); err != nil {
		return a, err
	}
	if a.IBAN, err = s.cipher.Encrypt(ctx, a.IBAN); err != nil {
		return a, err
	}
	return a, nil
}

func (s *bankAccountStore) decode(ctx context.Context, doc *firestore.DocumentSnapshot) (*models.BankAccount, error) {
	var a models.BankAccount
	if err := doc.DataTo(&a); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse bank account data", err)
	}
	var err error
	if a.AccountNumber, err = s.cipher.Decrypt(ctx, a.AccountNumber); err != nil {
		return nil, err
	}
	if a.IBAN, err = s.cipher.Decrypt(ctx, a.IBAN); err != nil {
		return nil, err
	}
	return &a, nil
}
