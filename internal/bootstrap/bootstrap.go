package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	kms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/dispatch-backend/internal/config"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	KMS           *kms.KeyManagementClient
	SecretManager *secretmanager.Client
	Storage       *storage.Client
}

// Run creates every cloud client. On error the partially built Bootstrap is
// returned so the caller can still log and Close.
func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = initFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = initFirebase(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.KMS, err = kms.NewKeyManagementClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.SecretManager, err = secretmanager.NewClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.Storage, err = storage.NewClient(applicationCtx)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

func (bs *Bootstrap) Close() {
	if bs.Storage != nil {
		_ = bs.Storage.Close()
	}
	if bs.SecretManager != nil {
		_ = bs.SecretManager.Close()
	}
	if bs.KMS != nil {
		_ = bs.KMS.Close()
	}
	if bs.Firestore != nil {
		_ = bs.Firestore.Close()
	}
}
