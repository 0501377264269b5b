package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/GregMSThompson/dispatch-backend/internal/bootstrap"
	intakeclient "github.com/GregMSThompson/dispatch-backend/internal/client/intake"
	"github.com/GregMSThompson/dispatch-backend/internal/config"
	"github.com/GregMSThompson/dispatch-backend/internal/crypto"
	"github.com/GregMSThompson/dispatch-backend/internal/handlers"
	"github.com/GregMSThompson/dispatch-backend/internal/response"
	"github.com/GregMSThompson/dispatch-backend/internal/router"
	"github.com/GregMSThompson/dispatch-backend/internal/services"
	"github.com/GregMSThompson/dispatch-backend/internal/store"
	"github.com/GregMSThompson/dispatch-backend/internal/validators"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
	locks := services.NewOwnerLocks()

	// stores
	dstore := store.NewDriverStore(bs.Firestore)
	apstore := store.NewApplicationStore(bs.Firestore)
	bastore := store.NewBankAccountStore(bs.Firestore, kmsHelper)
	outbox := store.NewNotificationOutbox(bs.Firestore)
	objects := store.NewObjectStore(bs.Storage, cfg.UploadBucket)
	secrets := store.NewSecretsStore(bs.SecretManager, cfg.ProjectID)

	// clients
	intake := intakeclient.NewAdapter(cfg.IntakeURL, intakeAPIKey(cfg, secrets, bs.Log))

	// services
	vcfg := services.DefaultVerificationConfig()
	vcfg.TTL = cfg.VerificationTTL
	vcfg.ResendWindow = cfg.ResendWindow

	dserv := services.NewDriverService(dstore)
	apserv := services.NewApplicationService(apstore, dstore, intake)
	vserv := services.NewVerificationService(bastore, dstore, outbox, kmsHelper, locks, vcfg)
	baserv := services.NewBankAccountService(bastore, vserv, locks)
	userv := services.NewUploadService(objects)

	// dependencies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = response.New(bs.Log)
	deps.Validate = validators.NewValidator()
	deps.Firebase = bs.Firebase
	deps.DriverSvc = dserv
	deps.ApplicationSvc = apserv
	deps.BankAccountSvc = baserv
	deps.VerificationSvc = vserv
	deps.UploadSvc = userv

	// router
	r := router.NewRouter(deps)
	bs.Log.Info("listening", "port", cfg.Port)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}

// intakeAPIKey resolves the intake key once at startup. A missing key is not
// fatal; the endpoint may not require one.
func intakeAPIKey(cfg *config.Config, secrets interface {
	Latest(ctx context.Context, secretID string) (string, error)
}, log *slog.Logger) string {
	if cfg.IntakeAPIKeySecret == "" {
		return ""
	}
	key, err := secrets.Latest(context.Background(), cfg.IntakeAPIKeySecret)
	if err != nil {
		log.Warn("intake api key unavailable", "secret", cfg.IntakeAPIKeySecret, "error", err)
		return ""
	}
	return key
}
