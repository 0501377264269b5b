package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/bootstrap"
	intakeclient "github.com/GregMSThompson/dispatch-backend/internal/client/intake"
	"github.com/GregMSThompson/dispatch-backend/internal/config"
	"github.com/GregMSThompson/dispatch-backend/internal/services"
	"github.com/GregMSThompson/dispatch-backend/internal/store"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

// intakesync re-posts applications whose intake delivery failed. It runs as the
// intake-sync Cloud Run job.
func main() {
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.ToContext(ctx, bs.Log.With("job", "intakesync"))

	apiKey := ""
	if cfg.IntakeAPIKeySecret != "" {
		apiKey, err = store.NewSecretsStore(bs.SecretManager, cfg.ProjectID).Latest(ctx, cfg.IntakeAPIKeySecret)
		exitOnError("intake api key unavailable", err, bs.Log)
	}

	apstore := store.NewApplicationStore(bs.Firestore)
	dstore := store.NewDriverStore(bs.Firestore)
	apserv := services.NewApplicationService(apstore, dstore, intakeclient.NewAdapter(cfg.IntakeURL, apiKey))

	res, err := apserv.RetryIntake(ctx)
	exitOnError("intake retry failed", err, bs.Log)
	bs.Log.Info("intake retry complete", "attempted", res.Attempted, "delivered", res.Delivered, "failed", res.Failed)
}
