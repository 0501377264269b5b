package intakeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

const serviceName = "intake"

type Adapter struct {
	client   *http.Client
	endpoint string
	apiKey   string
	attempts uint
	delay    time.Duration
}

func NewAdapter(endpoint, apiKey string) *Adapter {
	return &Adapter{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
		apiKey:   apiKey,
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
}

// Submit posts the applicant record. Network failures and 5xx responses are
// retried; anything else fails immediately.
func (a *Adapter) Submit(ctx context.Context, payload dto.IntakePayload) error {
	if a.endpoint == "" {
		return errs.NewExternalServiceError(serviceName, "intake endpoint not configured", false, nil)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.NewExternalServiceError(serviceName, "failed to encode intake payload", false, err)
	}

	log := logger.FromContext(ctx)
	attempt := 0
	err = retry.Do(
		func() error {
			attempt++
			return a.post(ctx, body)
		},
		retry.Context(ctx),
		retry.Attempts(a.attempts),
		retry.Delay(a.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("intake submit retry", "attempt", n+1, "applicationId", payload.Applicant.ApplicationID, "err", err)
		}),
	)
	if err != nil {
		log.Error("intake submit failed", "attempts", attempt, "applicationId", payload.Applicant.ApplicationID, "err", err)
		return err
	}
	return nil
}

func (a *Adapter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.NewExternalServiceError(serviceName, "failed to build intake request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return errs.NewExternalServiceError(serviceName, "intake request failed", true, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return errs.NewExternalServiceError(
		serviceName,
		fmt.Sprintf("intake endpoint returned %d", resp.StatusCode),
		resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		nil,
	)
}

func isTransient(err error) bool {
	var ext *errs.ExternalServiceError
	return errors.As(err, &ext) && ext.Transient
}
