package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/pkg/logger"
)

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.writeError(w, r, status, ErrorResponse{Code: code, Message: message})
}

func (h *responseHandler) writeError(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", body.Code)
	}
}

func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var (
		notFound      *errs.NotFoundError
		exists        *errs.AlreadyExistsError
		validation    *errs.ValidationError
		incomplete    *errs.IncompleteDocumentMergeError
		unknownKey    *errs.UnknownPendingKeyError
		verified      *errs.AlreadyVerifiedError
		expired       *errs.ExpiredError
		invalidFormat *errs.InvalidFormatError
		invalidCode   *errs.InvalidCodeError
		tooSoon       *errs.ResendTooSoonError
		database      *errs.DatabaseError
		external      *errs.ExternalServiceError
		encryption    *errs.EncryptionError
	)

	switch {
	case errors.As(err, &notFound):
		log.Warn("resource not found", "error", notFound.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", notFound.Message)

	case errors.As(err, &exists):
		log.Warn("resource already exists", "error", exists.Message)
		h.WriteError(w, r, http.StatusConflict, "already_exists", exists.Message)

	case errors.As(err, &validation):
		log.Warn("validation failed", "error", validation.Message, "fields", validation.Fields)
		h.writeError(w, r, http.StatusBadRequest, ErrorResponse{
			Code:    "invalid_input",
			Message: validation.Message,
			Details: validation.Fields,
		})

	case errors.As(err, &incomplete):
		log.Warn("incomplete document merge", "documentKey", incomplete.DocumentKey, "missing", incomplete.Missing)
		h.WriteError(w, r, http.StatusUnprocessableEntity, "incomplete_document", incomplete.Message)

	case errors.As(err, &unknownKey):
		log.Warn("unknown pending key", "key", unknownKey.Key)
		h.WriteError(w, r, http.StatusConflict, "unknown_pending_key", unknownKey.Message)

	case errors.As(err, &verified):
		log.Warn("account already verified")
		h.WriteError(w, r, http.StatusConflict, "already_verified", verified.Message)

	case errors.As(err, &expired):
		log.Warn("verification code expired")
		h.WriteError(w, r, http.StatusGone, "code_expired", expired.Message)

	case errors.As(err, &invalidFormat):
		log.Warn("invalid code format", "error", invalidFormat.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_format", invalidFormat.Message)

	case errors.As(err, &invalidCode):
		log.Warn("verification code mismatch")
		h.WriteError(w, r, http.StatusBadRequest, "invalid_code", invalidCode.Message)

	case errors.As(err, &tooSoon):
		seconds := int(math.Ceil(tooSoon.RetryAfter.Seconds()))
		log.Warn("resend throttled", "retryAfterSeconds", seconds)
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		h.WriteError(w, r, http.StatusTooManyRequests, "resend_too_soon", tooSoon.Message)

	case errors.As(err, &database):
		log.Error("database error",
			"operation", database.Operation,
			"error", database.Message,
			"cause", database.Err)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	case errors.As(err, &external):
		level := slog.LevelError
		if external.Transient {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "external service error",
			"service", external.Service,
			"transient", external.Transient,
			"error", external.Message)

		status := http.StatusBadGateway
		if external.Transient {
			status = http.StatusServiceUnavailable
		}
		h.WriteError(w, r, status, "service_unavailable",
			"Service temporarily unavailable")

	case errors.As(err, &encryption):
		log.Error("encryption error", "error", encryption.Message)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An unexpected error occurred")
	}
}
