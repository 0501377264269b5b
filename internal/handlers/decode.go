package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/validators"
)

const maxJSONBody = 1 << 20

func validatorOf(deps *Deps) *validator.Validate {
	if deps.Validate != nil {
		return deps.Validate
	}
	return validators.NewValidator()
}

// decodeJSON reads a JSON body into v and runs struct validation on it.
func decodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.NewValidationError("invalid JSON body: " + err.Error())
	}
	return validators.Struct(validate, v)
}
