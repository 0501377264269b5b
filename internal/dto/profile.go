package dto

import (
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

// DocumentInput is a document group as entered on a form. FileRef comes from POST /uploads.
type DocumentInput struct {
	Number           string `json:"number,omitempty" validate:"omitempty,max=64"`
	Expiry           string `json:"expiry,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IssuingAuthority string `json:"issuingAuthority,omitempty" validate:"omitempty,max=128"`
	FileName         string `json:"fileName,omitempty" validate:"omitempty,max=256"`
	FileRef          string `json:"fileRef,omitempty" validate:"omitempty,max=1024"`
}

// ProfileEditRequest carries only the fields the owner touched; keys are field names and
// document keys from the entity's allowlist.
type ProfileEditRequest struct {
	Fields    map[string]string        `json:"fields,omitempty" validate:"omitempty,dive,max=256"`
	Documents map[string]DocumentInput `json:"documents,omitempty" validate:"omitempty,dive"`
}

// Review selects which pending keys a staff member approves and which they reject.
// A nil Approve approves every pending key not listed in Reject; keys listed in
// neither stay pending.
type Review struct {
	Approve []string `json:"approve,omitempty"`
	Reject  []string `json:"reject,omitempty"`
}

// ApproveAll is the review used for full merges and onboarding.
func ApproveAll() Review { return Review{} }

// PendingChangesResponse is the staff view: pending proposals next to canonical values.
type PendingChangesResponse struct {
	EntityID string                  `json:"entityId"`
	Changes  models.PendingChangeSet `json:"changes"`
	Count    int                     `json:"count"`
}

type SubmitEditResult struct {
	Staged  []string                `json:"staged"` // keys created or replaced by this submission
	Pending models.PendingChangeSet `json:"pending"`
}

type ApplicationRequest struct {
	FirstName string                   `json:"firstName" validate:"required,max=128"`
	LastName  string                   `json:"lastName" validate:"required,max=128"`
	Email     string                   `json:"email" validate:"required,email"`
	Phone     string                   `json:"phone" validate:"required,e164"`
	Address   string                   `json:"address" validate:"required,max=256"`
	Postcode  string                   `json:"postcode" validate:"required,max=16"`
	Documents map[string]DocumentInput `json:"documents,omitempty" validate:"omitempty,dive"`
}

type ListDriversFilter struct {
	PendingOnly bool
}

type ListApplicationsFilter struct {
	Status       string
	IntakeStatus string
}

type UploadResult struct {
	FileName string    `json:"fileName"`
	FileRef  string    `json:"fileRef"`
	Uploaded time.Time `json:"uploaded"`
}
