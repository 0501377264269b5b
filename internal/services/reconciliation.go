package services

import (
	"fmt"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
	"github.com/GregMSThompson/dispatch-backend/pkg/helpers"
)

const isoDateLayout = "2006-01-02"

// Diff compares draft against canonical and returns the proposals it implies.
// Unchanged fields and document groups are omitted.
func Diff[E models.Profile[E]](canonical, draft E, editable []models.Field) (models.PendingChangeSet, error) {
	schema := canonical.Schema()
	out := models.PendingChangeSet{}

	for _, f := range editable {
		if !schema.HasField(f) {
			return nil, errs.NewValidationError(fmt.Sprintf("field %q is not editable", f))
		}
		current, _ := canonical.FieldValue(f)
		proposed, _ := draft.FieldValue(f)
		if current == proposed {
			continue
		}
		out[string(f)] = models.PendingChange{
			Kind: models.ChangeKindField,
			Field: &models.FieldDiff{
				FieldName:     f,
				PreviousValue: current,
				ProposedValue: proposed,
			},
		}
	}

	for _, spec := range schema.Documents {
		next := draft.Document(spec.Key)
		if next.IsZero() || next == canonical.Document(spec.Key) {
			continue
		}
		if next.Expiry != "" {
			if _, err := time.Parse(isoDateLayout, next.Expiry); err != nil {
				return nil, errs.NewValidationError(fmt.Sprintf("%s expiry must be YYYY-MM-DD", spec.Key))
			}
		}
		out[string(spec.Key)] = models.PendingChange{
			Kind:     models.ChangeKindDocument,
			Document: documentRequest(spec.Key, next),
		}
	}

	return out, nil
}

// Stage folds fresh diffs into an existing change-set. A later proposal for a key
// replaces the earlier one.
func Stage(existing, diffs models.PendingChangeSet, at time.Time) models.PendingChangeSet {
	out := existing.Clone()
	for key, change := range diffs {
		change.SubmittedAt = at
		out[key] = change
	}
	return out
}

// Merge applies the approved proposals to canonical and drops approved and rejected
// keys from changes. On error canonical is returned unchanged.
func Merge[E models.Profile[E]](canonical E, changes models.PendingChangeSet, review dto.Review) (E, models.PendingChangeSet, error) {
	approve, reject, err := resolveReview(changes, review)
	if err != nil {
		return canonical, changes, err
	}

	schema := canonical.Schema()
	next := canonical
	for _, key := range approve {
		change := changes[key]
		switch change.Kind {
		case models.ChangeKindField:
			var ok bool
			next, ok = next.WithField(change.Field.FieldName, change.Field.ProposedValue)
			if !ok {
				return canonical, changes, errs.NewValidationError(fmt.Sprintf("field %q is not editable", change.Field.FieldName))
			}
		case models.ChangeKindDocument:
			spec, ok := schema.Document(change.Document.DocumentKey)
			if !ok {
				return canonical, changes, errs.NewValidationError(fmt.Sprintf("document %q is not editable", change.Document.DocumentKey))
			}
			if missing := missingParts(spec, change.Document); len(missing) > 0 {
				return canonical, changes, errs.NewIncompleteDocumentMergeError(key, missing)
			}
			next = next.WithDocument(spec.Key, models.Document{
				Number:           helpers.Value(change.Document.Number),
				Expiry:           helpers.Value(change.Document.Expiry),
				IssuingAuthority: helpers.Value(change.Document.IssuingAuthority),
				FileName:         change.Document.FileName,
				FileRef:          change.Document.FileRef,
			})
		default:
			return canonical, changes, errs.NewValidationError(fmt.Sprintf("pending change %q has unknown kind %q", key, change.Kind))
		}
	}

	processed := append(append([]string{}, approve...), reject...)
	remaining := changes.Without(processed...)
	return next.WithPendingChanges(remaining), remaining, nil
}

func resolveReview(changes models.PendingChangeSet, review dto.Review) (approve, reject []string, err error) {
	rejected := make(map[string]bool, len(review.Reject))
	for _, key := range review.Reject {
		if !changes.Has(key) {
			return nil, nil, errs.NewUnknownPendingKeyError(key)
		}
		rejected[key] = true
	}

	if review.Approve == nil {
		for _, key := range changes.Keys() {
			if !rejected[key] {
				approve = append(approve, key)
			}
		}
		return approve, review.Reject, nil
	}

	for _, key := range review.Approve {
		if !changes.Has(key) {
			return nil, nil, errs.NewUnknownPendingKeyError(key)
		}
		if rejected[key] {
			return nil, nil, errs.NewValidationError(fmt.Sprintf("%q is both approved and rejected", key))
		}
	}
	return review.Approve, review.Reject, nil
}

func documentRequest(key models.DocumentKey, doc models.Document) *models.DocumentUpdateRequest {
	req := &models.DocumentUpdateRequest{
		DocumentKey: key,
		FileName:    doc.FileName,
		FileRef:     doc.FileRef,
	}
	if doc.Number != "" {
		req.Number = helpers.Ptr(doc.Number)
	}
	if doc.Expiry != "" {
		req.Expiry = helpers.Ptr(doc.Expiry)
	}
	if doc.IssuingAuthority != "" {
		req.IssuingAuthority = helpers.Ptr(doc.IssuingAuthority)
	}
	return req
}

func missingParts(spec models.DocumentSpec, req *models.DocumentUpdateRequest) []string {
	var missing []string
	if req.FileRef == "" {
		missing = append(missing, "fileRef")
	}
	if spec.RequiresNumber && helpers.Value(req.Number) == "" {
		missing = append(missing, "number")
	}
	if spec.RequiresExpiry && helpers.Value(req.Expiry) == "" {
		missing = append(missing, "expiry")
	}
	if spec.RequiresAuthority && helpers.Value(req.IssuingAuthority) == "" {
		missing = append(missing, "issuingAuthority")
	}
	return missing
}
