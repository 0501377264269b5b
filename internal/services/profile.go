package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/GregMSThompson/dispatch-backend/internal/dto"
	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

// buildDraft overlays an edit request onto a copy of canonical. Keys outside the
// entity's allowlist are rejected. Blank document sub-fields keep their canonical value
// so a draft always carries the whole document group.
func buildDraft[E models.Profile[E]](canonical E, req dto.ProfileEditRequest) (E, error) {
	schema := canonical.Schema()
	draft := canonical

	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := models.Field(name)
		if !schema.HasField(f) {
			return canonical, errs.NewValidationError(fmt.Sprintf("unknown or non-editable field %q", name))
		}
		draft, _ = draft.WithField(f, strings.TrimSpace(req.Fields[name]))
	}

	for name, in := range req.Documents {
		key := models.DocumentKey(name)
		if _, ok := schema.Document(key); !ok {
			return canonical, errs.NewValidationError(fmt.Sprintf("unknown document %q", name))
		}
		draft = draft.WithDocument(key, overlayDocument(canonical.Document(key), in))
	}

	return draft, nil
}

func overlayDocument(doc models.Document, in dto.DocumentInput) models.Document {
	if v := strings.TrimSpace(in.Number); v != "" {
		doc.Number = v
	}
	if v := strings.TrimSpace(in.Expiry); v != "" {
		doc.Expiry = v
	}
	if v := strings.TrimSpace(in.IssuingAuthority); v != "" {
		doc.IssuingAuthority = v
	}
	if in.FileRef != "" {
		doc.FileRef = in.FileRef
		doc.FileName = in.FileName
	}
	return doc
}

// stageEdit diffs an edit request against canonical and folds the result into its
// pending set. With nothing to stage it returns canonical and no keys.
func stageEdit[E models.Profile[E]](canonical E, req dto.ProfileEditRequest, now time.Time) (E, []string, error) {
	draft, err := buildDraft(canonical, req)
	if err != nil {
		return canonical, nil, err
	}
	diffs, err := Diff(canonical, draft, canonical.Schema().Fields)
	if err != nil {
		return canonical, nil, err
	}
	if len(diffs) == 0 {
		return canonical, nil, nil
	}
	staged := Stage(canonical.PendingChanges(), diffs, now)
	return canonical.WithPendingChanges(staged), diffs.Keys(), nil
}
