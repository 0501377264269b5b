package models

import (
	"sort"
	"time"
)

type ChangeKind string

const (
	ChangeKindField    ChangeKind = "field"
	ChangeKindDocument ChangeKind = "document"
)

// FieldDiff is a proposed value for one editable field.
type FieldDiff struct {
	FieldName     Field  `firestore:"fieldName" json:"fieldName"`
	PreviousValue string `firestore:"previousValue" json:"previousValue"`
	ProposedValue string `firestore:"proposedValue" json:"proposedValue"`
}

// DocumentUpdateRequest replaces a whole document group once approved.
type DocumentUpdateRequest struct {
	DocumentKey      DocumentKey `firestore:"documentKey" json:"documentKey"`
	FileName         string      `firestore:"fileName" json:"fileName"`
	FileRef          string      `firestore:"fileRef" json:"fileRef"`
	Number           *string     `firestore:"number,omitempty" json:"number,omitempty"`
	Expiry           *string     `firestore:"expiry,omitempty" json:"expiry,omitempty"`
	IssuingAuthority *string     `firestore:"issuingAuthority,omitempty" json:"issuingAuthority,omitempty"`
}

// PendingChange holds exactly one of Field or Document.
type PendingChange struct {
	Kind        ChangeKind             `firestore:"kind" json:"kind"`
	Field       *FieldDiff             `firestore:"field,omitempty" json:"field,omitempty"`
	Document    *DocumentUpdateRequest `firestore:"document,omitempty" json:"document,omitempty"`
	SubmittedAt time.Time              `firestore:"submittedAt" json:"submittedAt"`
}

// PendingChangeSet is keyed by field name or document key. Methods never modify the receiver.
type PendingChangeSet map[string]PendingChange

func (s PendingChangeSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s PendingChangeSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s PendingChangeSet) Clone() PendingChangeSet {
	out := make(PendingChangeSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy with change stored under key, replacing any earlier proposal.
func (s PendingChangeSet) With(key string, change PendingChange) PendingChangeSet {
	out := s.Clone()
	out[key] = change
	return out
}

func (s PendingChangeSet) Without(keys ...string) PendingChangeSet {
	out := s.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
