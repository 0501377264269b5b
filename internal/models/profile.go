package models

// Field names an editable scalar attribute on a profile-like entity.
type Field string

const (
	FieldFirstName           Field = "firstName"
	FieldLastName            Field = "lastName"
	FieldEmail               Field = "email"
	FieldPhone               Field = "phone"
	FieldAddress             Field = "address"
	FieldPostcode            Field = "postcode"
	FieldVehicleMake         Field = "vehicleMake"
	FieldVehicleModel        Field = "vehicleModel"
	FieldVehicleColour       Field = "vehicleColour"
	FieldVehicleRegistration Field = "vehicleRegistration"
)

// DocumentKey names a document group (number, expiry, authority and file kept together).
type DocumentKey string

const (
	DocDrivingLicence DocumentKey = "drivingLicence"
	DocBadge          DocumentKey = "badge"
	DocVehicleLicence DocumentKey = "vehicleLicence"
	DocInsurance      DocumentKey = "insurance"
	DocMOT            DocumentKey = "mot"
	DocProofOfAddress DocumentKey = "proofOfAddress"
)

// Document is the committed state of one document group.
type Document struct {
	Number           string `firestore:"number,omitempty" json:"number,omitempty"`
	Expiry           string `firestore:"expiry,omitempty" json:"expiry,omitempty"` // YYYY-MM-DD
	IssuingAuthority string `firestore:"issuingAuthority,omitempty" json:"issuingAuthority,omitempty"`
	FileName         string `firestore:"fileName,omitempty" json:"fileName,omitempty"`
	FileRef          string `firestore:"fileRef,omitempty" json:"fileRef,omitempty"`
}

func (d Document) IsZero() bool {
	return d == Document{}
}

// DocumentSpec lists which sub-fields a document group must carry when it is committed.
// A file reference is always required.
type DocumentSpec struct {
	Key               DocumentKey
	RequiresNumber    bool
	RequiresExpiry    bool
	RequiresAuthority bool
}

// Schema is the closed allowlist of what an entity type lets its owner edit.
type Schema struct {
	Fields    []Field
	Documents []DocumentSpec
}

func (s Schema) HasField(f Field) bool {
	for _, sf := range s.Fields {
		if sf == f {
			return true
		}
	}
	return false
}

func (s Schema) Document(key DocumentKey) (DocumentSpec, bool) {
	for _, d := range s.Documents {
		if d.Key == key {
			return d, true
		}
	}
	return DocumentSpec{}, false
}

// Profile is implemented by entities that stage owner edits for staff review.
// Every With* method returns a modified copy; the receiver is never changed.
type Profile[E any] interface {
	Schema() Schema
	FieldValue(f Field) (string, bool)
	WithField(f Field, value string) (E, bool)
	Document(key DocumentKey) Document
	WithDocument(key DocumentKey, doc Document) E
	PendingChanges() PendingChangeSet
	WithPendingChanges(set PendingChangeSet) E
}

// fieldTable maps each editable field to the struct member that holds it.
type fieldTable[E any] map[Field]func(e *E) *string

func (t fieldTable[E]) get(e E, f Field) (string, bool) {
	acc, ok := t[f]
	if !ok {
		return "", false
	}
	return *acc(&e), true
}

func (t fieldTable[E]) set(e E, f Field, value string) (E, bool) {
	acc, ok := t[f]
	if !ok {
		return e, false
	}
	*acc(&e) = value
	return e, true
}

func withDocument(docs map[string]Document, key DocumentKey, doc Document) map[string]Document {
	out := make(map[string]Document, len(docs)+1)
	for k, v := range docs {
		out[k] = v
	}
	out[string(key)] = doc
	return out
}
