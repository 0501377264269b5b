package models

import (
	"time"
)

const (
	ApplicationStatusSubmitted   = "submitted"
	ApplicationStatusUnderReview = "underReview"
	ApplicationStatusOnboarded   = "onboarded"
	ApplicationStatusRejected    = "rejected"
)

const (
	IntakeStatusPending   = "pending"
	IntakeStatusDelivered = "delivered"
	IntakeStatusFailed    = "failed"
)

// DriverApplication is an applicant's record until staff onboard them as a Driver.
type DriverApplication struct {
	ApplicationID     string              `firestore:"applicationId" json:"applicationId"`
	ApplicantUID      string              `firestore:"applicantUid" json:"applicantUid"`
	FirstName         string              `firestore:"firstName" json:"firstName"`
	LastName          string              `firestore:"lastName" json:"lastName"`
	Email             string              `firestore:"email" json:"email"`
	Phone             string              `firestore:"phone" json:"phone"`
	Address           string              `firestore:"address" json:"address"`
	Postcode          string              `firestore:"postcode" json:"postcode"`
	Documents         map[string]Document `firestore:"documents" json:"documents"`
	Status            string              `firestore:"status" json:"status"`
	IntakeStatus      string              `firestore:"intakeStatus" json:"intakeStatus"`
	IntakeError       string              `firestore:"intakeError,omitempty" json:"intakeError,omitempty"`
	Pending           PendingChangeSet    `firestore:"pendingChanges" json:"pendingChanges"`
	HasPendingChanges bool                `firestore:"hasPendingChanges" json:"hasPendingChanges"`
	OnboardedAt       *time.Time          `firestore:"onboardedAt,omitempty" json:"onboardedAt,omitempty"`
	CreatedAt         time.Time           `firestore:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `firestore:"updatedAt" json:"updatedAt"`
}

var applicationSchema = Schema{
	Fields: []Field{
		FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldAddress, FieldPostcode,
	},
	Documents: []DocumentSpec{
		{Key: DocDrivingLicence, RequiresNumber: true, RequiresExpiry: true},
		{Key: DocBadge, RequiresNumber: true, RequiresExpiry: true, RequiresAuthority: true},
		{Key: DocProofOfAddress},
	},
}

var applicationFields = fieldTable[DriverApplication]{
	FieldFirstName: func(a *DriverApplication) *string { return &a.FirstName },
	FieldLastName:  func(a *DriverApplication) *string { return &a.LastName },
	FieldEmail:     func(a *DriverApplication) *string { return &a.Email },
	FieldPhone:     func(a *DriverApplication) *string { return &a.Phone },
	FieldAddress:   func(a *DriverApplication) *string { return &a.Address },
	FieldPostcode:  func(a *DriverApplication) *string { return &a.Postcode },
}

func ApplicationSchema() Schema { return applicationSchema }

func (a DriverApplication) Schema() Schema { return applicationSchema }

func (a DriverApplication) FieldValue(f Field) (string, bool) { return applicationFields.get(a, f) }

func (a DriverApplication) WithField(f Field, value string) (DriverApplication, bool) {
	return applicationFields.set(a, f, value)
}

func (a DriverApplication) Document(key DocumentKey) Document { return a.Documents[string(key)] }

func (a DriverApplication) WithDocument(key DocumentKey, doc Document) DriverApplication {
	a.Documents = withDocument(a.Documents, key, doc)
	return a
}

func (a DriverApplication) PendingChanges() PendingChangeSet { return a.Pending }

func (a DriverApplication) WithPendingChanges(set PendingChangeSet) DriverApplication {
	a.Pending = set.Clone()
	a.HasPendingChanges = len(set) > 0
	return a
}
