package dto

// IntakePayload is the body posted to the external applicant intake endpoint.
type IntakePayload struct {
	Applicant   IntakeApplicant    `json:"applicant"`
	Attachments []IntakeAttachment `json:"attachments"`
}

type IntakeApplicant struct {
	ApplicationID string `json:"applicationId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Postcode      string `json:"postcode"`
}

type IntakeAttachment struct {
	DocumentKey      string `json:"documentKey"`
	FileName         string `json:"fileName"`
	FileRef          string `json:"fileRef"`
	Number           string `json:"number,omitempty"`
	Expiry           string `json:"expiry,omitempty"`
	IssuingAuthority string `json:"issuingAuthority,omitempty"`
}

type IntakeRetryResult struct {
	Attempted int
	Delivered int
	Failed    int
}
