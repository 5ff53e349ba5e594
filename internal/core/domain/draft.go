package domain

// SubmissionMode selects which validation policy applies to a complaint draft.
// Guest and citizen submissions intentionally disagree on which location
// fields are mandatory.
type SubmissionMode string

const (
	ModeGuest   SubmissionMode = "GUEST"
	ModeCitizen SubmissionMode = "CITIZEN"
)

// FormStep identifies a step of the multi-step complaint form
type FormStep int

const (
	StepDetails FormStep = iota + 1
	StepLocation
	StepAttachments
	StepReview
)

// DraftAttachment describes a file attached to a draft (metadata only;
// the staged bytes live with the upload manager)
type DraftAttachment struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// ComplaintDraft is an in-progress complaint assembled from form input.
// It is a plain value object; all mutation happens field-by-field before
// validation and submission.
type ComplaintDraft struct {
	// Identity
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`

	// Classification
	Category    ComplaintCategory `json:"category"`
	Description string            `json:"description"`
	Priority    Priority          `json:"priority"`

	// Location
	WardID          uint         `json:"ward_id"`
	SubZoneID       *uint        `json:"sub_zone_id,omitempty"`
	WardHasSubZones bool         `json:"-"`
	Area            string       `json:"area"`
	Landmark        string       `json:"landmark,omitempty"`
	Address         string       `json:"address,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`

	// Attachments
	Attachments []DraftAttachment `json:"attachments,omitempty"`
}
