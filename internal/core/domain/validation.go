package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldErrors maps a form field name to its validation message.
// An empty map means the validated step passed.
type FieldErrors map[string]string

// OK reports whether no field failed validation
func (e FieldErrors) OK() bool {
	return len(e) == 0
}

// Merge copies all entries of other into e
func (e FieldErrors) Merge(other FieldErrors) {
	for field, msg := range other {
		e[field] = msg
	}
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]{7,20}$`)
)

// ValidationPolicy holds the per-mode validation rules for complaint drafts.
// Guest and citizen forms share the same shape but disagree on mandatory
// location fields and on the description length threshold.
type ValidationPolicy struct {
	Mode               SubmissionMode
	MinDescriptionLen  int
	RequireLandmark    bool
	RequireAddress     bool
	RequireCoordinates bool
}

// PolicyFor returns the validation policy for a submission mode
func PolicyFor(mode SubmissionMode, minDescriptionLen int) ValidationPolicy {
	if minDescriptionLen <= 0 {
		minDescriptionLen = 10
	}
	p := ValidationPolicy{Mode: mode, MinDescriptionLen: minDescriptionLen}
	if mode == ModeCitizen {
		p.RequireLandmark = true
		p.RequireAddress = true
		p.RequireCoordinates = true
	}
	return p
}

// Validate checks a single form step against the draft. Pure and
// deterministic; returns a per-field error map, empty when the step passes.
func (p ValidationPolicy) Validate(step FormStep, d *ComplaintDraft) FieldErrors {
	errs := FieldErrors{}
	switch step {
	case StepDetails:
		p.validateDetails(d, errs)
	case StepLocation:
		p.validateLocation(d, errs)
	case StepAttachments:
		// Structural file checks happen at acceptance time in the upload
		// manager; the step itself has no required fields.
	case StepReview:
		// Review re-checks everything that came before it
		p.validateDetails(d, errs)
		p.validateLocation(d, errs)
	}
	return errs
}

// ValidateIdentity checks only the identity fields. The guest intake call
// happens before the rest of the draft exists, so it validates this subset.
func (p ValidationPolicy) ValidateIdentity(d *ComplaintDraft) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.FullName) == "" {
		errs["full_name"] = "Full name is required"
	}
	if strings.TrimSpace(d.Email) == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(d.Email) {
		errs["email"] = "Email format is invalid"
	}
	if strings.TrimSpace(d.PhoneNumber) == "" {
		errs["phone_number"] = "Phone number is required"
	} else if !phonePattern.MatchString(d.PhoneNumber) {
		errs["phone_number"] = "Phone number format is invalid"
	}
	return errs
}

// ValidateAll runs every step and returns the combined error map
func (p ValidationPolicy) ValidateAll(d *ComplaintDraft) FieldErrors {
	errs := FieldErrors{}
	errs.Merge(p.Validate(StepDetails, d))
	errs.Merge(p.Validate(StepLocation, d))
	return errs
}

func (p ValidationPolicy) validateDetails(d *ComplaintDraft, errs FieldErrors) {
	if strings.TrimSpace(d.FullName) == "" {
		errs["full_name"] = "Full name is required"
	}
	if strings.TrimSpace(d.Email) == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(d.Email) {
		errs["email"] = "Email format is invalid"
	}
	if strings.TrimSpace(d.PhoneNumber) == "" {
		errs["phone_number"] = "Phone number is required"
	} else if !phonePattern.MatchString(d.PhoneNumber) {
		errs["phone_number"] = "Phone number format is invalid"
	}
	if d.Category == "" {
		errs["category"] = "Complaint type is required"
	} else if !ValidCategory(d.Category) {
		errs["category"] = "Unknown complaint type"
	}
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		errs["description"] = "Description is required"
	} else if len(desc) < p.MinDescriptionLen {
		errs["description"] = fmt.Sprintf("Description must be at least %d characters", p.MinDescriptionLen)
	}
	if d.Priority != "" && !ValidPriority(d.Priority) {
		errs["priority"] = "Unknown priority"
	}
}

func (p ValidationPolicy) validateLocation(d *ComplaintDraft, errs FieldErrors) {
	if d.WardID == 0 {
		errs["ward_id"] = "Ward is required"
	}
	// Sub-zone becomes mandatory only when the chosen ward exposes sub-zones
	if d.WardHasSubZones && d.SubZoneID == nil {
		errs["sub_zone_id"] = "Sub-zone is required for the selected ward"
	}
	if strings.TrimSpace(d.Area) == "" {
		errs["area"] = "Area is required"
	}
	if p.RequireLandmark && strings.TrimSpace(d.Landmark) == "" {
		errs["landmark"] = "Landmark is required"
	}
	if p.RequireAddress && strings.TrimSpace(d.Address) == "" {
		errs["address"] = "Address is required"
	}
	if p.RequireCoordinates && d.Coordinates == nil {
		errs["coordinates"] = "Location coordinates are required"
	}
	if d.Coordinates != nil {
		if d.Coordinates.Latitude < -90 || d.Coordinates.Latitude > 90 {
			errs["coordinates"] = "Latitude must be between -90 and 90"
		}
		if d.Coordinates.Longitude < -180 || d.Coordinates.Longitude > 180 {
			errs["coordinates"] = "Longitude must be between -180 and 180"
		}
	}
}
