package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDraft() *ComplaintDraft {
	subZone := uint(3)
	return &ComplaintDraft{
		FullName:        "John Doe",
		Email:           "john@x.com",
		PhoneNumber:     "+1-555-0100",
		Category:        CategoryWaterSupply,
		Description:     "No water supply for 3 days",
		Priority:        PriorityMedium,
		WardID:          1,
		SubZoneID:       &subZone,
		WardHasSubZones: true,
		Area:            "Main Street",
		Landmark:        "Near the clock tower",
		Address:         "12 Main Street",
		Coordinates:     &Coordinates{Latitude: 18.52, Longitude: 73.85},
	}
}

func TestValidateDetails_ValidDraftPasses(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)
	errs := p.Validate(StepDetails, validDraft())
	assert.True(t, errs.OK(), "expected no errors, got %v", errs)
}

func TestValidateDetails_MissingRequiredFields(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)
	errs := p.Validate(StepDetails, &ComplaintDraft{})

	for _, field := range []string{"full_name", "email", "phone_number", "category", "description"} {
		assert.Contains(t, errs, field)
	}
}

func TestValidateDetails_EmailFormat(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)
	d := validDraft()
	d.Email = "not-an-email"
	errs := p.Validate(StepDetails, d)
	assert.Equal(t, "Email format is invalid", errs["email"])
}

func TestValidateDetails_DescriptionMinLength(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)
	d := validDraft()
	d.Description = "too short"
	errs := p.Validate(StepDetails, d)
	assert.Contains(t, errs["description"], "at least 10")

	d.Description = strings.Repeat("x", 10)
	errs = p.Validate(StepDetails, d)
	assert.True(t, errs.OK())
}

func TestValidateDetails_UnknownCategory(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)
	d := validDraft()
	d.Category = "POTHOLES_ON_MARS"
	errs := p.Validate(StepDetails, d)
	assert.Equal(t, "Unknown complaint type", errs["category"])
}

func TestValidateLocation_SubZoneRequiredOnlyWhenWardHasSubZones(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)

	d := validDraft()
	d.SubZoneID = nil
	d.WardHasSubZones = true
	errs := p.Validate(StepLocation, d)
	assert.Contains(t, errs, "sub_zone_id")

	d.WardHasSubZones = false
	errs = p.Validate(StepLocation, d)
	assert.True(t, errs.OK())
}

func TestValidateLocation_GuestVsCitizenPolicy(t *testing.T) {
	d := validDraft()
	d.Landmark = ""
	d.Address = ""
	d.Coordinates = nil

	guestErrs := PolicyFor(ModeGuest, 10).Validate(StepLocation, d)
	assert.True(t, guestErrs.OK(), "guest mode treats landmark/address/coordinates as optional")

	citizenErrs := PolicyFor(ModeCitizen, 10).Validate(StepLocation, d)
	assert.Contains(t, citizenErrs, "landmark")
	assert.Contains(t, citizenErrs, "address")
	assert.Contains(t, citizenErrs, "coordinates")
}

func TestValidateLocation_CoordinateBounds(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)
	d := validDraft()
	d.Coordinates = &Coordinates{Latitude: 120, Longitude: 0}
	errs := p.Validate(StepLocation, d)
	assert.Contains(t, errs, "coordinates")
}

func TestValidateAttachmentsStep_NoRequiredFields(t *testing.T) {
	p := PolicyFor(ModeGuest, 10)
	errs := p.Validate(StepAttachments, &ComplaintDraft{})
	assert.True(t, errs.OK())
}

func TestValidateAll_CombinesSteps(t *testing.T) {
	p := PolicyFor(ModeCitizen, 10)
	errs := p.ValidateAll(&ComplaintDraft{})
	assert.Contains(t, errs, "full_name")
	assert.Contains(t, errs, "ward_id")
	assert.Contains(t, errs, "area")
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ComplaintStatus
		ok       bool
	}{
		{StatusRegistered, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusResolved, true},
		{StatusResolved, StatusClosed, true},
		{StatusResolved, StatusReopened, true},
		{StatusClosed, StatusReopened, true},
		{StatusReopened, StatusAssigned, true},
		{StatusRegistered, StatusResolved, false},
		{StatusClosed, StatusInProgress, false},
		{StatusResolved, StatusRegistered, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
