package intake

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RawSubmission is the client's field map as decoded from the request body.
type RawSubmission map[string]string

// ValidatedSubmission holds the sanitized fields of a submission that passed
// every rule. It is only ever built when the error set is empty.
type ValidatedSubmission map[string]string

// ErrorSet maps field names to the message shown next to them.
type ErrorSet map[string]string

// RequiredField is one required entry of a form, with the message reported
// when it is missing. Email fields additionally get a shape check.
type RequiredField struct {
	Name    string
	Message string
	Email   bool
}

// FormSpec describes one of the public forms: its required fields in display
// order, optional free-text fields, and the honeypot field bots tend to fill.
type FormSpec struct {
	Name     string
	Honeypot string
	Required []RequiredField
	Optional []string
}

// CareRequestForm is the home-care request form.
var CareRequestForm = FormSpec{
	Name:     "care_request",
	Honeypot: "service_interest",
	Required: []RequiredField{
		{Name: "full_name", Message: "Full name is required."},
		{Name: "phone", Message: "Phone number is required."},
		{Name: "email", Message: "Valid email is required.", Email: true},
		{Name: "address", Message: "Address is required."},
		{Name: "start_date", Message: "Preferred start date is required."},
		{Name: "care_type", Message: "Care type selection is required."},
	},
	Optional: []string{"notes"},
}

// AppointmentForm is the in-person appointment request form.
var AppointmentForm = FormSpec{
	Name:     "appointment",
	Honeypot: "appointment_guard",
	Required: []RequiredField{
		{Name: "full_name", Message: "Full name is required."},
		{Name: "email", Message: "A valid email is required.", Email: true},
		{Name: "phone", Message: "Phone number is required."},
		{Name: "preferred_date", Message: "Preferred date is required."},
		{Name: "preferred_time", Message: "Preferred time is required."},
	},
	Optional: []string{"reason"},
}

// Validate applies the form's required-field and format rules to raw. It
// accumulates every error so the client can highlight the whole form in one
// pass; the sanitized submission is built only when no error exists.
func Validate(raw RawSubmission, form FormSpec) (ValidatedSubmission, ErrorSet) {
	errs := ErrorSet{}

	for _, f := range form.Required {
		value := strings.TrimSpace(raw[f.Name])
		if value == "" {
			errs[f.Name] = f.Message
			continue
		}
		if f.Email && !emailPattern.MatchString(value) {
			errs[f.Name] = "Please enter a valid email address."
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	clean := ValidatedSubmission{}
	for _, f := range form.Required {
		clean[f.Name] = Sanitize(raw[f.Name])
	}
	for _, name := range form.Optional {
		clean[name] = Sanitize(raw[name])
	}
	return clean, nil
}
