package intake

import (
	"fmt"
	"time"
)

// Notifier forwards an accepted submission to the operator. Implementations
// own the transport; a failure is reported through the return values, never
// by panicking past the pipeline.
type Notifier interface {
	Send(subject, replyTo, body string) (bool, string)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// ComposeNotification renders the operator email for a validated submission.
func ComposeNotification(form FormSpec, sub ValidatedSubmission, now time.Time) (subject, body string) {
	stamp := now.UTC().Format("2006-01-02T15:04:05")
	switch form.Name {
	case AppointmentForm.Name:
		subject = fmt.Sprintf("Appointment Request from %s", sub["full_name"])
		body = fmt.Sprintf(
			"New in-person appointment request submitted on %s UTC\n\n"+
				"Full Name: %s\n"+
				"Email: %s\n"+
				"Phone: %s\n"+
				"Preferred Date: %s\n"+
				"Preferred Time: %s\n"+
				"Reason: %s\n",
			stamp, sub["full_name"], sub["email"], sub["phone"],
			sub["preferred_date"], sub["preferred_time"], orNA(sub["reason"]),
		)
	default:
		subject = fmt.Sprintf("New Care Request from %s", sub["full_name"])
		body = fmt.Sprintf(
			"New care request submitted on %s UTC\n\n"+
				"Full Name: %s\n"+
				"Phone: %s\n"+
				"Email: %s\n"+
				"Address: %s\n"+
				"Preferred Start Date: %s\n"+
				"Type of Care: %s\n"+
				"Additional Notes: %s\n",
			stamp, sub["full_name"], sub["phone"], sub["email"],
			sub["address"], sub["start_date"], sub["care_type"], orNA(sub["notes"]),
		)
	}
	return subject, body
}
