package intake

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// submissionsTotal counts admission outcomes per form. Outcomes mirror the
// pipeline: admitted, rejected_abuse, rejected_validation, delivery_failed,
// plus rate_limited recorded at the middleware.
var submissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "intake_submissions_total",
		Help: "Intake form submissions by form and admission outcome.",
	},
	[]string{"form", "outcome"},
)

func countSubmission(form, outcome string) {
	submissionsTotal.WithLabelValues(form, outcome).Inc()
}
