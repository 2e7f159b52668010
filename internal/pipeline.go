package intake

import (
	"context"
	"net/http"
	"time"
)

// Rejection reasons, logged server-side. Abuse rejections all surface to the
// client as the same generic message so automated callers cannot tell which
// check tripped.
const (
	reasonHoneypot  = "honeypot"
	reasonCSRF      = "csrf"
	reasonBotTiming = "bot_timing"
	reasonRateLimit = "rate_limited"
)

const (
	genericRejectMessage = "Invalid submission."
	validationMessage    = "Please review highlighted fields."
	rateLimitMessage     = "Too many requests. Please try later."
)

// Result is the admission decision for one submission attempt: the HTTP
// status and body fields the handler writes back. Errors is non-nil only for
// validation rejections.
type Result struct {
	Status  int
	Success bool
	Message string
	Errors  ErrorSet
}

// Pipeline runs the per-submission admission checks in order: honeypot,
// token, fill timing, field validation, then handoff to the notifier. Rate
// limiting is not here; it runs at the transport boundary before the body is
// parsed (see RateLimitMiddleware).
//
// Process takes the session's token state explicitly and returns the fresh
// state to store, so the pipeline itself holds no session state and tests
// need no session machinery. Every outcome, success or rejection, comes with
// a fresh token.
type Pipeline struct {
	issuer   *TokenIssuer
	notifier Notifier
}

func NewPipeline(issuer *TokenIssuer, notifier Notifier) *Pipeline {
	return &Pipeline{issuer: issuer, notifier: notifier}
}

func (p *Pipeline) Process(ctx context.Context, form FormSpec, raw RawSubmission, state TokenState, now time.Time) (Result, TokenState, error) {
	logger := LoggerFromContext(ctx)

	fresh, err := p.issuer.Issue(now)
	if err != nil {
		return Result{}, TokenState{}, err
	}

	// A filled honeypot is a definite bot; nothing else needs checking.
	if raw[form.Honeypot] != "" {
		logger.Warn("submission rejected", "form", form.Name, "reason", reasonHoneypot)
		countSubmission(form.Name, "rejected_abuse")
		return Result{Status: http.StatusBadRequest, Message: genericRejectMessage}, fresh, nil
	}

	switch p.issuer.Validate(state, raw["csrf_token"], now) {
	case TokenMismatch:
		logger.Warn("submission rejected", "form", form.Name, "reason", reasonCSRF)
		countSubmission(form.Name, "rejected_abuse")
		return Result{Status: http.StatusBadRequest, Message: genericRejectMessage}, fresh, nil
	case TokenTooFast:
		logger.Warn("submission rejected", "form", form.Name, "reason", reasonBotTiming)
		countSubmission(form.Name, "rejected_abuse")
		return Result{Status: http.StatusBadRequest, Message: genericRejectMessage}, fresh, nil
	}

	clean, fieldErrs := Validate(raw, form)
	if fieldErrs != nil {
		countSubmission(form.Name, "rejected_validation")
		return Result{Status: http.StatusBadRequest, Message: validationMessage, Errors: fieldErrs}, fresh, nil
	}

	subject, body := ComposeNotification(form, clean, now)
	ok, message := p.notifier.Send(subject, clean["email"], body)
	if !ok {
		// delivery trouble, not an admission problem; the caller may retry
		countSubmission(form.Name, "delivery_failed")
		return Result{Status: http.StatusInternalServerError, Message: message}, fresh, nil
	}

	logger.Info("submission forwarded", "form", form.Name, "name", clean["full_name"])
	countSubmission(form.Name, "admitted")
	return Result{Status: http.StatusOK, Success: true, Message: message}, fresh, nil
}
