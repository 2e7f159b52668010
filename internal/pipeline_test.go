package intake

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifyCall struct {
	subject string
	replyTo string
	body    string
}

type fakeNotifier struct {
	mu      sync.Mutex
	calls   []notifyCall
	ok      bool
	message string
}

func (f *fakeNotifier) Send(subject, replyTo, body string) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{subject: subject, replyTo: replyTo, body: body})
	return f.ok, f.message
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestPipeline(notifier Notifier) *Pipeline {
	return NewPipeline(NewTokenIssuer(3*time.Second), notifier)
}

func issuedState(t *testing.T, p *Pipeline, at time.Time) TokenState {
	t.Helper()
	state, err := p.issuer.Issue(at)
	require.NoError(t, err)
	return state
}

func carePayload(state TokenState) RawSubmission {
	raw := validCareRequest()
	raw["csrf_token"] = state.Token
	return raw
}

func TestPipelineForwardsValidSubmission(t *testing.T) {
	notifier := &fakeNotifier{ok: true, message: "Request sent successfully."}
	p := newTestPipeline(notifier)

	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	state := issuedState(t, p, t0)
	now := t0.Add(5 * time.Second)

	result, fresh, err := p.Process(context.Background(), CareRequestForm, carePayload(state), state, now)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Status)
	assert.True(t, result.Success)
	assert.Equal(t, "Request sent successfully.", result.Message)
	assert.Nil(t, result.Errors)
	assert.NotEqual(t, state.Token, fresh.Token, "every response reissues the token")

	require.Equal(t, 1, notifier.callCount())
	call := notifier.calls[0]
	assert.Equal(t, "New Care Request from Jane Doe", call.subject)
	assert.Equal(t, "jane@example.com", call.replyTo)
	assert.Contains(t, call.body, "Full Name: Jane Doe")
	assert.Contains(t, call.body, "Additional Notes: hi", "notifier must receive sanitized fields")
	assert.NotContains(t, call.body, "<b>")
}

func TestPipelineHoneypotShortCircuits(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	p := newTestPipeline(notifier)

	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	state := issuedState(t, p, t0)
	raw := carePayload(state)
	raw["service_interest"] = "anything"

	result, fresh, err := p.Process(context.Background(), CareRequestForm, raw, state, t0.Add(5*time.Second))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.False(t, result.Success)
	assert.Equal(t, genericRejectMessage, result.Message)
	assert.NotEmpty(t, fresh.Token)
	assert.Equal(t, 0, notifier.callCount(), "honeypot hits must never reach the notifier")
}

func TestPipelineTokenMismatch(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	p := newTestPipeline(notifier)

	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	state := issuedState(t, p, t0)
	raw := carePayload(state)
	raw["csrf_token"] = "deadbeefdeadbeefdeadbeefdeadbeef"

	result, fresh, err := p.Process(context.Background(), CareRequestForm, raw, state, t0.Add(5*time.Second))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, genericRejectMessage, result.Message)
	assert.NotEqual(t, state.Token, fresh.Token)
	assert.Equal(t, 0, notifier.callCount())
}

func TestPipelineTooFastRejectedRegardlessOfFields(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	p := newTestPipeline(notifier)

	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	state := issuedState(t, p, t0)

	result, _, err := p.Process(context.Background(), CareRequestForm, carePayload(state), state, t0.Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, genericRejectMessage, result.Message, "timing rejections must not reveal the failing check")
	assert.Equal(t, 0, notifier.callCount())
}

func TestPipelineValidationErrorsSurfaceAllFields(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	p := newTestPipeline(notifier)

	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	state := issuedState(t, p, t0)
	raw := RawSubmission{"csrf_token": state.Token, "full_name": "Jane Doe"}

	result, fresh, err := p.Process(context.Background(), CareRequestForm, raw, state, t0.Add(5*time.Second))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, validationMessage, result.Message)
	assert.Len(t, result.Errors, len(CareRequestForm.Required)-1)
	assert.NotEqual(t, state.Token, fresh.Token)
	assert.Equal(t, 0, notifier.callCount())
}

func TestPipelineDeliveryFailure(t *testing.T) {
	notifier := &fakeNotifier{ok: false, message: "Unable to send email at this time."}
	p := newTestPipeline(notifier)

	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	state := issuedState(t, p, t0)

	result, fresh, err := p.Process(context.Background(), CareRequestForm, carePayload(state), state, t0.Add(5*time.Second))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.False(t, result.Success)
	assert.NotEmpty(t, fresh.Token, "a delivery failure still reissues a usable token")
	assert.Equal(t, 1, notifier.callCount(), "delivery failure is not an admission failure")
}

func TestPipelineAppointmentComposition(t *testing.T) {
	notifier := &fakeNotifier{ok: true, message: "Request sent successfully."}
	p := newTestPipeline(notifier)

	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	state := issuedState(t, p, t0)
	raw := RawSubmission{
		"csrf_token":     state.Token,
		"full_name":      "John Roe",
		"email":          "john@example.com",
		"phone":          "555-0000",
		"preferred_date": "2025-02-02",
		"preferred_time": "10:30",
	}

	result, _, err := p.Process(context.Background(), AppointmentForm, raw, state, t0.Add(5*time.Second))
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Equal(t, 1, notifier.callCount())
	call := notifier.calls[0]
	assert.Equal(t, "Appointment Request from John Roe", call.subject)
	assert.Contains(t, call.body, "Preferred Time: 10:30")
	assert.Contains(t, call.body, "Reason: N/A", "empty optionals render as N/A")
}
