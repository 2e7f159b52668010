package intake

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SubmissionResponse is the JSON body written for every submission attempt.
// Every response carries a freshly issued token so the client can retry
// without reloading the page.
type SubmissionResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	CSRFToken string   `json:"csrf_token"`
	Errors    ErrorSet `json:"errors,omitempty"`
}

// Server holds the intake service's collaborators and exposes its routes.
type Server struct {
	sessions SessionStore
	issuer   *TokenIssuer
	pipeline *Pipeline
	limiter  Limiter
	renderer Renderer

	// now is swapped out in tests
	now func() time.Time
}

func NewServer(sessions SessionStore, issuer *TokenIssuer, pipeline *Pipeline, limiter Limiter, renderer Renderer) *Server {
	return &Server{
		sessions: sessions,
		issuer:   issuer,
		pipeline: pipeline,
		limiter:  limiter,
		renderer: renderer,
		now:      time.Now,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/", s.handlePage("index", true))
	r.Get("/contact", s.handlePage("contact", true))
	r.Get("/appointment", s.handlePage("appointment", true))
	r.Get("/team", s.handlePage("team", false))
	r.Get("/thank-you", s.handlePage("thank_you", false))

	// rate limiting applies to the submission endpoints only, before the
	// body is parsed
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit(CareRequestForm.Name))
		r.Post("/request-care", s.handleSubmission(CareRequestForm))
	})
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit(AppointmentForm.Name))
		r.Post("/submit-appointment", s.handleSubmission(AppointmentForm))
	})

	return r
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handlePage renders a public page; form pages get a fresh token bound to
// the visitor's session.
func (s *Server) handlePage(page string, hasForm bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data PageData
		if hasForm {
			token, err := s.reissue(w, r)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			data.CSRFToken = token
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.renderer.Render(w, page, data); err != nil {
			LoggerFromContext(r.Context()).Error("render failed", "page", page, "err", err)
		}
	}
}

func (s *Server) handleSubmission(form FormSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := s.now()

		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			s.respond(w, r, http.StatusBadRequest, SubmissionResponse{Message: "Invalid submission format."})
			return
		}

		var raw RawSubmission
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			s.respond(w, r, http.StatusBadRequest, SubmissionResponse{Message: "Invalid submission format."})
			return
		}

		sid, fromScratch := sessionID(r)
		state, _ := s.sessions.Get(sid)

		result, fresh, err := s.pipeline.Process(r.Context(), form, raw, state, now)
		if err != nil {
			LoggerFromContext(r.Context()).Error("pipeline failed", "form", form.Name, "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.sessions.Put(sid, fresh, now)
		if fromScratch {
			setSessionCookie(w, sid)
		}

		writeJSON(w, result.Status, SubmissionResponse{
			Success:   result.Success,
			Message:   result.Message,
			CSRFToken: fresh.Token,
			Errors:    result.Errors,
		})
	}
}

// rateLimit admits or rejects by client identity before anything reads the
// body. A limiter backend failure is logged and fails open: a broken Redis
// should not take the intake forms down with it.
func (s *Server) rateLimit(formName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := s.now()
			ok, err := s.limiter.Allow(r.Context(), clientIP(r), now)
			if err != nil {
				LoggerFromContext(r.Context()).Error("rate limiter failed", "err", err)
				ok = true
			}
			if !ok {
				LoggerFromContext(r.Context()).Warn("submission rejected", "form", formName, "reason", reasonRateLimit)
				countSubmission(formName, reasonRateLimit)
				s.respond(w, r, http.StatusTooManyRequests, SubmissionResponse{Message: rateLimitMessage})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// respond writes a JSON submission response with a freshly issued token, for
// the paths that reject before the pipeline runs.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, resp SubmissionResponse) {
	token, err := s.reissue(w, r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	resp.CSRFToken = token
	writeJSON(w, status, resp)
}

// reissue mints a fresh token for the request's session, stores it, and
// sets the session cookie when the visitor had none.
func (s *Server) reissue(w http.ResponseWriter, r *http.Request) (string, error) {
	now := s.now()
	fresh, err := s.issuer.Issue(now)
	if err != nil {
		LoggerFromContext(r.Context()).Error("token issue failed", "err", err)
		return "", err
	}
	sid, fromScratch := sessionID(r)
	s.sessions.Put(sid, fresh, now)
	if fromScratch {
		setSessionCookie(w, sid)
	}
	return fresh.Token, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP prefers the proxy-forwarded address over the direct peer.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
