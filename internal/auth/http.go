package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Tai-DucTran/Panny/internal/httpmw"
)

// OTPDeliverer hands a freshly issued code to the user. The default
// writes it to the service log: self-hosted instances rarely have an
// outbound mailer, and the operator reads the code off the console.
type OTPDeliverer func(email, code string, expiresAt time.Time)

type Handler struct {
	service *Service
	deliver OTPDeliverer
}

func NewHandler(service *Service) *Handler {
	h := &Handler{service: service}
	h.deliver = func(email, code string, expiresAt time.Time) {
		service.logger.Printf("[auth] OTP code for %s is %s (expires %s)", email, code, expiresAt.Format(time.RFC3339))
	}
	return h
}

// SetOTPDeliverer replaces console delivery, e.g. with a mailer.
func (h *Handler) SetOTPDeliverer(fn OTPDeliverer) {
	if fn != nil {
		h.deliver = fn
	}
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// respondErr includes the request id so a user quoting an error from
// the login screen can be matched to the access log.
func respondErr(w http.ResponseWriter, r *http.Request, code int, msg string) {
	body := map[string]any{"error": msg}
	if rid := httpmw.RequestIDFromContext(r.Context()); rid != "" {
		body["requestId"] = rid
	}
	respond(w, code, body)
}

// statusForAuthErr maps service failures onto the status codes the
// login flow distinguishes: bad input, bad credential, lockout.
func statusForAuthErr(err error) int {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidOTPFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidOTP), errors.Is(err, ErrOTPExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTooManyOTPAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func userPayload(u User) map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
	}
}

type credentials struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func readCredentials(r *http.Request) (credentials, error) {
	var in credentials
	err := json.NewDecoder(r.Body).Decode(&in)
	return in, err
}

// POST /api/auth/request-otp
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondErr(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	in, err := readCredentials(r)
	if err != nil {
		respondErr(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	exp, code, err := h.service.RequestOTP(in.Email, time.Now())
	if err != nil {
		if errors.Is(err, ErrInvalidEmail) {
			respondErr(w, r, http.StatusBadRequest, err.Error())
			return
		}
		respondErr(w, r, http.StatusInternalServerError, "could not request otp")
		return
	}

	h.deliver(in.Email, code, exp)

	respond(w, http.StatusOK, map[string]any{
		"ok":        true,
		"expiresAt": exp.Format(time.RFC3339),
	})
}

// POST /api/auth/verify-otp
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondErr(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	in, err := readCredentials(r)
	if err != nil {
		respondErr(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	u, token, exp, err := h.service.VerifyOTP(in.Email, in.Code, time.Now())
	if err != nil {
		code := statusForAuthErr(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			msg = "could not verify otp"
		}
		respondErr(w, r, code, msg)
		return
	}

	h.service.SetSessionCookie(w, r, token, exp)

	respond(w, http.StatusOK, map[string]any{
		"ok":        true,
		"user":      userPayload(u),
		"expiresAt": exp.Format(time.RFC3339),
	})
}

// GET /api/auth/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondErr(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	u, sess, ok := h.service.AuthenticateRequest(r, time.Now())
	if !ok {
		respondErr(w, r, http.StatusUnauthorized, "unauthenticated")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": userPayload(u),
		"session": map[string]any{
			"id":        sess.ID,
			"expiresAt": sess.ExpiresAt.Format(time.RFC3339),
			"lastSeen":  sess.LastSeen.Format(time.RFC3339),
		},
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondErr(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.service.RevokeSessionForRequest(r)
	h.service.ClearSessionCookie(w, r)
	respond(w, http.StatusOK, map[string]any{"ok": true})
}
