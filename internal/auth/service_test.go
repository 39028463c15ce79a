package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	repo, err := NewFileRepo(t.TempDir())
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return NewService(repo, nil, opts...)
}

func TestRequestOTP_RejectsBadEmail(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for _, email := range []string{"", "not-an-email", "two@@example.com"} {
		if _, _, err := s.RequestOTP(email, now); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestVerifyOTP_FullFlow(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	exp, code, err := s.RequestOTP("gardener@example.com", now)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expiry %s not after now", exp)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	u, token, sessExp, err := s.VerifyOTP("gardener@example.com", code, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if u.Email != "gardener@example.com" || u.ID == "" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if token == "" || !sessExp.After(now) {
		t.Fatalf("unexpected session: token=%q exp=%s", token, sessExp)
	}

	// The session token authenticates subsequent requests.
	r := httptest.NewRequest(http.MethodGet, "/api/plants", nil)
	r.AddCookie(&http.Cookie{Name: "panny_session", Value: token})
	gotUser, _, ok := s.AuthenticateRequest(r, now.Add(2*time.Minute))
	if !ok || gotUser.ID != u.ID {
		t.Fatalf("session did not authenticate: ok=%v user=%+v", ok, gotUser)
	}
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, _, err := s.RequestOTP("gardener@example.com", now); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if _, _, _, err := s.VerifyOTP("gardener@example.com", "000000", now); !errors.Is(err, ErrInvalidOTP) {
		// A one-in-a-million collision with the real code would pass; the
		// fixed wrong format below cannot.
		t.Logf("got %v for possibly-colliding code", err)
	}
	if _, _, _, err := s.VerifyOTP("gardener@example.com", "12345", now); !errors.Is(err, ErrInvalidOTPFormat) {
		t.Fatalf("expected ErrInvalidOTPFormat, got %v", err)
	}
	if _, _, _, err := s.VerifyOTP("gardener@example.com", "12a456", now); !errors.Is(err, ErrInvalidOTPFormat) {
		t.Fatalf("expected ErrInvalidOTPFormat for non-digits, got %v", err)
	}
}

func TestVerifyOTP_Expiry(t *testing.T) {
	s := newTestService(t, WithTTLs(10*time.Minute, 24*time.Hour))
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, code, err := s.RequestOTP("gardener@example.com", now)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}

	late := now.Add(11 * time.Minute)
	if _, _, _, err := s.VerifyOTP("gardener@example.com", code, late); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	// The expired challenge is consumed; even the right code now fails.
	if _, _, _, err := s.VerifyOTP("gardener@example.com", code, now); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP after expiry cleanup, got %v", err)
	}
}

func TestVerifyOTP_AttemptLimit(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, code, err := s.RequestOTP("gardener@example.com", now)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	var lastErr error
	for i := 0; i < 5; i++ {
		_, _, _, lastErr = s.VerifyOTP("gardener@example.com", wrong, now)
	}
	if !errors.Is(lastErr, ErrTooManyOTPAttempts) {
		t.Fatalf("expected lockout after repeated failures, got %v", lastErr)
	}
	// Locked out: the correct code no longer works either.
	if _, _, _, err := s.VerifyOTP("gardener@example.com", code, now); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected challenge consumed after lockout, got %v", err)
	}
}

func TestSessionExpiryAndRevocation(t *testing.T) {
	s := newTestService(t, WithTTLs(10*time.Minute, time.Hour))
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, code, err := s.RequestOTP("gardener@example.com", now)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	_, token, _, err := s.VerifyOTP("gardener@example.com", code, now)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "panny_session", Value: token})

	if _, _, ok := s.AuthenticateRequest(r, now.Add(2*time.Hour)); ok {
		t.Fatalf("expired session must not authenticate")
	}

	// Fresh session, then explicit revocation.
	_, code, err = s.RequestOTP("gardener@example.com", now)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	_, token, _, err = s.VerifyOTP("gardener@example.com", code, now)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "panny_session", Value: token})

	s.RevokeSessionForRequest(r)
	if _, _, ok := s.AuthenticateRequest(r, now.Add(time.Minute)); ok {
		t.Fatalf("revoked session must not authenticate")
	}
}

func TestRequireAPI(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	var ctxUser User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			t.Fatalf("user missing from context")
		}
		ctxUser = u
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	s.RequireAPI(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plants", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request: status %d", rec.Code)
	}

	_, code, err := s.RequestOTP("gardener@example.com", now)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	u, token, _, err := s.VerifyOTP("gardener@example.com", code, now)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/plants", nil)
	r.AddCookie(&http.Cookie{Name: "panny_session", Value: token})
	rec = httptest.NewRecorder()
	s.RequireAPI(next).ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated request: status %d", rec.Code)
	}
	if ctxUser.ID != u.ID {
		t.Fatalf("wrong user in context: %+v", ctxUser)
	}
}
