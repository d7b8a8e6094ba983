package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/core/domain"
)

type stubVerifier struct {
	sessions map[string]*domain.Session
}

func (s stubVerifier) VerifySessionToken(token string) (*domain.Session, error) {
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return nil, domain.ErrInvalidToken
}

type stubDelegated struct {
	users map[string]string
	err   error
}

func (s stubDelegated) Verify(_ context.Context, token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if id, ok := s.users[token]; ok {
		return id, nil
	}
	return "", domain.ErrInvalidToken
}

type stubAuthenticator struct {
	username, password, userID string
}

func (s stubAuthenticator) Authenticate(_ context.Context, username, password string) (string, error) {
	if username == s.username && password == s.password {
		return s.userID, nil
	}
	return "", domain.ErrInvalidCredentials
}

// statusOf runs h and resolves a returned error the way the router's error
// handler would for the cases these middlewares produce.
func statusOf(e *echo.Echo, c echo.Context, rec *httptest.ResponseRecorder, h echo.HandlerFunc) int {
	if err := h(c); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrInvalidCredentials):
			return http.StatusUnauthorized
		default:
			e.HTTPErrorHandler(err, c)
		}
	}
	return rec.Code
}

func TestSession_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	verifier := stubVerifier{sessions: map[string]*domain.Session{
		"good": {UserID: "u1", Username: "ana", Roles: []string{"admin"}},
	}}

	called := false
	handler := Session(verifier)(func(c echo.Context) error {
		called = true
		sess, ok := SessionFrom(c)
		if !ok || sess.Username != "ana" {
			t.Fatalf("session not set")
		}
		if UserIDFrom(c) != "u1" {
			t.Fatalf("user_id not set")
		}
		if roles, _ := c.Get(ContextKeyRoles).([]string); len(roles) != 1 || roles[0] != "admin" {
			t.Fatalf("roles not set: %v", roles)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestSession_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"empty bearer":   "Bearer ",
		"unknown token":  "Bearer not-a-token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Session(stubVerifier{})(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if code := statusOf(e, c, rec, handler); code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", code)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	auth := stubAuthenticator{username: "ana", password: "pass123", userID: "u1"}

	cases := []struct {
		name string
		body string
		code int
	}{
		{"valid", `{"username":"ana","password":"pass123"}`, http.StatusOK},
		{"wrong password", `{"username":"ana","password":"nope"}`, http.StatusUnauthorized},
		{"malformed", `not-json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Credentials(auth)(func(c echo.Context) error {
				if UserIDFrom(c) != "u1" {
					t.Fatalf("user_id not set")
				}
				return c.NoContent(http.StatusOK)
			})

			if code := statusOf(e, c, rec, handler); code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
		})
	}
}

func TestAndes(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		verifier stubDelegated
		code     int
	}{
		{"known user", "Bearer andes-token", stubDelegated{users: map[string]string{"andes-token": "u1"}}, http.StatusOK},
		{"missing header", "", stubDelegated{}, http.StatusExpectationFailed},
		{"bad token", "Bearer forged", stubDelegated{}, http.StatusExpectationFailed},
		{"unknown subject", "Bearer x", stubDelegated{err: domain.ErrSessionExpired}, http.StatusExpectationFailed},
		{"store error", "Bearer x", stubDelegated{err: errors.New("mongo down")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/andes/prescriptions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Andes(tc.verifier)(func(c echo.Context) error {
				if UserIDFrom(c) != "u1" {
					t.Fatalf("user_id not set")
				}
				return c.NoContent(http.StatusOK)
			})

			if code := statusOf(e, c, rec, handler); code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, code)
			}
			if tc.code == http.StatusExpectationFailed && !strings.Contains(rec.Body.String(), "must sign in") {
				t.Fatalf("expected must sign in body, got %s", rec.Body.String())
			}
		})
	}
}
