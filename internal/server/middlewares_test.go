package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type nopLogger struct{}

func (nopLogger) Debug(...any)          {}
func (nopLogger) Info(...any)           {}
func (nopLogger) Error(...any)          {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

func testKey(t *testing.T, secret string) jwk.Key {
	key, err := jwk.FromRaw([]byte(secret))
	if err != nil {
		t.Fatalf("creating key: %v", err)
	}
	return key
}

func signedToken(t *testing.T, key jwk.Key) string {
	tok, err := jwt.NewBuilder().
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	if err != nil {
		t.Fatalf("building token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, key))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return string(signed)
}

func TestAuthMw(t *testing.T) {
	key := testKey(t, "0123456789abcdef0123456789abcdef")
	s := Server{Logger: nopLogger{}, AdminSecretKey: key}

	var reached bool
	handler := s.authMw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantReach  bool
	}{
		{"valid token", "Bearer " + signedToken(t, key), http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"not a bearer token", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, false},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, false},
		{
			"token signed with wrong key",
			"Bearer " + signedToken(t, testKey(t, "ffffffffffffffffffffffffffffffff")),
			http.StatusUnauthorized,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodPost, "/api/admin/scan", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if reached != tt.wantReach {
				t.Errorf("handler reached = %t, want %t", reached, tt.wantReach)
			}
		})
	}
}

func TestAuthMwExpiredToken(t *testing.T) {
	key := testKey(t, "0123456789abcdef0123456789abcdef")
	s := Server{Logger: nopLogger{}, AdminSecretKey: key}

	tok, err := jwt.NewBuilder().
		IssuedAt(time.Now().Add(-2 * time.Hour)).
		Expiration(time.Now().Add(-time.Hour)).
		Build()
	if err != nil {
		t.Fatalf("building token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, key))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	handler := s.authMw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with an expired token")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/scan", nil)
	req.Header.Set("Authorization", "Bearer "+string(signed))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
