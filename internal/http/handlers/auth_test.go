package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/roleboard/internal/auth"
	"github.com/geocoder89/roleboard/internal/auth/revocation"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/geocoder89/roleboard/internal/notifications"
	"github.com/gin-gonic/gin"
)

type stubCredentials struct {
	failSet   error
	setCalls  int
	passwords map[string]string
}

func (s *stubCredentials) Authenticate(context.Context, string, string) (user.User, error) {
	return user.User{}, errors.New("not used")
}

func (s *stubCredentials) FindByEmail(context.Context, string) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func (s *stubCredentials) FindByID(_ context.Context, id string) (user.User, error) {
	if id != "u1" {
		return user.User{}, user.ErrNotFound
	}
	return user.User{ID: "u1", Email: "ann@example.com"}, nil
}

func (s *stubCredentials) SetPassword(_ context.Context, id, plain string) error {
	s.setCalls++
	if s.failSet != nil {
		err := s.failSet
		s.failSet = nil
		return err
	}
	s.passwords[id] = plain
	return nil
}

type nopNotifier struct{}

func (nopNotifier) SendPasswordReset(context.Context, notifications.PasswordResetInput) error {
	return nil
}

func newResetRouter(t *testing.T, creds *stubCredentials) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt := auth.NewManager("test-secret-key", time.Hour, 10*time.Minute)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuthHandler(creds, jwt, revocation.NewMemoryStore(), nopNotifier{}, nil, "http://app.test", log)

	r := gin.New()
	r.PUT("/reset-password/:token", h.ResetPassword)
	return r, jwt
}

func putReset(r *gin.Engine, token, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(gin.H{"newPassword": password})
	req := httptest.NewRequest(http.MethodPut, "/reset-password/"+token, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body APIError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return body.Code
}

func TestResetPassword_StoreFailureKeepsTokenUsable(t *testing.T) {
	creds := &stubCredentials{failSet: errors.New("connection reset"), passwords: map[string]string{}}
	r, jwt := newResetRouter(t, creds)

	token, err := jwt.IssueResetToken("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if w := putReset(r, token, "brand-new"); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (%s)", w.Code, w.Body.String())
	}

	if w := putReset(r, token, "brand-new"); w.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if creds.passwords["u1"] != "brand-new" {
		t.Fatalf("password not stored on retry")
	}

	w := putReset(r, token, "another1")
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_token" {
		t.Fatalf("third use status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestResetPassword_RejectsUnhashablePasswordBeforeSpendingToken(t *testing.T) {
	creds := &stubCredentials{passwords: map[string]string{}}
	r, jwt := newResetRouter(t, creds)

	token, err := jwt.IssueResetToken("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name     string
		password string
	}{
		// caught by the binding
		{"ascii_80_bytes", strings.Repeat("a", 80)},
		// 40 runes passes max=72 but is 80 bytes
		{"multibyte_80_bytes", strings.Repeat("é", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := putReset(r, token, tt.password)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", w.Code, w.Body.String())
			}
			if code := errorCode(t, w); code != "invalid_request" {
				t.Fatalf("code = %q, want invalid_request", code)
			}
		})
	}

	if creds.setCalls != 0 {
		t.Fatalf("SetPassword called %d times for rejected passwords", creds.setCalls)
	}

	if w := putReset(r, token, "brand-new"); w.Code != http.StatusOK {
		t.Fatalf("valid retry status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
}
