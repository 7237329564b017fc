package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/roleboard/internal/actorctx"
	"github.com/geocoder89/roleboard/internal/auth"
	"github.com/geocoder89/roleboard/internal/auth/revocation"
	"github.com/geocoder89/roleboard/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type fakeUsers map[string]user.User

func (f fakeUsers) FindByID(_ context.Context, id string) (user.User, error) {
	u, ok := f[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

type gateFixture struct {
	router  *gin.Engine
	jwt     *auth.Manager
	revoked *revocation.MemoryStore
}

func newGateFixture(t *testing.T) gateFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt := auth.NewManager("test-secret", 24*time.Hour, 10*time.Minute)
	revoked := revocation.NewMemoryStore()
	users := fakeUsers{
		"admin-1": {ID: "admin-1", Role: user.RoleAdmin},
		"user-1":  {ID: "user-1", Role: user.RoleUser},
	}

	m := NewAuthMiddleware(jwt, revoked, users)

	r := gin.New()
	r.Use(RequestID())

	protected := r.Group("/", m.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		u, _ := UserFromContext(c)
		fromCtx, _ := actorctx.UserFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "ctxId": fromCtx.ID})
	})
	protected.GET("/admin", RequireRole(user.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return gateFixture{router: r, jwt: jwt, revoked: revoked}
}

func (f gateFixture) do(t *testing.T, path, authz string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	f := newGateFixture(t)

	session, _ := f.jwt.IssueSessionToken("user-1", "user")
	reset, _ := f.jwt.IssueResetToken("user-1")
	ghost, _ := f.jwt.IssueSessionToken("deleted-user", "user")

	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"missing_header", "", http.StatusUnauthorized},
		{"wrong_scheme", "Basic abc", http.StatusUnauthorized},
		{"empty_token", "Bearer ", http.StatusUnauthorized},
		{"garbage_token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"reset_token_as_session", "Bearer " + reset, http.StatusUnauthorized},
		{"deleted_user", "Bearer " + ghost, http.StatusUnauthorized},
		{"valid", "Bearer " + session, http.StatusOK},
		{"lowercase_scheme", "bearer " + session, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, "/me", tt.authz)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d body=%s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestRequireAuth_AttachesUserToBothContexts(t *testing.T) {
	f := newGateFixture(t)
	session, _ := f.jwt.IssueSessionToken("user-1", "user")

	w := f.do(t, "/me", "Bearer "+session)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "user-1" || body["ctxId"] != "user-1" {
		t.Fatalf("body = %v", body)
	}
}

func TestRequireAuth_RevokedSession(t *testing.T) {
	f := newGateFixture(t)
	session, _ := f.jwt.IssueSessionToken("user-1", "user")
	claims, err := f.jwt.VerifySessionToken(session)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	_ = f.revoked.Revoke(context.Background(), claims.JTI, claims.ExpiresAtTime())

	w := f.do(t, "/me", "Bearer "+session)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "unauthorized" || body["message"] == "" || body["requestId"] == "" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestRequireRole(t *testing.T) {
	f := newGateFixture(t)
	admin, _ := f.jwt.IssueSessionToken("admin-1", "admin")
	member, _ := f.jwt.IssueSessionToken("user-1", "user")

	if w := f.do(t, "/admin", "Bearer "+admin); w.Code != http.StatusOK {
		t.Fatalf("admin got %d", w.Code)
	}
	if w := f.do(t, "/admin", "Bearer "+member); w.Code != http.StatusForbidden {
		t.Fatalf("user got %d, want 403", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if hit() != http.StatusOK || hit() != http.StatusOK {
		t.Fatalf("first two requests should pass")
	}
	if got := hit(); got != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", got)
	}

	now = now.Add(2 * time.Minute)
	if n := rl.Sweep(); n != 1 {
		t.Fatalf("sweep removed %d buckets", n)
	}
	if got := hit(); got != http.StatusOK {
		t.Fatalf("after window = %d", got)
	}
}

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/x", RequireJSON(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("empty body should pass, got %d", w.Code)
	}
}

func TestRequireContentType_Multipart(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/upload", RequireContentType("multipart/form-data"), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		ct   string
		want int
	}{
		{"multipart/form-data; boundary=xyz", http.StatusOK},
		{"Multipart/Form-Data; boundary=xyz", http.StatusOK},
		{"application/json", http.StatusUnsupportedMediaType},
		{"", http.StatusUnsupportedMediaType},
		{"multipart/form-data; boundary", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("body"))
		if tt.ct != "" {
			req.Header.Set("Content-Type", tt.ct)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("Content-Type %q: status = %d, want %d", tt.ct, w.Code, tt.want)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://app.test/"}))
	r.GET("/api/tasks/my-tasks", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/my-tasks", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Retry-After") || !strings.Contains(got, "ETag") {
		t.Fatalf("expose headers = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/my-tasks", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origin allowed: %q", got)
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Fatalf("Vary missing for cross origin request")
	}
}
