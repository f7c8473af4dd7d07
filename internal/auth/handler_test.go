package auth

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/web"
)

type testClient struct {
	router  *gin.Engine
	cookies map[string]*http.Cookie
	calls   int
}

func newTestClient(t *testing.T) (*testClient, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	m := NewManager(svc, logging.Discard())

	tc := &testClient{cookies: map[string]*http.Cookie{}}
	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())
	router.Use(sessions.Sessions(SessionCookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	router.GET("/login", m.LoginPage)
	router.POST("/login", m.Login)
	router.GET("/register", m.RegisterPage)
	router.POST("/register", m.Register)
	router.GET("/logout", m.Logout)
	router.GET("/", m.RequireLogin(ModePage), func(c *gin.Context) {
		c.String(http.StatusOK, "home:"+CurrentUser(c))
	})
	router.POST("/api/echo", m.RequireLogin(ModeAPI), m.VerifyCSRF(), func(c *gin.Context) {
		tc.calls++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	tc.router = router
	return tc, m
}

func (tc *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	tc.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		tc.cookies[c.Name] = c
	}
	return rec
}

func (tc *testClient) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return tc.do(req)
}

func (tc *testClient) get(path string) *httptest.ResponseRecorder {
	return tc.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func creds(user, pass string) url.Values {
	return url.Values{"username": {user}, "password": {pass}}
}

func TestRegisterRedirectsToLoginWithoutSession(t *testing.T) {
	tc, _ := newTestClient(t)

	rec := tc.postForm("/register", creds("alice", "pw"))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Header().Get("Location"))
	}

	rec = tc.get("/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("registration must not log in, got %d", rec.Code)
	}
}

func TestRegisterDuplicateRendersMessage(t *testing.T) {
	tc, _ := newTestClient(t)
	tc.postForm("/register", creds("alice", "pw"))

	rec := tc.postForm("/register", creds("alice", "other"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Username already exists") {
		t.Fatalf("missing duplicate message: %s", rec.Body.String())
	}
}

func TestRegisterMissingFields(t *testing.T) {
	tc, _ := newTestClient(t)

	rec := tc.postForm("/register", url.Values{"username": {"alice"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	tc, _ := newTestClient(t)
	tc.postForm("/register", creds("alice", "right"))

	wrong := tc.postForm("/login", creds("alice", "wrong"))
	unknown := tc.postForm("/login", creds("nobody", "wrong"))

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d / %d, want 401", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ:\n%s\n---\n%s", wrong.Body.String(), unknown.Body.String())
	}
	if !strings.Contains(wrong.Body.String(), "Invalid credentials") {
		t.Fatalf("missing generic message: %s", wrong.Body.String())
	}
}

func TestLoginThenLogout(t *testing.T) {
	tc, _ := newTestClient(t)
	tc.postForm("/register", creds("alice", "pw"))

	rec := tc.postForm("/login", creds("alice", "pw"))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("unexpected login response: %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if rec.Header().Get(csrfHeader) == "" {
		t.Fatal("expected CSRF token header")
	}

	rec = tc.get("/")
	if rec.Code != http.StatusOK || rec.Body.String() != "home:alice" {
		t.Fatalf("unexpected home response: %d %s", rec.Code, rec.Body.String())
	}

	for i := 0; i < 2; i++ {
		rec = tc.get("/logout")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("logout #%d: %d %s", i+1, rec.Code, rec.Header().Get("Location"))
		}
	}

	rec = tc.get("/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", rec.Code)
	}
}

func TestLoginThrottling(t *testing.T) {
	tc, _ := newTestClient(t)
	tc.postForm("/register", creds("alice", "pw"))

	for i := 0; i < maxLoginAttempts; i++ {
		if rec := tc.postForm("/login", creds("alice", "bad")); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d", i+1, rec.Code)
		}
	}

	rec := tc.postForm("/login", creds("alice", "pw"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestAPIGateDeniesWithoutSession(t *testing.T) {
	tc, _ := newTestClient(t)

	rec := tc.do(httptest.NewRequest(http.MethodPost, "/api/echo", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"Unauthorized"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if tc.calls != 0 {
		t.Fatal("handler must not run without a session")
	}
}

func TestDenyRecordsErrUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	m := NewManager(svc, logging.Discard())

	var recorded *gin.Error
	router := gin.New()
	router.Use(sessions.Sessions(SessionCookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	router.Use(func(c *gin.Context) {
		c.Next()
		recorded = c.Errors.Last()
	})
	router.GET("/api/me", m.RequireLogin(ModeAPI), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/page", m.RequireLogin(ModePage), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/me", "/page"} {
		recorded = nil
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		if recorded == nil || !errors.Is(recorded.Err, ErrUnauthorized) {
			t.Fatalf("%s: recorded error = %v, want ErrUnauthorized", path, recorded)
		}
		if recorded.Meta != "UNAUTHORIZED" {
			t.Fatalf("%s: meta = %v, want UNAUTHORIZED", path, recorded.Meta)
		}
	}
}

func TestCSRFOversizeFormReturns413(t *testing.T) {
	tc, _ := newTestClient(t)
	tc.postForm("/register", creds("alice", "pw"))
	token := tc.postForm("/login", creds("alice", "pw")).Header().Get(csrfHeader)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField(csrfFormField, token); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteField("payload", strings.Repeat("x", 4096)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/echo", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	http.MaxBytesHandler(tc.router, 1024).ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "REQUEST_TOO_LARGE") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if tc.calls != 0 {
		t.Fatal("handler must not run for an oversize body")
	}
}

func TestCSRFRequiredOnAPI(t *testing.T) {
	tc, _ := newTestClient(t)
	tc.postForm("/register", creds("alice", "pw"))
	token := tc.postForm("/login", creds("alice", "pw")).Header().Get(csrfHeader)

	rec := tc.do(httptest.NewRequest(http.MethodPost, "/api/echo", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/echo", nil)
	req.Header.Set(csrfHeader, token)
	rec = tc.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	form := url.Values{csrfFormField: {token}}
	rec = tc.postForm("/api/echo", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("form token: status = %d, want 200", rec.Code)
	}
	if tc.calls != 2 {
		t.Fatalf("calls = %d, want 2", tc.calls)
	}
}

func TestIdleSessionExpires(t *testing.T) {
	tc, _ := newTestClient(t)
	tc.postForm("/register", creds("alice", "pw"))
	tc.postForm("/login", creds("alice", "pw"))

	orig := idleTimeout
	idleTimeout = -1
	t.Cleanup(func() { idleTimeout = orig })

	rec := tc.get("/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}
}
