package curriculum

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/curriculum-forge/internal/auth"
	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/sessioncache"
)

const validBody = `{"education_level":"Undergraduate","skill_name":"Networking","num_semesters":2,"weekly_hours":6,"industry_focus":"Telecom"}`

func newGenerateRouter(provider Provider, cache sessioncache.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(provider, cache, 50*time.Millisecond, logging.Discard()), logging.Discard())

	router := gin.New()
	router.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	router.POST("/generate", func(c *gin.Context) {
		c.Set(auth.ContextUserKey, "alice")
	}, h.Generate)
	return router
}

func postGenerate(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateHandlerSuccess(t *testing.T) {
	provider := &stubProvider{text: syntheticCurriculum(2)}
	router := newGenerateRouter(provider, sessioncache.NewMemoryStore(time.Hour))

	rec := postGenerate(router, validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Curriculum string  `json:"curriculum"`
		Outline    Outline `json:"outline"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Curriculum != provider.text {
		t.Fatal("curriculum must be returned verbatim")
	}
	if resp.Outline.Semesters != 2 || resp.Outline.Weeks != 32 {
		t.Fatalf("unexpected outline: %+v", resp.Outline)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("expected the session to be saved with a slot")
	}
}

func TestGenerateHandlerMissingFieldSkipsProvider(t *testing.T) {
	provider := &stubProvider{text: "unused"}
	router := newGenerateRouter(provider, sessioncache.NewMemoryStore(time.Hour))

	rec := postGenerate(router, `{"education_level":"Undergraduate"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["code"] != "MISSING_FIELD" || resp["field"] != FieldSkillName {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if provider.calls != 0 {
		t.Fatal("provider must not be called when validation fails")
	}
}

func TestGenerateHandlerInvalidField(t *testing.T) {
	router := newGenerateRouter(&stubProvider{}, sessioncache.NewMemoryStore(time.Hour))

	rec := postGenerate(router, strings.Replace(validBody, `"num_semesters":2`, `"num_semesters":-1`, 1))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "INVALID_FIELD") {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateHandlerProviderErrors(t *testing.T) {
	cases := []struct {
		name     string
		provider *stubProvider
		status   int
	}{
		{"upstream failure", &stubProvider{err: errors.New("connection refused")}, http.StatusBadGateway},
		{"deadline", &stubProvider{text: "late", delay: time.Second}, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newGenerateRouter(tc.provider, sessioncache.NewMemoryStore(time.Hour))
			rec := postGenerate(router, validBody)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if !strings.Contains(rec.Body.String(), "GENERATION_PROVIDER_ERROR") {
				t.Fatalf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}
