// Package server は gin のルーターを組み立て、画面と API のルーティングを行います。
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/auth"
	"github.com/yourusername/curriculum-forge/internal/config"
	"github.com/yourusername/curriculum-forge/internal/curriculum"
	"github.com/yourusername/curriculum-forge/internal/jobs"
	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/pdf"
	"github.com/yourusername/curriculum-forge/internal/sessioncache"
	"github.com/yourusername/curriculum-forge/internal/web"
)

// Deps はルーターが配線する依存です。Exports は Redis 未設定時 nil です。
type Deps struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Auth       *auth.Manager
	Curriculum *curriculum.Handler
	Exporter   pdf.Exporter
	Curricula  sessioncache.Store
	Exports    *jobs.Store
}

// NewRouter はミドルウェアとルートを登録したルーターを返します。
// ミドルウェアの順序は recovery → アクセスログ → CORS → ボディ上限 → セッションです。
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(d.Logger))
	if origins := d.Config.AllowedOrigins(); len(origins) > 0 {
		router.Use(cors.New(corsConfig(origins)))
	}
	router.Use(limitBody(d.Config.MaxRequestBytes))

	// セッションストアの設定（クッキー署名鍵は必須）
	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   d.Config.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	router.SetHTMLTemplate(web.MustTemplates())
	setupRoutes(router, d)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	cfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token", // CSRF保護用ヘッダー
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	cfg.ExposeHeaders = []string{"X-CSRF-Token", "X-Export-Id", "X-Logo-Status"}
	return cfg
}

// limitBody はリクエストボディを n バイトに制限します。超過分の読み込みはエラーになります。
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func setupRoutes(router *gin.Engine, d Deps) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	a := d.Auth
	router.GET("/login", a.LoginPage)
	router.POST("/login", a.Login)
	router.GET("/register", a.RegisterPage)
	router.POST("/register", a.Register)
	router.GET("/logout", a.Logout)

	pages := router.Group("")
	pages.Use(a.RequireLogin(auth.ModePage), a.VerifyCSRF())
	{
		pages.GET("/", renderPage("index.html"))
		pages.GET("/branding", renderPage("branding.html"))

		opts := pdf.HandlerOptions{Curricula: d.Curricula, Logger: d.Logger}
		if d.Exports != nil {
			opts.Recorder = d.Exports
		}
		pages.POST("/generate-pdf", pdf.ExportHandler(d.Exporter, opts))
	}

	api := router.Group("")
	api.Use(a.RequireLogin(auth.ModeAPI), a.VerifyCSRF())
	{
		api.POST("/generate", d.Curriculum.Generate)
		if d.Exports != nil {
			api.GET("/api/exports/:id", jobs.StatusHandler(d.Exports, d.Logger))
		}
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "curriculum-forge-api",
		"version": "0.1.0",
	})
}

func renderPage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.HTML(http.StatusOK, name, gin.H{
			"User":      auth.CurrentUser(c),
			"CSRFToken": auth.CSRFToken(c),
		})
	}
}
