package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/sessioncache"
)

const (
	loginTemplate    = "login.html"
	registerTemplate = "register.html"

	msgInvalidCredentials = "Invalid credentials"
	msgDuplicateUsername  = "Username already exists"
	msgMissingFields      = "Username and password are required"
	msgTooManyAttempts    = "Too many failed attempts. Please try again later."
	msgServerError        = "Something went wrong. Please try again."
)

// LoginPage は GET /login のハンドラーです。
func (m *Manager) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, loginTemplate, gin.H{})
}

// RegisterPage は GET /register のハンドラーです。
func (m *Manager) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, registerTemplate, gin.H{})
}

// Login は POST /login のハンドラーです。
// ユーザー不在とパスワード不一致は同じステータス・同じ画面で応答します。
func (m *Manager) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	log := logging.FromContext(c, m.logger)

	ip := c.ClientIP()
	if retryAfter := m.checkLock(ip); retryAfter > 0 {
		// Retry-After は秒数またはHTTP-Date形式が推奨されているため秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		c.HTML(http.StatusTooManyRequests, loginTemplate, gin.H{"Error": msgTooManyAttempts})
		return
	}

	user, err := m.svc.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			c.HTML(http.StatusBadRequest, loginTemplate, gin.H{"Error": msgMissingFields, "Username": username})
		case errors.Is(err, ErrInvalidCredentials):
			remaining := m.recordFailure(ip)
			log.WithField("remaining_attempts", remaining).Info("login failed")
			c.HTML(http.StatusUnauthorized, loginTemplate, gin.H{"Error": msgInvalidCredentials})
		default:
			log.WithError(err).Error("login lookup failed")
			c.HTML(http.StatusInternalServerError, loginTemplate, gin.H{"Error": msgServerError, "Username": username})
		}
		return
	}

	m.resetAttempts(ip)

	token, err := generateToken()
	if err != nil {
		log.WithError(err).Error("csrf token generation failed")
		c.HTML(http.StatusInternalServerError, loginTemplate, gin.H{"Error": msgServerError})
		return
	}

	session := sessions.Default(c)
	now := time.Now()
	session.Set(sessionKeyUser, user.Username)
	session.Set(sessionKeyIssuedAt, now.Unix())
	session.Set(sessionKeyLastActive, now.Unix())
	session.Set(sessionKeyCSRF, token)
	sessioncache.ClaimSlot(session, user.Username)

	if err := session.Save(); err != nil {
		log.WithError(err).Error("session save failed")
		c.HTML(http.StatusInternalServerError, loginTemplate, gin.H{"Error": msgServerError})
		return
	}

	log.WithField("user", user.Username).Info("login succeeded")
	c.Header(csrfHeader, token)
	c.Redirect(http.StatusSeeOther, "/")
}

// Register は POST /register のハンドラーです。成功時はログイン画面へリダイレクトします。
func (m *Manager) Register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	log := logging.FromContext(c, m.logger)

	if _, err := m.svc.Register(c.Request.Context(), username, password); err != nil {
		switch {
		case errors.Is(err, ErrMissingCredentials):
			c.HTML(http.StatusBadRequest, registerTemplate, gin.H{"Error": msgMissingFields, "Username": username})
		case errors.Is(err, ErrDuplicateUsername):
			c.HTML(http.StatusConflict, registerTemplate, gin.H{"Error": msgDuplicateUsername, "Username": username})
		default:
			log.WithError(err).Error("registration failed")
			c.HTML(http.StatusInternalServerError, registerTemplate, gin.H{"Error": msgServerError, "Username": username})
		}
		return
	}

	log.WithField("user", username).Info("user registered")
	c.Redirect(http.StatusSeeOther, "/login")
}

// Logout は GET /logout のハンドラーです。
// ユーザーの紐付けだけを外し、生成結果スロットは残します。何度呼んでもエラーになりません。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(sessionKeyUser)
	session.Delete(sessionKeyIssuedAt)
	session.Delete(sessionKeyLastActive)
	session.Delete(sessionKeyCSRF)
	if err := session.Save(); err != nil {
		logging.FromContext(c, m.logger).WithError(err).Error("session save failed")
	}
	c.Redirect(http.StatusSeeOther, "/login")
}
