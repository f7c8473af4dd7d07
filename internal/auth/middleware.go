package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Mode は未ログイン時の応答方法です。
type Mode int

const (
	// ModePage はログイン画面へリダイレクトします。
	ModePage Mode = iota
	// ModeAPI は 401 の JSON を返します。
	ModeAPI
)

// RequireLogin はセッションを検証するミドルウェアを返します。
// 検証に失敗した場合は後続のハンドラーを実行しません。
func (m *Manager) RequireLogin(mode Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		user, ok := session.Get(sessionKeyUser).(string)
		if !ok || user == "" {
			deny(c, mode, "UNAUTHORIZED")
			return
		}

		now := time.Now()
		issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
		lastActive := readUnix(session.Get(sessionKeyLastActive))

		if issuedAt.IsZero() || now.Sub(issuedAt) > maxSessionLifetime {
			session.Clear()
			_ = session.Save()
			deny(c, mode, "SESSION_EXPIRED")
			return
		}

		if lastActive.IsZero() || now.Sub(lastActive) > idleTimeout {
			session.Clear()
			_ = session.Save()
			deny(c, mode, "SESSION_IDLE_TIMEOUT")
			return
		}

		session.Set(sessionKeyLastActive, now.Unix())
		_ = session.Save()
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// deny は ErrUnauthorized をコンテキストに記録します。アクセスログの errors に出ます。
func deny(c *gin.Context, mode Mode, code string) {
	_ = c.Error(ErrUnauthorized).SetMeta(code)
	if mode == ModePage {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    code,
		"error":   "Unauthorized",
		"message": "ログインが必要です",
	})
}

// VerifyCSRF は X-CSRF-Token ヘッダー（またはフォームの csrf_token）を検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF トークンが設定されていません",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if received == "" {
			if AbortIfBodyTooLarge(c) {
				return
			}
			received = c.PostForm(csrfFormField)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF トークンが一致しません",
			})
			return
		}

		c.Next()
	}
}

// multipartMemory は gin の MaxMultipartMemory の既定値と同じです。
const multipartMemory = 32 << 20

// AbortIfBodyTooLarge はフォームを読み込み、ボディが上限を超えていれば 413 を返して true を返します。
// 上限以外の読み込みエラーは無視し、後続の PostForm に任せます。
func AbortIfBodyTooLarge(c *gin.Context) bool {
	err := c.Request.ParseMultipartForm(multipartMemory)
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return false
	}
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"code":    "REQUEST_TOO_LARGE",
		"message": "リクエストが大きすぎます",
	})
	return true
}

// CSRFToken は現在のセッションの CSRF トークンを返します。ページへの埋め込みに使います。
func CSRFToken(c *gin.Context) string {
	token, _ := sessions.Default(c).Get(sessionKeyCSRF).(string)
	return token
}

// CurrentUser は RequireLogin が格納したユーザー名を返します。
func CurrentUser(c *gin.Context) string {
	return c.GetString(ContextUserKey)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
