package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDHeader はリクエストIDを返すレスポンスヘッダーです。
	RequestIDHeader = "X-Request-Id"

	contextLoggerKey = "logging.entry"
	// ContextUserKey は認証ミドルウェアがログイン中のユーザー名を格納するキーです（auth.ContextUserKey と同じ値）。
	ContextUserKey = "auth.user"
)

// Middleware はリクエストごとに ID を払い出し、完了時にアクセスログを出力します。
func Middleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()

		entry := logger.WithFields(logrus.Fields{
			"http.req.path":   c.Request.URL.Path,
			"http.req.method": c.Request.Method,
			"http.req.id":     requestID,
		})
		c.Set(contextLoggerKey, entry)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		fields := logrus.Fields{
			"http.resp.took_ms": time.Since(start).Milliseconds(),
			"http.resp.status":  c.Writer.Status(),
			"http.resp.bytes":   c.Writer.Size(),
		}
		if user := c.GetString(ContextUserKey); user != "" {
			fields["user"] = user
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		done := entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			done.Error("request failed")
		case status >= 400:
			done.Warn("request rejected")
		default:
			done.Debug("request complete")
		}
	}
}

// FromContext はミドルウェアが格納したリクエスト単位のロガーを返します。
// ミドルウェアを通っていない場合は fallback を使います。
func FromContext(c *gin.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if v, ok := c.Get(contextLoggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	if fallback == nil {
		return Discard()
	}
	return fallback
}
