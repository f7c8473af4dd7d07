package curriculum

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/auth"
	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/sessioncache"
)

// Handler は POST /generate を処理します。
type Handler struct {
	svc    *Service
	logger logrus.FieldLogger
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service, logger logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Generate は入力を検証してから生成APIを呼び出します。検証に失敗した場合、生成APIは呼ばれません。
func (h *Handler) Generate(c *gin.Context) {
	log := logging.FromContext(c, h.logger)

	req, err := DecodeRequest(c.Request.Body)
	if err != nil {
		var fieldErr *FieldError
		switch {
		case errors.As(err, &fieldErr):
			code := "INVALID_FIELD"
			if fieldErr.Reason == ReasonMissing {
				code = "MISSING_FIELD"
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    code,
				"field":   fieldErr.Field,
				"message": fieldErr.Error(),
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_BODY",
				"message": err.Error(),
			})
		}
		return
	}

	session := sessions.Default(c)
	slot, created := sessioncache.EnsureSlot(session, auth.CurrentUser(c))
	if created {
		if err := session.Save(); err != nil {
			log.WithError(err).Error("session save failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "SESSION_SAVE_FAILED",
				"message": "セッションの保存に失敗しました",
			})
			return
		}
	}

	res, err := h.svc.Generate(c.Request.Context(), slot, req)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			status := http.StatusBadGateway
			if provErr.Timeout {
				status = http.StatusGatewayTimeout
			}
			log.WithError(err).WithField("timeout", provErr.Timeout).Warn("generation provider error")
			c.JSON(status, gin.H{
				"code":    "GENERATION_PROVIDER_ERROR",
				"message": "カリキュラムの生成に失敗しました。時間をおいて再度お試しください",
			})
			return
		}
		log.WithError(err).Error("generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "カリキュラムの生成結果を保存できませんでした",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"curriculum": res.Text,
		"outline":    res.Outline,
	})
}
