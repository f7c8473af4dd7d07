package pdf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/auth"
	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/sessioncache"
)

// Exporter は PDF 出力を提供します。
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (*Result, error)
}

// ExportRecorder は出力完了時の記録先です。
type ExportRecorder interface {
	RecordExport(ctx context.Context, username string, meta ExportMeta) error
}

// HandlerOptions は出力ハンドラーの依存です。
type HandlerOptions struct {
	Curricula sessioncache.Store
	Recorder  ExportRecorder
	Logger    logrus.FieldLogger
}

// ExportHandler は POST /generate-pdf のハンドラーを返します。
// 同じセッションで直前に生成したカリキュラムを読み込み、PDF を添付ファイルとして返します。
func ExportHandler(svc Exporter, opts HandlerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c, opts.Logger)
		if auth.AbortIfBodyTooLarge(c) {
			log.Warn("export body exceeds limit")
			return
		}

		institution := strings.TrimSpace(c.PostForm("institution_name"))
		if institution == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "institution_name を指定してください。",
			})
			return
		}

		logo, err := c.FormFile("logo")
		if err != nil {
			if !errors.Is(err, http.ErrMissingFile) {
				log.WithError(err).Warn("logo upload unreadable")
			}
			logo = nil
		}

		user := auth.CurrentUser(c)
		slot := sessioncache.CurrentSlot(sessions.Default(c), user)
		curriculum, err := opts.Curricula.Get(c.Request.Context(), slot)
		if err != nil {
			log.WithError(err).Error("session cache unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    "SESSION_CACHE_UNAVAILABLE",
				"message": "生成結果を読み込めませんでした。時間をおいて再度お試しください。",
			})
			return
		}

		result, err := svc.Export(c.Request.Context(), ExportRequest{
			Institution: institution,
			Curriculum:  curriculum,
			Logo:        logo,
		})
		if err != nil {
			log.WithError(err).Error("pdf export failed")
			respondWithError(c, err)
			return
		}
		defer result.Cleanup()

		if opts.Recorder != nil {
			if err := opts.Recorder.RecordExport(c.Request.Context(), user, result.Meta); err != nil {
				log.WithError(err).WithField("export_id", result.ExportID).Warn("export record not saved")
			}
		}

		if err := streamResult(c, result); err != nil {
			respondWithError(c, err)
		}
	}
}

func respondWithError(c *gin.Context, err error) {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		status := http.StatusBadRequest
		switch apiErr.Code {
		case "LIMIT_EXCEEDED":
			status = http.StatusRequestEntityTooLarge
		case "EXPORT_FAILED":
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "リクエストがキャンセルされました。",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "サーバー内部でエラーが発生しました。",
		})
	}
}

func streamResult(c *gin.Context, result *Result) error {
	file, err := os.Open(result.OutputPath)
	if err != nil {
		return fmt.Errorf("出力ファイルの読み込みに失敗しました: %w", err)
	}
	defer file.Close()

	const contentType = "application/pdf"
	encodedName := url.PathEscape(result.OutputFilename)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", result.OutputFilename, encodedName))
	c.Header("Cache-Control", "no-store")
	c.Header("X-Export-Id", result.ExportID)
	c.Header("X-Logo-Status", string(result.Meta.Logo.Status))
	c.DataFromReader(http.StatusOK, result.OutputSize, contentType, file, nil)
	return nil
}
