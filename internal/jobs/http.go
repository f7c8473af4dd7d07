package jobs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/auth"
	"github.com/yourusername/curriculum-forge/internal/logging"
)

// StatusHandler は GET /api/exports/:id のハンドラーを返します。
// 他のユーザーの記録は存在しないものとして扱います。
func StatusHandler(store *Store, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		exportID := strings.TrimSpace(c.Param("id"))
		if exportID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "exportId を指定してください。",
			})
			return
		}

		record, err := store.Get(c.Request.Context(), exportID)
		if err != nil {
			logging.FromContext(c, logger).WithError(err).Error("export record lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "出力記録の取得に失敗しました。",
			})
			return
		}
		if record == nil || record.Owner != auth.CurrentUser(c) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "EXPORT_NOT_FOUND",
				"message": "指定された出力記録は存在しません。",
			})
			return
		}

		c.JSON(http.StatusOK, record)
	}
}
