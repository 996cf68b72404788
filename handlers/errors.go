package handlers

import (
	"net/http"

	"lkrserver/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError はコアのエラー分類をHTTPステータスに変換して返します。
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch game.KindOf(err) {
	case game.KindNotFound:
		status = http.StatusNotFound
	case game.KindConflict:
		status = http.StatusConflict
	case game.KindInvalidArgument:
		status = http.StatusBadRequest
	case game.KindForbidden:
		status = http.StatusForbidden
	default:
		// 分類のない失敗は内部エラー扱い。詳細はログにのみ残す
		logger.Error("Unexpected error", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
