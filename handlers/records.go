package handlers

import (
	"net/http"

	"lkrserver/game"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EndGame はゲーム終了を確定し、戦績を保存します。
// 勝敗はクエリパラメータ result（"good" または "evil" を含む文字列）で指定します。
func EndGame(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	roomID := c.Param("roomId")
	result := c.Query("result")
	if result == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result query parameter is required"})
		return
	}
	record, err := svc.EndGame(c.Request.Context(), roomID, result)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// RecordByRoom は部屋IDで保存済みの戦績を返します。
func RecordByRoom(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	record, err := svc.RecordByRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// PlayerStats はプレイヤー名で集計した勝敗数を返します。
func PlayerStats(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	stats, err := svc.GetPlayerStats(c.Request.Context(), c.Param("playerName"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
