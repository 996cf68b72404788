package handlers

import (
	"net/http"

	"lkrserver/game"
	"lkrserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitMissionCard は出戦メンバーの秘密カード提出を処理します。
func SubmitMissionCard(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var req models.MissionCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Mission card request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "request binding error"})
		return
	}

	err := svc.SubmitMissionCard(c.Request.Context(), c.Param("roomId"), req.Player, req.Result)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// MissionState は出戦名簿と自分の提出状況を返します。
func MissionState(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	state, err := svc.GetMissionState(c.Request.Context(), c.Param("roomId"), c.Query("player"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// FinishSkillPhase はスキルフェーズを締め、ラウンドの結果を確定します。
func FinishSkillPhase(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	if err := svc.FinishSkillPhase(c.Request.Context(), c.Param("roomId")); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusOK)
}
