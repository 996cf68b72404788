package handlers

import (
	"net/http"

	"lkrserver/game"
	"lkrserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func bindSkillRequest(c *gin.Context, logger *zap.Logger) (models.SkillRequest, bool) {
	var req models.SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Skill request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "request binding error"})
		return req, false
	}
	return req, true
}

// LurkerSkill は潜伏者のカード反転を処理します。
func LurkerSkill(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	req, ok := bindSkillRequest(c, logger)
	if !ok {
		return
	}
	result, err := svc.UseLurkerSkill(c.Request.Context(), req.RoomID, req.PlayerName, req.TargetName)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CommanderSkill は指揮官の陣営調査を処理します。
func CommanderSkill(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	req, ok := bindSkillRequest(c, logger)
	if !ok {
		return
	}
	result, err := svc.UseCommanderSkill(c.Request.Context(), req.RoomID, req.PlayerName, req.TargetName)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SaboteurSkill は破壊者のカード無効化を処理します。
func SaboteurSkill(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	req, ok := bindSkillRequest(c, logger)
	if !ok {
		return
	}
	result, err := svc.UseSaboteurSkill(c.Request.Context(), req.RoomID, req.PlayerName, req.TargetName)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MedicSkill は医療兵の保護を処理します。
func MedicSkill(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	req, ok := bindSkillRequest(c, logger)
	if !ok {
		return
	}
	result, err := svc.UseMedicSkill(c.Request.Context(), req.RoomID, req.PlayerName, req.TargetName)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ShadowSkill は影武者のスキル封鎖を処理します。
func ShadowSkill(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	req, ok := bindSkillRequest(c, logger)
	if !ok {
		return
	}
	result, err := svc.UseShadowSkill(c.Request.Context(), req.RoomID, req.PlayerName, req.TargetName)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CivilianUltimate は平民の最終技能（陣営当て）を処理します。
func CivilianUltimate(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var req models.UltimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Ultimate request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "request binding error"})
		return
	}
	result, err := svc.UseCivilianUltimate(c.Request.Context(), req.RoomID, req.PlayerName, req.Guesses)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SkillState はスキルフェーズの画面表示用の状態を返します。
func SkillState(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	view, err := svc.GetSkillState(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
