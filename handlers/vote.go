package handlers

import (
	"net/http"

	"lkrserver/game"
	"lkrserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartVote はリーダーが出戦メンバーを提出して投票を開始します。
func StartVote(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var req models.StartVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Start vote request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "request binding error"})
		return
	}

	if err := svc.StartVote(c.Request.Context(), c.Param("roomId"), req.Expedition); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// CastVote は1票を受け付け、途中経過を返します。
func CastVote(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var req models.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Vote request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "request binding error"})
		return
	}

	tally, err := svc.CastVote(c.Request.Context(), c.Param("roomId"), req.Voter, req.Agree, req.Abstain)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, tally)
}

// VoteTimeUp は投票の時間切れを処理します。未投票者は棄権として結算します。
func VoteTimeUp(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	if err := svc.FinalizeOnTimeout(c.Request.Context(), c.Param("roomId")); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// VoteState は現在の票数と自分が投票可能かを返します。
func VoteState(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	state, err := svc.GetVoteState(c.Request.Context(), c.Param("roomId"), c.Query("player"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// VoteResult は賛成・反対の集計のみを返します。
func VoteResult(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	agree, reject, err := svc.GetVoteResult(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agree": agree, "reject": reject})
}
