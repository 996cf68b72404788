package handlers

import (
	"net/http"

	"lkrserver/game"
	"lkrserver/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateRoom はルーム作成リクエストを処理します。
func CreateRoom(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Room create request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "request binding error"})
		return
	}
	creator := c.Query("playerName")

	room, err := svc.CreateRoom(c.Request.Context(), req, creator)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetRoom はルームIDでルームを返します。
func GetRoom(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	room, err := svc.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ListRooms は未開始のルーム一覧を返します（ロビー表示用）。
func ListRooms(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	rooms, err := svc.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// JoinRoom は入室リクエストを処理します。
func JoinRoom(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	roomID := c.Param("roomId")
	playerName := c.Query("playerName")

	if _, err := svc.JoinRoom(c.Request.Context(), roomID, playerName); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "joined room"})
}

// ExitRoom は退室リクエストを処理します。最後の1人なら部屋ごと削除されます。
func ExitRoom(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	roomID := c.Param("roomId")
	playerName := c.Query("playerName")

	if err := svc.LeaveRoom(c.Request.Context(), roomID, playerName); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "left room"})
}

// StartGame はホストによるゲーム開始を処理します。
func StartGame(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	roomID := c.Param("roomId")
	playerName := c.Query("playerName")

	if err := svc.StartGame(c.Request.Context(), roomID, playerName); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "start message broadcasted"})
}

// SelectAvatar はアバター選択を処理します。
func SelectAvatar(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	var req models.AvatarSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Avatar request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "request binding error"})
		return
	}

	err := svc.SelectAvatar(c.Request.Context(), c.Param("roomId"), req.PlayerName, req.Avatar)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// ListPlayers はアバター選択済みの玩家一覧を返します。
func ListPlayers(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	players, err := svc.ListPlayers(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

// AssignRoles は配役を行います。二度目以降は既存の割当がそのまま返ります。
func AssignRoles(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	assigned, leader, err := svc.AssignRoles(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignedRoles": assigned,
		"currentLeader": leader,
	})
}

// RolesAndLeader は配役と現リーダーを返します。
func RolesAndLeader(c *gin.Context, svc *game.Service, logger *zap.Logger) {
	view, err := svc.RolesAndLeader(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
