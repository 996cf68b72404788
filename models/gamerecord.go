package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerResult は1人分の最終結果（役職・アバター・勝敗）です。
type PlayerResult struct {
	Role    string `json:"role"`
	Avatar  string `json:"avatar"`
	Outcome string `json:"outcome"` // "win" または "loss"
}

// GameRecord は終了したゲームの不変のアーカイブです。
// 1つのルームにつき最大1件（RoomIDにユニーク制約）。
type GameRecord struct {
	gorm.Model
	RoomID        string                  `gorm:"uniqueIndex;not null" json:"roomId"`
	PlayDate      time.Time               `gorm:"not null" json:"playDate"`
	PlayerCount   int                     `gorm:"not null" json:"playerCount"`
	Result        string                  `gorm:"not null" json:"result"`
	Players       []string                `gorm:"serializer:json" json:"players"`
	PlayerResults map[string]PlayerResult `gorm:"serializer:json" json:"playerResults"`
	SuccessCount  int                     `json:"successCount"`
	FailCount     int                     `json:"failCount"`
}
