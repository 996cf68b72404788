package models

import (
	"fmt"
	"time"
)

// 投票の三値（賛成・反対・棄権）。
// 以前はnull許容のboolで表現していたが、nullがデータを兼ねる曖昧さを避けるため列挙型に統一。
type Ballot int

const (
	BallotAbstain Ballot = iota // 棄権（タイムアウトによる補完もこの値）
	BallotAgree
	BallotReject
)

// RoleInfo は配役一件分（役職名と対応するアバター画像）を表します。
type RoleInfo struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// MissionRecord は1ラウンド分の任務結果のスナップショットです。
// CardMapはスキルフェーズ中に書き換えられる（潜伏者の反転、破壊者の無効化）。
type MissionRecord struct {
	SuccessCount int               `json:"successCount"`
	FailCount    int               `json:"failCount"`
	CardMap      map[string]string `json:"cardMap"`
}

// SkillUsage はスキルの使用回数管理を一箇所に集約したものです。
// 以前は能力ごとに独立したマップ／セットが散在していたため、
// (ability, player, round) をキーにした2つのマップへ統一。
type SkillUsage struct {
	GameCount map[string]int  `json:"gameCount"` // キー: "<ability>|<player>"、ゲーム全体の使用回数
	RoundUsed map[string]bool `json:"roundUsed"` // キー: "<ability>|<player>|R<round>"、ラウンド内の使用済み記録
}

func gameKey(ability, player string) string {
	return ability + "|" + player
}

func roundKey(ability, player string, round int) string {
	return fmt.Sprintf("%s|%s|R%d", ability, player, round)
}

// Count はゲーム全体での使用回数を返します。
func (u *SkillUsage) Count(ability, player string) int {
	return u.GameCount[gameKey(ability, player)]
}

// UsedInRound は指定ラウンドで使用済みかを返します。
func (u *SkillUsage) UsedInRound(ability, player string, round int) bool {
	return u.RoundUsed[roundKey(ability, player, round)]
}

// MarkUse は使用を記録します（封鎖されていても回数は消費される）。
func (u *SkillUsage) MarkUse(ability, player string, round int) {
	if u.GameCount == nil {
		u.GameCount = make(map[string]int)
	}
	if u.RoundUsed == nil {
		u.RoundUsed = make(map[string]bool)
	}
	u.GameCount[gameKey(ability, player)]++
	u.RoundUsed[roundKey(ability, player, round)] = true
}

// Room はアクティブなゲーム1つ分の状態を保持するドキュメントです（Redisに保存）。
type Room struct {
	ID         string `json:"id"`
	Name       string `json:"name"`     // 全体で一意
	Capacity   int    `json:"capacity"` // 5〜10人
	Visibility string `json:"visibility"` // "public" または "private"
	Password   string `json:"password,omitempty"`

	// Playersの並び順は入室順であり、リーダー輪番とスキル優先順の基準になる
	Players []string          `json:"players"`
	Avatars map[string]string `json:"avatars"` // 全員が選択し終わるとゲーム開始可能

	// 配役は1ゲームにつき一度だけ。再割当の試みは拒否される
	AssignedRoles map[string]RoleInfo `json:"assignedRoles"`
	SkillOrder    []string            `json:"skillOrder"`

	LeaderIndex  int    `json:"leaderIndex"`
	Leader       string `json:"leader"`
	CurrentRound int    `json:"currentRound"` // 1始まり
	MaxRound     int    `json:"maxRound"`

	// 投票状態。VoteClosedは同一ラウンドの二重結算（二重輪番）防止のガード
	CurrentExpedition []string          `json:"currentExpedition"`
	VoteMap           map[string]Ballot `json:"voteMap"`
	VoteClosed        bool              `json:"voteClosed"`

	// 任務カード
	SubmittedCards map[string]string      `json:"submittedCards"`
	MissionResults map[int]*MissionRecord `json:"missionResults"`
	SuccessCount   int                    `json:"successCount"`
	FailCount      int                    `json:"failCount"`

	// スキル関連
	Skill           SkillUsage          `json:"skill"`
	MedicProtection map[int]string      `json:"medicProtection"` // ラウンド → 保護対象（次ラウンドに有効）
	ShadowDisabled  map[int][]string    `json:"shadowDisabled"`  // ラウンド → そのラウンド中スキル封鎖される玩家
	UltimateUsed    map[string]bool     `json:"ultimateUsed"`    // 平民の最終技能の使用記録

	// 最終技能による加点のみをここで数える
	GoodExtraScore int `json:"goodExtraScore"`
	EvilExtraScore int `json:"evilExtraScore"`

	Started bool       `json:"started"`
	EndTime *time.Time `json:"endTime,omitempty"` // 一度設定されると3分後の自動削除対象になる
}

// ShadowDisabledIn は指定ラウンドで封鎖されているかを返します。
func (r *Room) ShadowDisabledIn(round int, player string) bool {
	for _, p := range r.ShadowDisabled[round] {
		if p == player {
			return true
		}
	}
	return false
}

// HasPlayer は玩家が入室済みかを返します。
func (r *Room) HasPlayer(name string) bool {
	for _, p := range r.Players {
		if p == name {
			return true
		}
	}
	return false
}
