package models

// CreateRoomRequest はルーム作成リクエストのボディを表します。
type CreateRoomRequest struct {
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	Visibility string `json:"visibility"`         // "public" または "private"
	Password   string `json:"password,omitempty"` // privateの場合のみ保持される
}

// AvatarSelectionRequest はアバター選択リクエストのボディを表します。
type AvatarSelectionRequest struct {
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar"`
}

// StartVoteRequest はリーダーが出戦メンバーを提出する際のボディです。
type StartVoteRequest struct {
	Expedition []string `json:"expedition"`
}

// CastVoteRequest は1票分のボディです。AbstainがtrueならAgreeは無視されます。
type CastVoteRequest struct {
	Voter   string `json:"voter"`
	Agree   *bool  `json:"agree"`
	Abstain bool   `json:"abstain"`
}

// MissionCardRequest は任務カード提出のボディです。
type MissionCardRequest struct {
	Player string `json:"player"`
	Result string `json:"result"` // SUCCESS または FAIL（大文字小文字は問わない）
}

// SkillRequest は対象指定型スキル共通のボディです。
type SkillRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	TargetName string `json:"targetName"`
}

// UltimateRequest は平民の最終技能（陣営当て）のボディです。
type UltimateRequest struct {
	RoomID     string            `json:"roomId"`
	PlayerName string            `json:"playerName"`
	Guesses    map[string]string `json:"guesses"` // 自分以外の全玩家 → "good"/"evil"
}
