package game

import (
	"context"
	"strings"

	"lkrserver/models"

	"go.uber.org/zap"
)

// スキル使用回数の帳簿で使う能力名。
const (
	abilityLurker    = "lurker"
	abilityCommander = "commander"
	abilitySaboteur  = "saboteur"
	abilityMedic     = "medic"
	abilityShadow    = "shadow"
	abilityUltimate  = "ultimate"
)

// ゲーム全体での使用回数上限。
const (
	lurkerGameCap    = 1
	commanderGameCap = 2
	saboteurGameCap  = 2
	medicGameCap     = 1
	shadowGameCap    = 2
)

// generateSkillOrder は固定の発動順を、実際に配役された役職だけに絞り込みます。
// クライアント向けの進行参考情報であり、サーバー側で呼び出し順を強制はしません。
func generateSkillOrder(room *models.Room) []string {
	present := make(map[string]bool, len(room.AssignedRoles))
	for _, info := range room.AssignedRoles {
		present[info.Name] = true
	}
	order := make([]string, 0, len(skillOrder))
	for _, role := range skillOrder {
		if present[role] {
			order = append(order, role)
		}
	}
	return order
}

// isSkillShadowed は現在のラウンドで玩家のスキルが封鎖されているかを返します。
// 封鎖されたスキルは効果だけが打ち消され、使用回数は通常どおり消費されます。
func isSkillShadowed(room *models.Room, player string) bool {
	return room.ShadowDisabledIn(room.CurrentRound, player)
}

// LurkerResult は潜伏者のカード反転の結果です。
type LurkerResult struct {
	Flipped   string `json:"flipped,omitempty"` // 反転後のカード。封鎖時は空
	Blocked   bool   `json:"blocked"`
	Remaining int    `json:"remaining"`
}

// UseLurkerSkill は対象のカードをSUCCESS↔FAILで反転します。1ゲームに1回限り。
func (s *Service) UseLurkerSkill(ctx context.Context, roomID, player, target string) (*LurkerResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	round := room.CurrentRound
	record := room.MissionResults[round]
	if record == nil || record.CardMap == nil {
		return nil, errInvalidArgument("mission for this round has not been resolved")
	}
	if _, ok := record.CardMap[target]; !ok {
		return nil, errInvalidArgument("target has no submitted card this round")
	}
	if room.Skill.Count(abilityLurker, player) >= lurkerGameCap {
		return nil, errForbidden("lurker skill already used")
	}

	// 封鎖されていても使用回数は消費される
	room.Skill.MarkUse(abilityLurker, player, round)
	if isSkillShadowed(room, player) {
		if err := s.rooms.Save(ctx, room); err != nil {
			return nil, err
		}
		return &LurkerResult{Blocked: true, Remaining: 0}, nil
	}

	flipped := CardSuccess
	if record.CardMap[target] == CardSuccess {
		flipped = CardFail
	}
	record.CardMap[target] = flipped
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info("Lurker flipped a card",
		zap.String("roomID", roomID), zap.String("target", target), zap.String("flipped", flipped))
	return &LurkerResult{Flipped: flipped, Remaining: 0}, nil
}

// CommanderResult は指揮官の陣営調査の結果です。
type CommanderResult struct {
	Faction   string `json:"faction,omitempty"` // "good"/"evil"。封鎖時は空
	Blocked   bool   `json:"blocked"`
	Remaining int    `json:"remaining"`
}

// UseCommanderSkill は対象の陣営を調べます。ゲーム中2回まで、同一ラウンドには1回まで。
// 自分自身は調べられません。影武者は正義側として報告される点が仕様です。
func (s *Service) UseCommanderSkill(ctx context.Context, roomID, player, target string) (*CommanderResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if player == target {
		return nil, errForbidden("cannot inspect yourself")
	}
	round := room.CurrentRound
	used := room.Skill.Count(abilityCommander, player)
	if used >= commanderGameCap {
		return nil, errForbidden("commander skill already used twice")
	}
	if room.Skill.UsedInRound(abilityCommander, player, round) {
		return nil, errForbidden("commander skill already used this round")
	}

	room.Skill.MarkUse(abilityCommander, player, round)
	remaining := commanderGameCap - (used + 1)
	if isSkillShadowed(room, player) {
		if err := s.rooms.Save(ctx, room); err != nil {
			return nil, err
		}
		return &CommanderResult{Blocked: true, Remaining: remaining}, nil
	}

	info, ok := room.AssignedRoles[target]
	if !ok {
		return nil, errInvalidArgument("target has no assigned role")
	}
	faction, ok := commanderFactions[info.Name]
	if !ok {
		faction = "unknown"
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	return &CommanderResult{Faction: faction, Remaining: remaining}, nil
}

// SaboteurResult は破壊者のカード無効化の結果です。
type SaboteurResult struct {
	Removed   string `json:"removed,omitempty"` // 取り除かれたカード。封鎖時は空
	Blocked   bool   `json:"blocked"`
	Remaining int    `json:"remaining"`
}

// UseSaboteurSkill は対象の提出カードを集計から取り除きます。
// ゲーム中2回まで、同一ラウンドには1回まで。医療兵に保護された対象には効きません。
func (s *Service) UseSaboteurSkill(ctx context.Context, roomID, player, target string) (*SaboteurResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	round := room.CurrentRound
	record := room.MissionResults[round]
	if record == nil || record.CardMap == nil {
		return nil, errInvalidArgument("mission for this round has not been resolved")
	}
	if _, ok := record.CardMap[target]; !ok {
		return nil, errInvalidArgument("target has no submitted card this round")
	}
	if room.Skill.UsedInRound(abilitySaboteur, player, round) {
		return nil, errForbidden("saboteur skill already used this round")
	}
	used := room.Skill.Count(abilitySaboteur, player)
	if used >= saboteurGameCap {
		return nil, errForbidden("saboteur skill already used twice")
	}

	if isSkillShadowed(room, player) {
		room.Skill.MarkUse(abilitySaboteur, player, round)
		if err := s.rooms.Save(ctx, room); err != nil {
			return nil, err
		}
		return &SaboteurResult{Blocked: true, Remaining: saboteurGameCap - (used + 1)}, nil
	}

	// 保護は無効化に勝つ。この場合は使用回数も消費しない
	if protected, ok := room.MedicProtection[round]; ok && protected == target {
		return nil, errForbidden("target is protected by the medic this round")
	}

	removed := record.CardMap[target]
	delete(record.CardMap, target)
	room.Skill.MarkUse(abilitySaboteur, player, round)
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info("Saboteur nullified a card",
		zap.String("roomID", roomID), zap.String("target", target), zap.String("removed", removed))
	return &SaboteurResult{Removed: removed, Remaining: saboteurGameCap - (used + 1)}, nil
}

// MedicResult は医療兵の保護の結果です。
type MedicResult struct {
	Protected string `json:"protected,omitempty"` // 封鎖時は空
	Blocked   bool   `json:"blocked"`
}

// UseMedicSkill は次ラウンドの保護対象を登録します。1ゲームに1回限り。
// 保護は常に先のラウンドに対して効き、過去には遡りません。
func (s *Service) UseMedicSkill(ctx context.Context, roomID, player, target string) (*MedicResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Skill.Count(abilityMedic, player) >= medicGameCap {
		return nil, errForbidden("medic skill already used")
	}

	round := room.CurrentRound
	// 封鎖されていても使用済みになる
	room.Skill.MarkUse(abilityMedic, player, round)
	if isSkillShadowed(room, player) {
		if err := s.rooms.Save(ctx, room); err != nil {
			return nil, err
		}
		return &MedicResult{Blocked: true}, nil
	}

	if room.MedicProtection == nil {
		room.MedicProtection = make(map[int]string)
	}
	room.MedicProtection[round+1] = target
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	return &MedicResult{Protected: target}, nil
}

// ShadowResult は影武者のスキル封鎖の結果です。
type ShadowResult struct {
	DisabledTarget string `json:"disabledTarget"`
	Remaining      int    `json:"remaining"`
}

// UseShadowSkill は対象の次ラウンドのスキルを封鎖します。
// ゲーム中2回まで、同一ラウンドには1回まで。
func (s *Service) UseShadowSkill(ctx context.Context, roomID, player, target string) (*ShadowResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	round := room.CurrentRound
	if room.Skill.UsedInRound(abilityShadow, player, round) {
		return nil, errForbidden("shadow skill already used this round")
	}
	used := room.Skill.Count(abilityShadow, player)
	if used >= shadowGameCap {
		return nil, errForbidden("shadow skill already used twice")
	}

	next := round + 1
	if room.ShadowDisabled == nil {
		room.ShadowDisabled = make(map[int][]string)
	}
	if !room.ShadowDisabledIn(next, target) {
		room.ShadowDisabled[next] = append(room.ShadowDisabled[next], target)
	}
	room.Skill.MarkUse(abilityShadow, player, round)
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info("Shadow disabled a player",
		zap.String("roomID", roomID), zap.String("target", target), zap.Int("effectiveRound", next))
	return &ShadowResult{DisabledTarget: target, Remaining: shadowGameCap - (used + 1)}, nil
}

// UltimateResult は平民の最終技能（陣営当て）の結果です。
type UltimateResult struct {
	AllCorrect bool `json:"allCorrect"`
	GoodScore  int  `json:"goodScore"`
	EvilScore  int  `json:"evilScore"`
}

// UseCivilianUltimate は最終ラウンド限定の陣営当てです。
// 役職名に "Civilian" を含む玩家だけが、1ゲームに1回だけ使えます。
// 自分以外の全員の陣営を言い当てると自陣営に+1点が入ります。
func (s *Service) UseCivilianUltimate(ctx context.Context, roomID, player string, guesses map[string]string) (*UltimateResult, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.CurrentRound != room.MaxRound {
		return nil, errForbidden("ultimate can only be used in the last round")
	}
	info, ok := room.AssignedRoles[player]
	if !ok {
		return nil, errInvalidArgument("player has no assigned role")
	}
	if !strings.Contains(info.Name, RoleCivilian) {
		return nil, errForbidden("only civilians can use the ultimate")
	}
	if room.UltimateUsed[player] {
		return nil, errForbidden("ultimate already used")
	}

	// 自分以外の全玩家について good/evil のどちらかが指定されている必要がある
	for _, p := range room.Players {
		if p == player {
			continue
		}
		g := guesses[p]
		if g != "good" && g != "evil" {
			return nil, errInvalidArgument("a faction guess is required for every other player")
		}
	}

	allCorrect := true
	for _, p := range room.Players {
		if p == player {
			continue
		}
		actual := "evil"
		if IsGoodRole(room.AssignedRoles[p].Name) {
			actual = "good"
		}
		if guesses[p] != actual {
			allCorrect = false
			break
		}
	}

	if room.UltimateUsed == nil {
		room.UltimateUsed = make(map[string]bool)
	}
	room.UltimateUsed[player] = true
	if allCorrect {
		if IsGoodRole(info.Name) {
			room.GoodExtraScore++
		} else {
			room.EvilExtraScore++
		}
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info("Civilian ultimate used",
		zap.String("roomID", roomID), zap.String("player", player), zap.Bool("allCorrect", allCorrect))
	return &UltimateResult{
		AllCorrect: allCorrect,
		GoodScore:  room.GoodExtraScore,
		EvilScore:  room.EvilExtraScore,
	}, nil
}

// SkillStateView は部屋にいるスキル持ち役職と、現在封鎖中の役職の一覧です。
type SkillStateView struct {
	RemainingRoles []string `json:"remainingRoles"`
	BlockedRoles   []string `json:"blockedRoles"`
}

var skillRoles = map[string]bool{
	RoleLurker:    true,
	RoleShadow:    true,
	RoleSaboteur:  true,
	RoleScout:     true,
	RoleCommander: true,
	RoleMedic:     true,
}

// GetSkillState はスキルフェーズの画面表示用の状態を返します（読み取り専用）。
func (s *Service) GetSkillState(ctx context.Context, roomID string) (*SkillStateView, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	view := &SkillStateView{
		RemainingRoles: []string{},
		BlockedRoles:   []string{},
	}
	for player, info := range room.AssignedRoles {
		if !skillRoles[info.Name] {
			continue
		}
		view.RemainingRoles = append(view.RemainingRoles, info.Name)
		if isSkillShadowed(room, player) {
			view.BlockedRoles = append(view.BlockedRoles, info.Name)
		}
	}
	return view, nil
}
