package game

import (
	"context"
	"strings"

	"lkrserver/models"

	"go.uber.org/zap"
)

const (
	CardSuccess = "SUCCESS"
	CardFail    = "FAIL"
)

// SubmitMissionCard は出戦メンバーの秘密カードを受け付けます。
// 出戦メンバー全員分が揃った時点で集計し、ラウンドのMissionRecordを確定します。
// ラウンドを進めるのはここではなくFinishSkillPhaseです（スキルで結果が変わりうるため）。
func (s *Service) SubmitMissionCard(ctx context.Context, roomID, player, card string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return err
	}

	// 本ラウンドの出戦名簿に載っている玩家のみ提出できる
	onExpedition := false
	for _, p := range room.CurrentExpedition {
		if p == player {
			onExpedition = true
			break
		}
	}
	if !onExpedition {
		return errForbidden("player is not on expedition this round")
	}

	normalized := strings.ToUpper(card)
	if normalized != CardSuccess && normalized != CardFail {
		return errInvalidArgument("card must be SUCCESS or FAIL")
	}

	if room.SubmittedCards == nil {
		room.SubmittedCards = make(map[string]string)
	}
	room.SubmittedCards[player] = normalized
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}

	// 出戦メンバー全員が提出して初めて集計に入る
	if len(room.SubmittedCards) < len(room.CurrentExpedition) {
		return nil
	}

	success, fail := 0, 0
	for _, c := range room.SubmittedCards {
		switch c {
		case CardSuccess:
			success++
		case CardFail:
			fail++
		}
	}

	// 誰が何を出したかをスナップショットとして保持（スキルフェーズで書き換えられる）
	cardMap := make(map[string]string, len(room.SubmittedCards))
	for p, c := range room.SubmittedCards {
		cardMap[p] = c
	}
	if room.MissionResults == nil {
		room.MissionResults = make(map[int]*models.MissionRecord)
	}
	room.MissionResults[room.CurrentRound] = &models.MissionRecord{
		SuccessCount: success,
		FailCount:    fail,
		CardMap:      cardMap,
	}
	room.SubmittedCards = make(map[string]string)
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}

	s.bc.Publish(roomID, ChannelRoom, "allMissionCardsSubmitted")
	s.logger.Info("Mission cards resolved",
		zap.String("roomID", roomID), zap.Int("round", room.CurrentRound),
		zap.Int("success", success), zap.Int("fail", fail))
	return nil
}

// MissionState は1人の玩家から見た任務フェーズの状況です。
type MissionState struct {
	Expedition   []string `json:"expedition"`
	InExpedition bool     `json:"inExpedition"`
	MyCard       string   `json:"myCard,omitempty"`
	Round        int      `json:"round"`
}

// GetMissionState は出戦名簿と自分の提出状況を返します（読み取り専用）。
func (s *Service) GetMissionState(ctx context.Context, roomID, player string) (*MissionState, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	state := &MissionState{
		Expedition: room.CurrentExpedition,
		Round:      room.CurrentRound,
	}
	for _, p := range room.CurrentExpedition {
		if p == player {
			state.InExpedition = true
			break
		}
	}
	state.MyCard = room.SubmittedCards[player]
	return state, nil
}

// FinishSkillPhase はスキル適用後のカード群から成功・失敗を数え直し、
// 医療兵の保護を加味した上でラウンドの結果を確定し、ラウンドを1つ進めます。
func (s *Service) FinishSkillPhase(ctx context.Context, roomID string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return err
	}
	round := room.CurrentRound
	record := room.MissionResults[round]
	if record == nil || record.CardMap == nil {
		return errConflict("mission for this round has not been resolved")
	}

	// スキル適用後の状態で数え直す
	success, fail := 0, 0
	for _, c := range record.CardMap {
		switch c {
		case CardSuccess:
			success++
		case CardFail:
			fail++
		}
	}

	// 医療兵の保護判定。保護対象のカードが集計に残っている場合のみ効く。
	// 正義側を保護していたら成功+1、邪悪側なら成功-1（破壊の1単位を打ち消す扱い）。
	if protected, ok := room.MedicProtection[round]; ok {
		if _, present := record.CardMap[protected]; present {
			role := room.AssignedRoles[protected]
			if IsGoodRole(role.Name) {
				success++
			} else {
				success--
				if success < 0 {
					success = 0 // 負の成功数は意味を持たないため0で止める
				}
			}
		}
	}

	record.SuccessCount = success
	record.FailCount = fail
	room.SuccessCount += success
	room.FailCount += fail

	// ラウンド限りの帳簿を畳む
	room.SubmittedCards = make(map[string]string)
	delete(room.MedicProtection, round)
	for r := range room.ShadowDisabled {
		if r <= round {
			delete(room.ShadowDisabled, r) // 封鎖は書かれたラウンド限り
		}
	}
	room.CurrentRound = round + 1

	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	s.bc.Publish(roomID, ChannelRoom, "allSkillUsed")
	s.logger.Info("Skill phase finished",
		zap.String("roomID", roomID), zap.Int("round", round),
		zap.Int("success", success), zap.Int("fail", fail))
	return nil
}
