package game

import (
	"context"

	"lkrserver/models"

	"go.uber.org/zap"
)

// VoteTally は投票中の途中経過です。ライブ配信とレスポンスの両方に使われます。
type VoteTally struct {
	Agree      int      `json:"agree"`
	Reject     int      `json:"reject"`
	Finished   bool     `json:"finished"`
	Expedition []string `json:"expedition"`
}

// VoteState は1人の玩家から見た投票状況です。
type VoteState struct {
	Agree      int      `json:"agree"`
	Reject     int      `json:"reject"`
	Total      int      `json:"total"`
	HasVoted   bool     `json:"hasVoted"`
	CanVote    bool     `json:"canVote"`
	Expedition []string `json:"expedition"`
}

func countBallots(voteMap map[string]models.Ballot) (agree, reject int) {
	for _, b := range voteMap {
		switch b {
		case models.BallotAgree:
			agree++
		case models.BallotReject:
			reject++
		}
	}
	return agree, reject
}

// StartVote はリーダーが出戦メンバーを提出して投票を開始します。
// リーダー本人かどうかの確認は呼び出し側の責務です。
func (s *Service) StartVote(ctx context.Context, roomID string, expedition []string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if expedition == nil {
		expedition = []string{}
	}
	room.CurrentExpedition = expedition
	room.VoteMap = make(map[string]models.Ballot) // 票をクリア
	room.VoteClosed = false
	// リーダーはここでは動かさない。輪番は結算時に行う
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}

	s.bc.Publish(roomID, ChannelRoom, "startVote")
	s.bc.Publish(roomID, ChannelVote, VoteTally{Expedition: room.CurrentExpedition})
	return nil
}

// CastVote は1票を記録し、途中経過を配信します。棄権はagreeに優先します。
// 全員分の票が揃った時点でそのまま結算と輪番に入ります。
func (s *Service) CastVote(ctx context.Context, roomID, voter string, agree *bool, abstain bool) (*VoteTally, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.VoteClosed {
		return nil, errConflict("voting already closed for this round")
	}
	if !room.HasPlayer(voter) {
		return nil, errForbidden("voter is not in this room")
	}

	ballot := models.BallotAbstain
	if !abstain && agree != nil {
		if *agree {
			ballot = models.BallotAgree
		} else {
			ballot = models.BallotReject
		}
	}
	if room.VoteMap == nil {
		room.VoteMap = make(map[string]models.Ballot)
	}
	room.VoteMap[voter] = ballot
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	agreeCnt, rejectCnt := countBallots(room.VoteMap)
	tally := &VoteTally{
		Agree:      agreeCnt,
		Reject:     rejectCnt,
		Finished:   len(room.VoteMap) == len(room.Players),
		Expedition: room.CurrentExpedition,
	}
	s.bc.Publish(roomID, ChannelVote, tally)

	// 全員分が揃った（棄権含む）→ 即時に結算と輪番
	if tally.Finished {
		if err := s.closeVoteAndRotate(ctx, room); err != nil {
			return nil, err
		}
	}
	return tally, nil
}

// FinalizeOnTimeout は制限時間切れの処理です。未投票者を棄権で埋めてから
// 通常の結算と同じ経路に合流します。既に結算済みなら何もしません。
func (s *Service) FinalizeOnTimeout(ctx context.Context, roomID string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.VoteClosed {
		// 二重結算すると輪番が余計に進むためガード
		return nil
	}
	if room.VoteMap == nil {
		room.VoteMap = make(map[string]models.Ballot)
	}
	for _, p := range room.Players {
		if _, ok := room.VoteMap[p]; !ok {
			room.VoteMap[p] = models.BallotAbstain
		}
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	return s.closeVoteAndRotate(ctx, room)
}

// closeVoteAndRotate は票を集計して可否を配信し、リーダーを1つ進めます。
// 呼び出し元がルームのロックを保持していることが前提です。
func (s *Service) closeVoteAndRotate(ctx context.Context, room *models.Room) error {
	total := len(room.Players)
	agree, reject := countBallots(room.VoteMap)
	abstain := total - (agree + reject)
	if abstain < 0 {
		abstain = 0
	}
	effective := total - abstain
	threshold := (effective + 1) / 2 // ceil(effective/2)。全員棄権なら0で自明に可決

	passed := agree >= threshold
	if passed {
		s.bc.Publish(room.ID, ChannelVote, "votePassed")
	} else {
		s.bc.Publish(room.ID, ChannelVote, "voteFailed")
	}

	// 可否に関わらずリーダーは毎ラウンド輪番で進む
	room.LeaderIndex = (room.LeaderIndex + 1) % total
	room.Leader = room.Players[room.LeaderIndex]
	room.VoteClosed = true

	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	s.bc.Publish(room.ID, ChannelLeader, room.Leader)
	s.bc.Publish(room.ID, ChannelRoom, "leaderChanged")
	s.logger.Info("Vote finalized",
		zap.String("roomID", room.ID),
		zap.Int("agree", agree), zap.Int("reject", reject), zap.Int("abstain", abstain),
		zap.Bool("passed", passed), zap.String("nextLeader", room.Leader))
	return nil
}

// GetVoteState は現在の票数と、自分が投票済みかを返します（読み取り専用）。
func (s *Service) GetVoteState(ctx context.Context, roomID, requester string) (*VoteState, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	agree, reject := countBallots(room.VoteMap)
	_, hasVoted := room.VoteMap[requester]
	return &VoteState{
		Agree:      agree,
		Reject:     reject,
		Total:      len(room.Players),
		HasVoted:   hasVoted,
		CanVote:    !hasVoted,
		Expedition: room.CurrentExpedition,
	}, nil
}

// GetVoteResult は賛成・反対の数のみを返します（読み取り専用）。
func (s *Service) GetVoteResult(ctx context.Context, roomID string) (agree, reject int, err error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return 0, 0, err
	}
	agree, reject = countBallots(room.VoteMap)
	return agree, reject, nil
}
