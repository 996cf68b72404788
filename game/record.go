package game

import (
	"context"
	"strings"
	"time"

	"lkrserver/models"

	"go.uber.org/zap"
)

// GameEndEvent は終了通知の配信ペイロードです。
type GameEndEvent struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	Success int    `json:"success"`
	Fail    int    `json:"fail"`
}

// EndGame はゲームを終了させ、不変のGameRecordを1件だけ保存します。
// 既に記録があればConflict（二重呼び出しに安全）。保存後、ルームは3分後に
// 自動削除されるようスケジュールされます。
func (s *Service) EndGame(ctx context.Context, roomID, result string) (*models.GameRecord, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	existing, err := s.records.ByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errConflict("a record for this room already exists")
	}

	now := time.Now()
	room.EndTime = &now
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	// resultが正義側の勝利を表すかどうかで各玩家の勝敗が決まる
	goodWin := strings.Contains(result, "good")

	playerResults := make(map[string]models.PlayerResult, len(room.Players))
	for _, player := range room.Players {
		info, ok := room.AssignedRoles[player]
		roleName := info.Name
		avatar := info.Image
		if !ok {
			roleName = "unknown"
			avatar = "default.png"
		}
		outcome := "loss"
		if IsGoodRole(roleName) == goodWin {
			outcome = "win"
		}
		playerResults[player] = models.PlayerResult{
			Role:    roleName,
			Avatar:  "/images/" + avatar,
			Outcome: outcome,
		}
	}

	record := &models.GameRecord{
		RoomID:        roomID,
		PlayDate:      now,
		PlayerCount:   len(room.Players),
		Result:        result,
		Players:       room.Players,
		PlayerResults: playerResults,
		SuccessCount:  room.SuccessCount,
		FailCount:     room.FailCount,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	s.bc.Publish(roomID, ChannelRoom, GameEndEvent{
		Type:    "GAME_END",
		Result:  result,
		Success: room.SuccessCount,
		Fail:    room.FailCount,
	})
	s.scheduleDeletion(roomID)
	s.logger.Info("Game ended",
		zap.String("roomID", roomID), zap.String("result", result),
		zap.Int("success", room.SuccessCount), zap.Int("fail", room.FailCount))
	return record, nil
}

// scheduleDeletion は遅延削除タイマーを登録します。同じルームに対しては1つだけ。
func (s *Service) scheduleDeletion(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[roomID]; ok {
		return
	}
	s.timers[roomID] = time.AfterFunc(s.deleteDelay, func() {
		s.deleteExpiredRoom(roomID)
	})
}

// cancelDeletion は保留中の削除タイマーを取り消します。なければ何もしません。
func (s *Service) cancelDeletion(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[roomID]; ok {
		timer.Stop()
		delete(s.timers, roomID)
	}
}

// deleteExpiredRoom はタイマー発火時の削除処理です。ルームが既に消えていれば何もしません。
func (s *Service) deleteExpiredRoom(roomID string) {
	ctx := context.Background()
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	delete(s.timers, roomID)
	s.mu.Unlock()

	room, err := s.rooms.Load(ctx, roomID)
	if err != nil {
		s.logger.Error("Failed to load room for deferred deletion", zap.String("roomID", roomID), zap.Error(err))
		return
	}
	if room == nil {
		return // 別経路で削除済み
	}
	if err := s.dropRoom(ctx, room); err != nil {
		s.logger.Error("Failed to delete finished room", zap.String("roomID", roomID), zap.Error(err))
		return
	}
	s.logger.Info("Finished room deleted", zap.String("roomID", roomID))
}

// SweepExpiredRooms は終了から3分以上経過したルームをまとめて削除します。
// 遅延削除タイマーを取りこぼした場合（プロセス再起動など）の保険です。
func (s *Service) SweepExpiredRooms(ctx context.Context) (int, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	deleted := 0
	for _, r := range rooms {
		if r.EndTime == nil || now.Sub(*r.EndTime) < s.deleteDelay {
			continue
		}
		roomID := r.ID
		lock := s.roomLock(roomID)
		lock.Lock()
		room, err := s.rooms.Load(ctx, roomID)
		if err == nil && room != nil {
			if err := s.dropRoom(ctx, room); err != nil {
				s.logger.Error("Failed to sweep room", zap.String("roomID", roomID), zap.Error(err))
			} else {
				s.logger.Info("Swept expired room", zap.String("roomID", roomID))
				deleted++
			}
		}
		lock.Unlock()
	}
	return deleted, nil
}

// RecordByRoom は保存済みのGameRecordを返します。なければNotFound。
func (s *Service) RecordByRoom(ctx context.Context, roomID string) (*models.GameRecord, error) {
	record, err := s.records.ByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errNotFound("record not found")
	}
	return record, nil
}

// PlayerStats は1人の玩家の通算成績です。
type PlayerStats struct {
	Player     string  `json:"player"`
	TotalGames int     `json:"totalGames"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"winRate"` // パーセント
}

// GetPlayerStats は全記録から対象玩家の総場数・勝数・勝率を集計します。
func (s *Service) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	records, err := s.records.All(ctx)
	if err != nil {
		return nil, err
	}
	stats := &PlayerStats{Player: playerName}
	for _, r := range records {
		result, ok := r.PlayerResults[playerName]
		if !ok {
			continue
		}
		stats.TotalGames++
		if result.Outcome == "win" {
			stats.Wins++
		}
	}
	if stats.TotalGames > 0 {
		stats.WinRate = float64(stats.Wins) * 100.0 / float64(stats.TotalGames)
	}
	return stats, nil
}
