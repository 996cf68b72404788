package game

import (
	"context"

	"lkrserver/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRoom は新しいルームを作成し、作成者を1人目の玩家として登録します。
// ルーム名が既存と衝突する場合はConflictを返します。
func (s *Service) CreateRoom(ctx context.Context, req models.CreateRoomRequest, creator string) (*models.Room, error) {
	if req.Capacity < 5 || req.Capacity > 10 {
		return nil, errInvalidArgument("capacity must be between 5 and 10")
	}
	if req.Name == "" || creator == "" {
		return nil, errInvalidArgument("room name and creator are required")
	}

	room := &models.Room{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Capacity:       req.Capacity,
		Visibility:     req.Visibility,
		Password:       req.Password,
		Players:        []string{creator},
		Avatars:        make(map[string]string),
		AssignedRoles:  make(map[string]models.RoleInfo),
		VoteMap:        make(map[string]models.Ballot),
		SubmittedCards: make(map[string]string),
		MissionResults: make(map[int]*models.MissionRecord),
		MedicProtection: make(map[int]string),
		ShadowDisabled:  make(map[int][]string),
		UltimateUsed:    make(map[string]bool),
		CurrentRound:   1,
		MaxRound:       DefaultMaxRound,
	}
	// privateでない場合はパスワードを保持しない
	if room.Visibility != "private" {
		room.Password = ""
	}

	ok, err := s.rooms.ReserveName(ctx, room.Name, room.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errConflict("room name already exists")
	}

	if err := s.rooms.Save(ctx, room); err != nil {
		// 保存に失敗したら名前の予約を戻す
		s.rooms.ReleaseName(ctx, room.Name)
		return nil, err
	}
	s.logger.Info("Room created", zap.String("roomID", room.ID), zap.String("name", room.Name), zap.String("creator", creator))
	return room, nil
}

// GetRoom はルームを取得します（読み取り専用）。
func (s *Service) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()
	return s.loadRoom(ctx, roomID)
}

// ListRooms は未開始のルーム一覧を返します（ロビー表示用）。
func (s *Service) ListRooms(ctx context.Context) ([]*models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]*models.Room, 0, len(rooms))
	for _, r := range rooms {
		if !r.Started {
			open = append(open, r)
		}
	}
	return open, nil
}

// JoinRoom は玩家をルームに追加します。満員または入室済みならConflict。
func (s *Service) JoinRoom(ctx context.Context, roomID, player string) (*models.Room, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(room.Players) >= room.Capacity {
		return nil, errConflict("room is full")
	}
	if room.HasPlayer(player) {
		return nil, errConflict("player already joined")
	}
	room.Players = append(room.Players, player) // 入室順を保持
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	s.logger.Info("Player joined", zap.String("roomID", roomID), zap.String("player", player))
	return room, nil
}

// LeaveRoom は玩家をルームから外します。最後の1人が抜けたらルームは即時削除されます。
func (s *Service) LeaveRoom(ctx context.Context, roomID, player string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return err
	}
	idx := -1
	for i, p := range room.Players {
		if p == player {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errConflict("player not in this room")
	}
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	delete(room.Avatars, player)

	if len(room.Players) == 0 {
		s.logger.Info("Room emptied, deleting", zap.String("roomID", roomID))
		return s.dropRoom(ctx, room)
	}
	return s.rooms.Save(ctx, room)
}

// StartGame はホスト（players[0]）のみが呼べます。startedを立てて全員に通知します。
func (s *Service) StartGame(ctx context.Context, roomID, player string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if len(room.Players) == 0 || room.Players[0] != player {
		return errForbidden("only the host can start the game")
	}
	room.Started = true
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}
	s.bc.Publish(roomID, ChannelRoom, "startGame")
	return nil
}

// SelectAvatar はアバター選択を記録します。全員が選び終わるとallAvatarSelectedを配信します。
func (s *Service) SelectAvatar(ctx context.Context, roomID, player, avatar string) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasPlayer(player) {
		return errConflict("player not in this room")
	}
	if room.Avatars == nil {
		room.Avatars = make(map[string]string)
	}
	room.Avatars[player] = avatar
	if err := s.rooms.Save(ctx, room); err != nil {
		return err
	}

	s.bc.Publish(roomID, ChannelRoom, "avatarSelected:"+player)
	if len(room.Avatars) >= room.Capacity {
		s.bc.Publish(roomID, ChannelRoom, "allAvatarSelected")
	}
	return nil
}

// PlayerAvatar は玩家名とアバターの組です（一覧表示用）。
type PlayerAvatar struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ListPlayers はアバター選択済みの玩家一覧を返します。
func (s *Service) ListPlayers(ctx context.Context, roomID string) ([]PlayerAvatar, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	list := make([]PlayerAvatar, 0, len(room.Players))
	for _, p := range room.Players {
		if avatar, ok := room.Avatars[p]; ok {
			list = append(list, PlayerAvatar{Name: p, Avatar: avatar})
		}
	}
	return list, nil
}
