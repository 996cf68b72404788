package game

import (
	"context"

	"lkrserver/models"

	"go.uber.org/zap"
)

// AssignRoles は配役を行い、初期リーダーをplayers[0]に設定します。
// 既に配役済みの場合は何もせず既存の割当を返します（リトライに対して冪等）。
func (s *Service) AssignRoles(ctx context.Context, roomID string) (map[string]models.RoleInfo, string, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, "", err
	}
	if len(room.AssignedRoles) > 0 {
		// 再割当はしない。シャッフルし直すと役職が漏れるため拒否のみ
		return room.AssignedRoles, room.Leader, nil
	}

	roles, err := RolesFor(len(room.Players))
	if err != nil {
		return nil, "", err
	}
	// 配役表が玩家数と食い違うのは表の整備ミスでしかありえない
	if len(roles) != len(room.Players) {
		s.logger.Error("Role table size mismatch",
			zap.Int("roles", len(roles)), zap.Int("players", len(room.Players)))
		return nil, "", errInternal("role table does not match player count")
	}

	shuffleRoles(createLocalRandGenerator(), roles)

	// シャッフル後に入室順と位置で対応づける
	assigned := make(map[string]models.RoleInfo, len(room.Players))
	for i, name := range room.Players {
		assigned[name] = roles[i]
	}
	room.AssignedRoles = assigned
	room.LeaderIndex = 0
	room.Leader = room.Players[0]
	room.SkillOrder = generateSkillOrder(room)

	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, "", err
	}

	s.bc.Publish(roomID, ChannelRoom, "startRealGame")
	s.bc.Publish(roomID, ChannelLeader, room.Leader)
	s.logger.Info("Roles assigned", zap.String("roomID", roomID), zap.String("leader", room.Leader))
	return assigned, room.Leader, nil
}

// RolesAndLeaderView は配役一覧と現在のリーダーです。
type RolesAndLeaderView struct {
	AssignedRoles map[string]models.RoleInfo `json:"assignedRoles"`
	CurrentLeader string                     `json:"currentLeader"`
}

// RolesAndLeader は配役と現リーダーを返します（読み取り専用）。
func (s *Service) RolesAndLeader(ctx context.Context, roomID string) (*RolesAndLeaderView, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &RolesAndLeaderView{
		AssignedRoles: room.AssignedRoles,
		CurrentLeader: room.Leader,
	}, nil
}
