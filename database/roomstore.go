package database

import (
	"context"
	"encoding/json"
	"errors"

	"lkrserver/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	roomKeyPrefix = "room:"
	nameKeyPrefix = "room_name:"
)

// RoomStore はRoomドキュメントをJSONとしてRedisに保存するストアです。
type RoomStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRoomStore(rdb *redis.Client, logger *zap.Logger) *RoomStore {
	return &RoomStore{rdb: rdb, logger: logger}
}

// Load はルームを取得します。存在しない場合は (nil, nil) を返します。
func (s *RoomStore) Load(ctx context.Context, id string) (*models.Room, error) {
	data, err := s.rdb.Get(ctx, roomKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		s.logger.Error("Failed to load room from Redis", zap.String("roomID", id), zap.Error(err))
		return nil, err
	}
	var room models.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		s.logger.Error("Failed to decode room document", zap.String("roomID", id), zap.Error(err))
		return nil, err
	}
	return &room, nil
}

// Save はルームをJSONにして保存します。
func (s *RoomStore) Save(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, roomKeyPrefix+room.ID, data, 0).Err(); err != nil {
		s.logger.Error("Failed to save room to Redis", zap.String("roomID", room.ID), zap.Error(err))
		return err
	}
	return nil
}

// Delete はルームを削除します。存在しなくてもエラーにはなりません。
func (s *RoomStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, roomKeyPrefix+id).Err()
}

// List は全ルームを走査して返します（ロビー表示と定期クリーンナップ用）。
func (s *RoomStore) List(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room
	iter := s.rdb.Scan(ctx, 0, roomKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.rdb.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // 走査中に消えたキーは飛ばす
			}
			return nil, err
		}
		var room models.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			s.logger.Error("Skipping undecodable room document", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		rooms = append(rooms, &room)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ReserveName はSETNXでルーム名の一意性を予約します。
func (s *RoomStore) ReserveName(ctx context.Context, name, id string) (bool, error) {
	return s.rdb.SetNX(ctx, nameKeyPrefix+name, id, 0).Result()
}

// ReleaseName はルーム名の予約を解放します。
func (s *RoomStore) ReleaseName(ctx context.Context, name string) error {
	return s.rdb.Del(ctx, nameKeyPrefix+name).Err()
}
