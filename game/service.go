package game

import (
	"context"
	"sync"
	"time"

	"lkrserver/models"

	"go.uber.org/zap"
)

// ルーム削除までの猶予。EndTime設定から3分後に自動削除される。
const DeleteDelay = 3 * time.Minute

// 1ゲームのラウンド数上限。
const DefaultMaxRound = 5

// ブロードキャストのチャンネル名。roomIdごとにトピックが分かれる。
const (
	ChannelRoom   = "room"
	ChannelVote   = "vote"
	ChannelLeader = "leader"
)

// RoomStore はRoomドキュメントのキー付きストアです（本番はRedis実装）。
// Loadはルームが存在しない場合 (nil, nil) を返します。
type RoomStore interface {
	Load(ctx context.Context, id string) (*models.Room, error)
	Save(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Room, error)
	// ReserveName はルーム名の一意性を予約します。既に使われていればfalse。
	ReserveName(ctx context.Context, name, id string) (bool, error)
	ReleaseName(ctx context.Context, name string) error
}

// RecordStore はGameRecordのアーカイブストアです（本番はPostgreSQL/gorm実装）。
// ByRoomIDは記録が存在しない場合 (nil, nil) を返します。
type RecordStore interface {
	Create(ctx context.Context, record *models.GameRecord) error
	ByRoomID(ctx context.Context, roomID string) (*models.GameRecord, error)
	All(ctx context.Context) ([]models.GameRecord, error)
}

// Broadcaster はルームIDごとのトピックへイベントを配信します。
// 配信は投げっぱなしで、失敗しても状態変更には影響しません。
type Broadcaster interface {
	Publish(roomID, channel string, payload interface{})
}

// Service はゲームセッションの状態遷移をすべて担う中核です。
// 同一ルームへの読み書きはルームごとのミューテックスで直列化されます。
// ルームが異なれば操作は並行に処理されます。
type Service struct {
	rooms   RoomStore
	records RecordStore
	bc      Broadcaster
	logger  *zap.Logger

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	timers map[string]*time.Timer // 遅延削除タイマー。キーはルームID

	deleteDelay time.Duration
}

func NewService(rooms RoomStore, records RecordStore, bc Broadcaster, logger *zap.Logger) *Service {
	return &Service{
		rooms:       rooms,
		records:     records,
		bc:          bc,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
		timers:      make(map[string]*time.Timer),
		deleteDelay: DeleteDelay,
	}
}

// roomLock はルームIDに対応するミューテックスを返します（なければ作る）。
func (s *Service) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[roomID] = lock
	}
	return lock
}

// loadRoom はルームを取得し、存在しなければNotFoundを返します。
func (s *Service) loadRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.rooms.Load(ctx, roomID)
	if err != nil {
		s.logger.Error("Failed to load room", zap.String("roomID", roomID), zap.Error(err))
		return nil, err
	}
	if room == nil {
		return nil, errNotFound("room not found")
	}
	return room, nil
}

// dropRoom はルームと名前予約、保留中の削除タイマーをまとめて破棄します。
func (s *Service) dropRoom(ctx context.Context, room *models.Room) error {
	if err := s.rooms.Delete(ctx, room.ID); err != nil {
		return err
	}
	if err := s.rooms.ReleaseName(ctx, room.Name); err != nil {
		s.logger.Error("Failed to release room name", zap.String("name", room.Name), zap.Error(err))
	}
	s.cancelDeletion(room.ID)
	s.mu.Lock()
	delete(s.locks, room.ID)
	s.mu.Unlock()
	return nil
}
