package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"lkrserver/models"

	"go.uber.org/zap"
)

// memRoomStore はテスト用のインメモリRoomStoreです。
// 保存時にJSONで深いコピーを取り、Saveし忘れを検出できるようにする。
type memRoomStore struct {
	mu    sync.Mutex
	rooms map[string][]byte
	names map[string]string
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{
		rooms: make(map[string][]byte),
		names: make(map[string]string),
	}
}

func (m *memRoomStore) Load(ctx context.Context, id string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.rooms[id]
	if !ok {
		return nil, nil
	}
	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (m *memRoomStore) Save(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = data
	return nil
}

func (m *memRoomStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	return nil
}

func (m *memRoomStore) List(ctx context.Context) ([]*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Room, 0, len(m.rooms))
	for _, data := range m.rooms {
		var room models.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return nil, err
		}
		out = append(out, &room)
	}
	return out, nil
}

func (m *memRoomStore) ReserveName(ctx context.Context, name, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.names[name]; taken {
		return false, nil
	}
	m.names[name] = id
	return true, nil
}

func (m *memRoomStore) ReleaseName(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.names, name)
	return nil
}

// memRecordStore はテスト用のインメモリRecordStoreです。
type memRecordStore struct {
	mu      sync.Mutex
	records []models.GameRecord
}

func (m *memRecordStore) Create(ctx context.Context, record *models.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

func (m *memRecordStore) ByRoomID(ctx context.Context, roomID string) (*models.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].RoomID == roomID {
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memRecordStore) All(ctx context.Context) ([]models.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.GameRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// captureBroadcaster は配信されたイベントを記録するだけのBroadcasterです。
type captureBroadcaster struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	RoomID  string
	Channel string
	Payload interface{}
}

func (b *captureBroadcaster) Publish(roomID, channel string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, capturedEvent{RoomID: roomID, Channel: channel, Payload: payload})
}

// has は指定チャンネルに文字列ペイロードが配信されたかを調べます。
func (b *captureBroadcaster) has(channel, payload string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.Channel == channel {
			if s, ok := e.Payload.(string); ok && s == payload {
				return true
			}
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, *memRoomStore, *memRecordStore, *captureBroadcaster) {
	t.Helper()
	rooms := newMemRoomStore()
	records := &memRecordStore{}
	bc := &captureBroadcaster{}
	svc := NewService(rooms, records, bc, zap.NewNop())
	return svc, rooms, records, bc
}

// seedRoom はストアに直接ルームを書き込むテスト用ヘルパーです。
func seedRoom(t *testing.T, store *memRoomStore, room *models.Room) {
	t.Helper()
	if room.Avatars == nil {
		room.Avatars = make(map[string]string)
	}
	if room.AssignedRoles == nil {
		room.AssignedRoles = make(map[string]models.RoleInfo)
	}
	if room.VoteMap == nil {
		room.VoteMap = make(map[string]models.Ballot)
	}
	if room.SubmittedCards == nil {
		room.SubmittedCards = make(map[string]string)
	}
	if room.MissionResults == nil {
		room.MissionResults = make(map[int]*models.MissionRecord)
	}
	if room.MedicProtection == nil {
		room.MedicProtection = make(map[int]string)
	}
	if room.ShadowDisabled == nil {
		room.ShadowDisabled = make(map[int][]string)
	}
	if room.UltimateUsed == nil {
		room.UltimateUsed = make(map[string]bool)
	}
	if room.CurrentRound == 0 {
		room.CurrentRound = 1
	}
	if room.MaxRound == 0 {
		room.MaxRound = DefaultMaxRound
	}
	if err := store.Save(context.Background(), room); err != nil {
		t.Fatalf("seed room: %v", err)
	}
}

func mustLoad(t *testing.T, store *memRoomStore, id string) *models.Room {
	t.Helper()
	room, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load room: %v", err)
	}
	if room == nil {
		t.Fatalf("room %q not found", id)
	}
	return room
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %v, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("error kind = %v, want %v (err: %v)", got, kind, err)
	}
}
