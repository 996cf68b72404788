package game

import (
	"context"
	"testing"
	"time"

	"lkrserver/models"
)

func seedFinishedRoom(t *testing.T, store *memRoomStore) {
	t.Helper()
	seedRoom(t, store, &models.Room{
		ID: "r1", Name: "arena", Capacity: 5,
		Players: []string{"p1", "p2", "p3", "p4", "p5"},
		AssignedRoles: map[string]models.RoleInfo{
			"p1": {Name: RoleScout, Image: "goodpeople1.png"},
			"p2": {Name: RoleCivilian, Image: "goodpeople4.png"},
			"p3": {Name: RoleCivilian, Image: "goodpeople4.png"},
			"p4": {Name: RoleLurker, Image: "badpeople1.png"},
			"p5": {Name: RoleEvilCivilian, Image: "badpeople4.png"},
		},
		SuccessCount: 3,
		FailCount:    2,
	})
}

func TestEndGame(t *testing.T) {
	svc, store, records, bc := newTestService(t)
	ctx := context.Background()
	seedFinishedRoom(t, store)

	record, err := svc.EndGame(ctx, "r1", "goodWin")
	if err != nil {
		t.Fatalf("end game: %v", err)
	}
	if record.RoomID != "r1" || record.PlayerCount != 5 {
		t.Errorf("record = %+v", record)
	}
	if record.SuccessCount != 3 || record.FailCount != 2 {
		t.Errorf("score = %d/%d, want 3/2", record.SuccessCount, record.FailCount)
	}

	// 正義側勝利なら正義役職がwin、邪悪役職がloss
	wantOutcomes := map[string]string{
		"p1": "win", "p2": "win", "p3": "win",
		"p4": "loss", "p5": "loss",
	}
	for player, want := range wantOutcomes {
		if got := record.PlayerResults[player].Outcome; got != want {
			t.Errorf("%s outcome = %q, want %q", player, got, want)
		}
	}
	if record.PlayerResults["p1"].Avatar != "/images/goodpeople1.png" {
		t.Errorf("avatar path = %q", record.PlayerResults["p1"].Avatar)
	}

	stored, err := records.ByRoomID(ctx, "r1")
	if err != nil || stored == nil {
		t.Fatalf("record was not persisted: %v", err)
	}
	if mustLoad(t, store, "r1").EndTime == nil {
		t.Errorf("end time was not set")
	}

	found := false
	bc.mu.Lock()
	for _, e := range bc.events {
		if ev, ok := e.Payload.(GameEndEvent); ok && ev.Type == "GAME_END" {
			found = true
		}
	}
	bc.mu.Unlock()
	if !found {
		t.Errorf("GAME_END was not broadcast")
	}
}

func TestEndGameEvilWin(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	seedFinishedRoom(t, store)

	record, err := svc.EndGame(context.Background(), "r1", "evilWin")
	if err != nil {
		t.Fatalf("end game: %v", err)
	}
	if record.PlayerResults["p4"].Outcome != "win" || record.PlayerResults["p1"].Outcome != "loss" {
		t.Errorf("evil win outcomes = %v", record.PlayerResults)
	}
}

func TestEndGameTwiceConflicts(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedFinishedRoom(t, store)

	if _, err := svc.EndGame(ctx, "r1", "goodWin"); err != nil {
		t.Fatalf("first end: %v", err)
	}
	_, err := svc.EndGame(ctx, "r1", "goodWin")
	wantKind(t, err, KindConflict)
}

func TestSweepExpiredRooms(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	old := time.Now().Add(-10 * time.Minute)
	fresh := time.Now()
	seedRoom(t, store, &models.Room{ID: "r1", Name: "old", Capacity: 5, Players: []string{"a"}, EndTime: &old})
	seedRoom(t, store, &models.Room{ID: "r2", Name: "fresh", Capacity: 5, Players: []string{"b"}, EndTime: &fresh})
	seedRoom(t, store, &models.Room{ID: "r3", Name: "live", Capacity: 5, Players: []string{"c"}})

	deleted, err := svc.SweepExpiredRooms(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if r, _ := store.Load(ctx, "r1"); r != nil {
		t.Errorf("expired room survived the sweep")
	}
	if r, _ := store.Load(ctx, "r2"); r == nil {
		t.Errorf("fresh room was swept")
	}
	if r, _ := store.Load(ctx, "r3"); r == nil {
		t.Errorf("unfinished room was swept")
	}
}

func TestRecordByRoomNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.RecordByRoom(context.Background(), "missing")
	wantKind(t, err, KindNotFound)
}

func TestGetPlayerStats(t *testing.T) {
	svc, _, records, _ := newTestService(t)
	ctx := context.Background()

	records.records = []models.GameRecord{
		{RoomID: "a", PlayerResults: map[string]models.PlayerResult{
			"alice": {Outcome: "win"}, "bob": {Outcome: "loss"},
		}},
		{RoomID: "b", PlayerResults: map[string]models.PlayerResult{
			"alice": {Outcome: "loss"}, "bob": {Outcome: "win"},
		}},
		{RoomID: "c", PlayerResults: map[string]models.PlayerResult{
			"alice": {Outcome: "win"},
		}},
	}

	stats, err := svc.GetPlayerStats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalGames != 3 || stats.Wins != 2 {
		t.Errorf("stats = %+v, want 3 games 2 wins", stats)
	}
	if stats.WinRate < 66.6 || stats.WinRate > 66.7 {
		t.Errorf("win rate = %v", stats.WinRate)
	}

	// 出場記録のない玩家は0勝0敗、勝率0
	stats, err = svc.GetPlayerStats(ctx, "nobody")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalGames != 0 || stats.WinRate != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}
}
