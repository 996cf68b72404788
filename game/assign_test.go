package game

import (
	"context"
	"reflect"
	"testing"

	"lkrserver/models"
)

func TestAssignRoles(t *testing.T) {
	svc, store, _, bc := newTestService(t)
	ctx := context.Background()
	players := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	seedRoom(t, store, &models.Room{ID: "r1", Name: "arena", Capacity: 7, Players: players})

	assigned, leader, err := svc.AssignRoles(ctx, "r1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if leader != "p1" {
		t.Errorf("initial leader = %q, want p1", leader)
	}
	if len(assigned) != len(players) {
		t.Fatalf("assigned %d roles for %d players", len(assigned), len(players))
	}

	// 配られた役職の多重集合が7人用の配役表と一致すること
	wantRoles, _ := RolesFor(7)
	want := make(map[string]int)
	for _, r := range wantRoles {
		want[r.Name]++
	}
	got := make(map[string]int)
	for _, info := range assigned {
		got[info.Name]++
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("role multiset = %v, want %v", got, want)
	}

	if !bc.has(ChannelRoom, "startRealGame") {
		t.Errorf("startRealGame was not broadcast")
	}
	if !bc.has(ChannelLeader, "p1") {
		t.Errorf("initial leader was not broadcast")
	}
}

func TestAssignRolesIdempotent(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedRoom(t, store, &models.Room{
		ID: "r1", Name: "arena", Capacity: 5,
		Players: []string{"p1", "p2", "p3", "p4", "p5"},
	})

	first, _, err := svc.AssignRoles(ctx, "r1")
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}
	second, _, err := svc.AssignRoles(ctx, "r1")
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second assign changed the mapping:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestAssignRolesUnsupportedHeadcount(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	seedRoom(t, store, &models.Room{
		ID: "r1", Name: "arena", Capacity: 5,
		Players: []string{"p1", "p2"}, // 2人では配役表がない
	})
	_, _, err := svc.AssignRoles(context.Background(), "r1")
	wantKind(t, err, KindInvalidArgument)
}

func TestAssignRolesBuildsSkillOrder(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedRoom(t, store, &models.Room{
		ID: "r1", Name: "arena", Capacity: 5,
		Players: []string{"p1", "p2", "p3", "p4", "p5"},
	})
	if _, _, err := svc.AssignRoles(ctx, "r1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	room := mustLoad(t, store, "r1")
	// 5人戦の配役はScout/Civilian×2/Lurker/EvilCivilianなので、
	// スキル発動順にはLurkerとScoutだけがこの順で並ぶ
	want := []string{RoleLurker, RoleScout}
	if !reflect.DeepEqual(room.SkillOrder, want) {
		t.Errorf("skill order = %v, want %v", room.SkillOrder, want)
	}
}
