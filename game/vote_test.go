package game

import (
	"context"
	"testing"

	"lkrserver/models"
)

func boolPtr(b bool) *bool { return &b }

func seedVotingRoom(t *testing.T, store *memRoomStore, players []string) {
	t.Helper()
	seedRoom(t, store, &models.Room{
		ID: "r1", Name: "arena", Capacity: len(players),
		Players: players, Leader: players[0], LeaderIndex: 0,
	})
}

func TestVoteQuorum(t *testing.T) {
	tests := []struct {
		name     string
		ballots  map[string]models.Ballot // 玩家 → 票
		wantPass bool
	}{
		{
			name: "majority agrees",
			ballots: map[string]models.Ballot{
				"p1": models.BallotAgree, "p2": models.BallotAgree, "p3": models.BallotAgree,
				"p4": models.BallotReject, "p5": models.BallotReject,
			},
			wantPass: true,
		},
		{
			name: "majority rejects",
			ballots: map[string]models.Ballot{
				"p1": models.BallotAgree, "p2": models.BallotAgree,
				"p3": models.BallotReject, "p4": models.BallotReject, "p5": models.BallotReject,
			},
			wantPass: false,
		},
		{
			// 棄権は分母から除かれる。有効3票中2賛成で可決
			name: "abstentions shrink the quorum",
			ballots: map[string]models.Ballot{
				"p1": models.BallotAgree, "p2": models.BallotAgree, "p3": models.BallotReject,
				"p4": models.BallotAbstain, "p5": models.BallotAbstain,
			},
			wantPass: true,
		},
		{
			// 全員棄権なら有効票0、閾値0で自明に可決
			name: "everyone abstains",
			ballots: map[string]models.Ballot{
				"p1": models.BallotAbstain, "p2": models.BallotAbstain, "p3": models.BallotAbstain,
				"p4": models.BallotAbstain, "p5": models.BallotAbstain,
			},
			wantPass: true,
		},
		{
			// 有効2票がちょうど割れたら閾値1で可決（agree >= ceil(2/2)）
			name: "even split passes",
			ballots: map[string]models.Ballot{
				"p1": models.BallotAgree, "p2": models.BallotReject,
				"p3": models.BallotAbstain, "p4": models.BallotAbstain, "p5": models.BallotAbstain,
			},
			wantPass: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _, bc := newTestService(t)
			ctx := context.Background()
			players := []string{"p1", "p2", "p3", "p4", "p5"}
			seedVotingRoom(t, store, players)

			if err := svc.StartVote(ctx, "r1", []string{"p1", "p2"}); err != nil {
				t.Fatalf("start vote: %v", err)
			}
			for _, p := range players {
				b := tt.ballots[p]
				var agree *bool
				abstain := b == models.BallotAbstain
				if !abstain {
					agree = boolPtr(b == models.BallotAgree)
				}
				if _, err := svc.CastVote(ctx, "r1", p, agree, abstain); err != nil {
					t.Fatalf("cast vote %s: %v", p, err)
				}
			}

			if got := bc.has(ChannelVote, "votePassed"); got != tt.wantPass {
				t.Errorf("votePassed broadcast = %v, want %v", got, tt.wantPass)
			}
			if got := bc.has(ChannelVote, "voteFailed"); got == tt.wantPass {
				t.Errorf("voteFailed broadcast = %v, want %v", got, !tt.wantPass)
			}
		})
	}
}

func TestLeaderRotatesOncePerVote(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	players := []string{"p1", "p2", "p3", "p4", "p5"}
	seedVotingRoom(t, store, players)

	if err := svc.StartVote(ctx, "r1", []string{"p1"}); err != nil {
		t.Fatalf("start vote: %v", err)
	}
	for _, p := range players {
		if _, err := svc.CastVote(ctx, "r1", p, boolPtr(true), false); err != nil {
			t.Fatalf("cast vote: %v", err)
		}
	}
	room := mustLoad(t, store, "r1")
	if room.Leader != "p2" {
		t.Fatalf("leader after finalize = %q, want p2", room.Leader)
	}

	// 結算済みのラウンドにタイムアウトが届いても輪番は進まない
	if err := svc.FinalizeOnTimeout(ctx, "r1"); err != nil {
		t.Fatalf("timeout after close: %v", err)
	}
	room = mustLoad(t, store, "r1")
	if room.Leader != "p2" {
		t.Errorf("leader moved again on late timeout: %q", room.Leader)
	}
}

func TestLeaderRotationWrapsAround(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	players := []string{"p1", "p2", "p3", "p4", "p5"}
	seedRoom(t, store, &models.Room{
		ID: "r1", Name: "arena", Capacity: 5,
		Players: players, Leader: "p5", LeaderIndex: 4,
	})

	if err := svc.StartVote(ctx, "r1", []string{"p1"}); err != nil {
		t.Fatalf("start vote: %v", err)
	}
	if err := svc.FinalizeOnTimeout(ctx, "r1"); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	room := mustLoad(t, store, "r1")
	if room.Leader != "p1" {
		t.Errorf("leader = %q, want wrap to p1", room.Leader)
	}
}

func TestCastVoteGuards(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedVotingRoom(t, store, []string{"p1", "p2", "p3", "p4", "p5"})

	if err := svc.StartVote(ctx, "r1", []string{"p1"}); err != nil {
		t.Fatalf("start vote: %v", err)
	}
	_, err := svc.CastVote(ctx, "r1", "mallory", boolPtr(true), false)
	wantKind(t, err, KindForbidden)

	if err := svc.FinalizeOnTimeout(ctx, "r1"); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	_, err = svc.CastVote(ctx, "r1", "p1", boolPtr(true), false)
	wantKind(t, err, KindConflict)
}

func TestCastVoteAbstainOverridesAgree(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedVotingRoom(t, store, []string{"p1", "p2", "p3", "p4", "p5"})

	if err := svc.StartVote(ctx, "r1", []string{"p1"}); err != nil {
		t.Fatalf("start vote: %v", err)
	}
	tally, err := svc.CastVote(ctx, "r1", "p1", boolPtr(true), true)
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if tally.Agree != 0 || tally.Reject != 0 {
		t.Errorf("abstain counted as a vote: agree=%d reject=%d", tally.Agree, tally.Reject)
	}
	room := mustLoad(t, store, "r1")
	if room.VoteMap["p1"] != models.BallotAbstain {
		t.Errorf("ballot = %v, want abstain", room.VoteMap["p1"])
	}
}

func TestRevoteChangesBallot(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedVotingRoom(t, store, []string{"p1", "p2", "p3", "p4", "p5"})

	if err := svc.StartVote(ctx, "r1", []string{"p1"}); err != nil {
		t.Fatalf("start vote: %v", err)
	}
	if _, err := svc.CastVote(ctx, "r1", "p1", boolPtr(true), false); err != nil {
		t.Fatalf("cast: %v", err)
	}
	tally, err := svc.CastVote(ctx, "r1", "p1", boolPtr(false), false)
	if err != nil {
		t.Fatalf("revote: %v", err)
	}
	if tally.Agree != 0 || tally.Reject != 1 {
		t.Errorf("revote tally agree=%d reject=%d, want 0/1", tally.Agree, tally.Reject)
	}
}

func TestGetVoteState(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	seedVotingRoom(t, store, []string{"p1", "p2", "p3", "p4", "p5"})

	if err := svc.StartVote(ctx, "r1", []string{"p1", "p2"}); err != nil {
		t.Fatalf("start vote: %v", err)
	}
	if _, err := svc.CastVote(ctx, "r1", "p1", boolPtr(true), false); err != nil {
		t.Fatalf("cast: %v", err)
	}

	state, err := svc.GetVoteState(ctx, "r1", "p1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.HasVoted || state.CanVote {
		t.Errorf("p1 state = %+v, want voted and cannot vote again", state)
	}

	state, err = svc.GetVoteState(ctx, "r1", "p2")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.HasVoted || !state.CanVote {
		t.Errorf("p2 state = %+v, want not voted yet", state)
	}
	if state.Agree != 1 || state.Total != 5 {
		t.Errorf("state agree/total = %d/%d, want 1/5", state.Agree, state.Total)
	}
}
