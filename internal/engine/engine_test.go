package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

type testPool []int

func (p testPool) Contains(id int) bool { return slices.Contains(p, id) }
func (p testPool) IDs() []int           { return p }

func newPool(n int) testPool {
	p := make(testPool, n)
	for i := range p {
		p[i] = i + 1
	}
	return p
}

func newRecord() *match.Record {
	rec := &match.Record{ID: "m1", Status: match.StatusDraft}
	for i, lane := range match.CanonicalLanes {
		rec.Team1[i] = match.AssignedPlayer{ID: match.Identifier(fmt.Sprintf("blue%d#t", i)), Lane: lane, TeamIndex: i}
		rec.Team2[i] = match.AssignedPlayer{ID: match.Identifier(fmt.Sprintf("red%d#t", i)), Lane: lane, TeamIndex: i + 5}
	}
	return rec
}

func newDraft() State {
	return NewState(newRecord(), newPool(40))
}

// cmdFor builds the correct command for the current step.
func cmdFor(s State, champ int) Command {
	step, actor, _ := s.Next()
	return Command{Type: CommandFor(step.Action), Actor: actor.ID, ChampionID: champ}
}

func TestPickAtFirstBanIsRejected(t *testing.T) {
	s := newDraft()
	events, next, err := Apply(s, Command{Type: CmdLockPick, Actor: "blue0#t", ChampionID: 1})
	if !errors.Is(err, ErrWrongActionType) {
		t.Fatalf("expected ErrWrongActionType, got %v", err)
	}
	if events != nil || next.Cursor != 0 || len(next.Actions) != 0 {
		t.Fatalf("state changed on rejected command")
	}
}

func TestApplyRejections(t *testing.T) {
	base := newDraft()
	_, afterBan, err := Apply(base, cmdFor(base, 7))
	if err != nil {
		t.Fatalf("setup ban: %v", err)
	}
	pending := base
	pending.Status = match.StatusPending

	cases := []struct {
		name    string
		setup   State
		cmd     Command
		wantErr error
	}{
		{
			name:    "not drafting",
			setup:   pending,
			cmd:     Command{Type: CmdBanChampion, Actor: "blue0#t", ChampionID: 1},
			wantErr: ErrNotDrafting,
		},
		{
			name:    "wrong actor",
			setup:   base,
			cmd:     Command{Type: CmdBanChampion, Actor: "red0#t", ChampionID: 1},
			wantErr: ErrWrongActor,
		},
		{
			name:    "champion outside pool",
			setup:   base,
			cmd:     Command{Type: CmdBanChampion, Actor: "blue0#t", ChampionID: 999},
			wantErr: ErrIllegalChampion,
		},
		{
			name:    "champion already banned",
			setup:   afterBan,
			cmd:     Command{Type: CmdBanChampion, Actor: "red0#t", ChampionID: 7},
			wantErr: ErrIllegalChampion,
		},
		{
			name:    "unknown command",
			setup:   base,
			cmd:     Command{Type: "Hover", Actor: "blue0#t", ChampionID: 1},
			wantErr: ErrUnsupportedCommand,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next, err := Apply(tc.setup, tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if next.Cursor != tc.setup.Cursor || len(next.Actions) != len(tc.setup.Actions) {
				t.Fatalf("state changed on rejected command")
			}
		})
	}
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	s := newDraft()
	_, next, err := Apply(s, cmdFor(s, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Bans[match.Blue]) != 0 || len(s.Actions) != 0 {
		t.Fatalf("input state was mutated")
	}
	if len(next.Bans[match.Blue]) != 1 {
		t.Fatalf("ban not recorded")
	}
}

func TestFullDraftOrdering(t *testing.T) {
	s := newDraft()
	var last []Event
	for i := 0; i < len(ProTemplate); i++ {
		var err error
		last, s, err = Apply(s, cmdFor(s, i+1))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if s.Phase != DerivePhase(s.Cursor) {
			t.Fatalf("phase mismatch at %d", i)
		}
		if i < len(ProTemplate)-1 && ContainsEvent(last, EvtDraftCompleted) {
			t.Fatalf("draft reported complete at step %d", i)
		}
	}
	if !ContainsEvent(last, EvtDraftCompleted) || !s.Completed() {
		t.Fatalf("draft should be complete")
	}
	for i, a := range s.Actions {
		if a.ActionIndex != i {
			t.Fatalf("action %d has index %d", i, a.ActionIndex)
		}
		step := ProTemplate[i]
		if a.Side != step.Side || a.Type != step.Action || a.Actor != s.PlayerAt(step).ID {
			t.Fatalf("action %d does not follow template: %+v", i, a)
		}
	}
	if got := len(s.LockedPicks()); got != 10 {
		t.Fatalf("picks = %d", got)
	}
	if _, _, err := Apply(s, Command{Type: CmdLockPick, Actor: "red4#t", ChampionID: 30}); !errors.Is(err, ErrDraftFinished) {
		t.Fatalf("expected ErrDraftFinished, got %v", err)
	}
}

func TestEveryPlayerPicksOnce(t *testing.T) {
	seen := map[string]int{}
	for _, step := range ProTemplate {
		if step.Action == match.Pick {
			seen[fmt.Sprintf("%s%d", step.Side, step.Slot)]++
		}
	}
	if len(seen) != 10 {
		t.Fatalf("template picks cover %d players", len(seen))
	}
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("%s picks %d times", k, n)
		}
	}
}

func TestReduceReplaysOutOfOrderActions(t *testing.T) {
	s := newDraft()
	for i := 0; i < 8; i++ {
		_, s, _ = Apply(s, cmdFor(s, i+1))
	}
	shuffled := slices.Clone(s.Actions)
	slices.Reverse(shuffled)
	rebuilt, err := Reduce(newRecord(), newPool(40), shuffled)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.Cursor != 8 || rebuilt.Phase != PhasePick1 {
		t.Fatalf("rebuilt cursor=%d phase=%s", rebuilt.Cursor, rebuilt.Phase)
	}
}

func TestChooseRandomLegal(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	s := NewState(newRecord(), newPool(2))
	_, s, _ = Apply(s, cmdFor(s, 1))
	champ, ok := ChooseRandomLegal(s, rng)
	if !ok || champ != 2 {
		t.Fatalf("got %d, %v; want the only legal champion", champ, ok)
	}
	_, s, _ = Apply(s, cmdFor(s, 2))
	if _, ok := ChooseRandomLegal(s, rng); ok {
		t.Fatalf("expected no legal champion left")
	}
}
