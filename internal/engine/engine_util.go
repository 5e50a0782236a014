package engine

import (
	"slices"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

// NewState captures the roster of rec for a fresh draft.
func NewState(rec *match.Record, pool Pool) State {
	s := State{
		Status: rec.Status,
		Blue:   rec.Team1,
		Red:    rec.Team2,
		Picks:  map[match.Side][]int{match.Blue: {}, match.Red: {}},
		Bans:   map[match.Side][]int{match.Blue: {}, match.Red: {}},
		Pool:   pool,
	}
	s.Phase = DerivePhase(s.Cursor)
	return s
}

func (s State) clone() State {
	c := s
	c.Actions = slices.Clone(s.Actions)
	c.Picks = map[match.Side][]int{match.Blue: slices.Clone(s.Picks[match.Blue]), match.Red: slices.Clone(s.Picks[match.Red])}
	c.Bans = map[match.Side][]int{match.Blue: slices.Clone(s.Bans[match.Blue]), match.Red: slices.Clone(s.Bans[match.Red])}
	return c
}

// PlayerAt resolves the roster member a template step belongs to.
func (s State) PlayerAt(step TurnStep) match.AssignedPlayer {
	if step.Side == match.Red {
		return s.Red[step.Slot]
	}
	return s.Blue[step.Slot]
}

// Next returns the pending step and the player expected to act on it.
func (s State) Next() (TurnStep, match.AssignedPlayer, bool) {
	step, done := currentStep(s)
	if done {
		return TurnStep{}, match.AssignedPlayer{}, false
	}
	return step, s.PlayerAt(step), true
}

func (s State) Completed() bool { return s.Cursor >= len(ProTemplate) }

// LockedPicks maps each pick back to the side and slot of the player who made it.
func (s State) LockedPicks() []match.DraftAction {
	var out []match.DraftAction
	for _, a := range s.Actions {
		if a.Type == match.Pick {
			out = append(out, a)
		}
	}
	return out
}

// SlotOf returns the roster slot of id on side, or -1.
func (s State) SlotOf(side match.Side, id match.Identifier) int {
	team := s.Blue
	if side == match.Red {
		team = s.Red
	}
	for i, p := range team {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func DerivePhase(cursor int) Phase {
	if cursor >= len(ProTemplate) {
		return PhaseDone
	} else if cursor >= 0 && cursor <= 5 {
		return PhaseBan1
	} else if cursor > 5 && cursor <= 11 {
		return PhasePick1
	} else if cursor > 11 && cursor <= 15 {
		return PhaseBan2
	} else {
		return PhasePick2
	}
}
