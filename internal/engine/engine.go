package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sort"
	"time"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

var ErrNotDrafting = errors.New("match is not drafting")
var ErrDraftFinished = errors.New("draft already finished")
var ErrWrongActionType = errors.New("wrong action type for this turn")
var ErrWrongActor = errors.New("not this player's turn")
var ErrIllegalChampion = errors.New("illegal champion")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseBan1  Phase = "ban1"
	PhasePick1 Phase = "pick1"
	PhaseBan2  Phase = "ban2"
	PhasePick2 Phase = "pick2"
	PhaseDone  Phase = "done"
)

// Pool is the set of champions a draft may use.
type Pool interface {
	Contains(id int) bool
	IDs() []int
}

type State struct {
	Status  match.Status
	Phase   Phase
	Cursor  int
	Blue    [match.TeamSize]match.AssignedPlayer
	Red     [match.TeamSize]match.AssignedPlayer
	Picks   map[match.Side][]int
	Bans    map[match.Side][]int
	Actions []match.DraftAction
	Pool    Pool
}

type CommandType string

const (
	CmdLockPick    CommandType = "LockPick"
	CmdBanChampion CommandType = "BanChampion"
)

// CommandFor maps an action type onto its command.
func CommandFor(t match.ActionType) CommandType {
	if t == match.Pick {
		return CmdLockPick
	}
	return CmdBanChampion
}

type Command struct {
	Type       CommandType
	Actor      match.Identifier
	ChampionID int
	At         time.Time
}

type EventType string

const (
	EvtChampionPicked EventType = "ChampionPicked"
	EvtChampionBanned EventType = "ChampionBanned"
	EvtDraftCompleted EventType = "DraftCompleted"
)

type Event struct {
	Type        EventType
	Side        match.Side
	Actor       match.Identifier
	ChampionID  int
	ActionIndex int
}

// Apply validates cmd against the template position of s and returns the
// resulting events and state. On error s is returned unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Status != match.StatusDraft {
		return nil, s, ErrNotDrafting
	}
	step, done := currentStep(s)
	if done {
		return nil, s, ErrDraftFinished
	}

	var evt EventType
	switch cmd.Type {
	case CmdLockPick:
		if step.Action != match.Pick {
			return nil, s, ErrWrongActionType
		}
		evt = EvtChampionPicked
	case CmdBanChampion:
		if step.Action != match.Ban {
			return nil, s, ErrWrongActionType
		}
		evt = EvtChampionBanned
	default:
		return nil, s, ErrUnsupportedCommand
	}

	actor := s.PlayerAt(step)
	if cmd.Actor != actor.ID {
		return nil, s, ErrWrongActor
	}

	legal := canBan(s, cmd.ChampionID)
	if step.Action == match.Pick {
		legal = canPick(s, cmd.ChampionID)
	}
	if !legal {
		return nil, s, ErrIllegalChampion
	}

	at := cmd.At
	if at.IsZero() {
		at = time.Now()
	}
	action := match.DraftAction{
		ActionIndex: len(s.Actions),
		Side:        step.Side,
		Actor:       cmd.Actor,
		ChampionID:  cmd.ChampionID,
		Type:        step.Action,
		At:          at,
	}

	newState := s.clone()
	newState.Actions = append(newState.Actions, action)
	if step.Action == match.Pick {
		newState.Picks[step.Side] = append(newState.Picks[step.Side], cmd.ChampionID)
	} else {
		newState.Bans[step.Side] = append(newState.Bans[step.Side], cmd.ChampionID)
	}
	newState.Cursor++
	newState.Phase = DerivePhase(newState.Cursor)

	events := []Event{
		{Type: evt, Side: step.Side, Actor: cmd.Actor, ChampionID: cmd.ChampionID, ActionIndex: action.ActionIndex},
	}
	if newState.Cursor == len(ProTemplate) {
		events = append(events, Event{Type: EvtDraftCompleted})
	}
	return events, newState, nil
}

// Reduce rebuilds a draft from recorded actions. Actions are sorted by index
// first; replay stops at the first action the template rejects.
func Reduce(rec *match.Record, pool Pool, actions []match.DraftAction) (State, error) {
	s := NewState(rec, pool)
	sorted := slices.Clone(actions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ActionIndex < sorted[j].ActionIndex })
	for _, a := range sorted {
		_, next, err := Apply(s, Command{Type: CommandFor(a.Type), Actor: a.Actor, ChampionID: a.ChampionID, At: a.At})
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

// ChooseRandomLegal picks a uniformly random champion that is legal for the
// current step.
func ChooseRandomLegal(s State, rng *rand.Rand) (int, bool) {
	step, done := currentStep(s)
	if done || s.Pool == nil {
		return 0, false
	}
	var legal []int
	for _, id := range s.Pool.IDs() {
		ok := canBan(s, id)
		if step.Action == match.Pick {
			ok = canPick(s, id)
		}
		if ok {
			legal = append(legal, id)
		}
	}
	if len(legal) == 0 {
		return 0, false
	}
	return legal[rng.IntN(len(legal))], true
}

func hasPick(s State, id int) bool {
	return slices.Contains(s.Picks[match.Blue], id) || slices.Contains(s.Picks[match.Red], id)
}

func hasBan(s State, id int) bool {
	return slices.Contains(s.Bans[match.Blue], id) || slices.Contains(s.Bans[match.Red], id)
}

func inPool(s State, id int) bool {
	return s.Pool != nil && s.Pool.Contains(id)
}

func canPick(s State, id int) bool {
	return inPool(s, id) && !hasBan(s, id) && !hasPick(s, id)
}

func canBan(s State, id int) bool {
	return inPool(s, id) && !hasBan(s, id) && !hasPick(s, id)
}

func currentStep(s State) (TurnStep, bool) {
	if s.Cursor >= len(ProTemplate) {
		return TurnStep{}, true
	}
	return ProTemplate[s.Cursor], false
}
