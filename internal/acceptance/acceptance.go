// Package acceptance tracks the accept/decline vote of a freshly formed match.
package acceptance

import (
	"errors"
	"time"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

var (
	ErrNotInRoster     = errors.New("player is not part of this match")
	ErrAlreadyResolved = errors.New("match acceptance already resolved")
)

// State is owned by a single goroutine. Resolution happens exactly once: the
// first caller of TryResolve wins and every later caller sees false.
type State struct {
	MatchID  string
	Roster   []match.Identifier
	Deadline time.Time

	bots     map[match.Identifier]bool
	accepted map[match.Identifier]bool
	declined map[match.Identifier]bool
	resolved bool
}

func New(matchID string, roster []match.AssignedPlayer, deadline time.Time) *State {
	s := &State{
		MatchID:  matchID,
		Deadline: deadline,
		bots:     make(map[match.Identifier]bool),
		accepted: make(map[match.Identifier]bool),
		declined: make(map[match.Identifier]bool),
	}
	for _, p := range roster {
		s.Roster = append(s.Roster, p.ID)
		if p.Kind == match.Bot {
			s.bots[p.ID] = true
		}
	}
	return s
}

func (s *State) member(id match.Identifier) bool {
	for _, r := range s.Roster {
		if r == id {
			return true
		}
	}
	return false
}

// Accept records id's acceptance. added is false for a repeat; complete is
// true once every roster member has accepted.
func (s *State) Accept(id match.Identifier) (added, complete bool, err error) {
	if !s.member(id) {
		return false, false, ErrNotInRoster
	}
	if s.resolved {
		return false, false, ErrAlreadyResolved
	}
	if !s.accepted[id] {
		s.accepted[id] = true
		added = true
	}
	return added, len(s.accepted) == len(s.Roster), nil
}

// Decline records id as a decliner. It does not resolve the state.
func (s *State) Decline(id match.Identifier) error {
	if !s.member(id) {
		return ErrNotInRoster
	}
	if s.resolved {
		return ErrAlreadyResolved
	}
	delete(s.accepted, id)
	s.declined[id] = true
	return nil
}

// TryResolve sets the exclusivity flag. Only the first call returns true.
func (s *State) TryResolve() bool {
	if s.resolved {
		return false
	}
	s.resolved = true
	return true
}

func (s *State) Resolved() bool { return s.resolved }

func (s *State) HasAccepted(id match.Identifier) bool { return s.accepted[id] }

// Accepted lists acceptors in roster order.
func (s *State) Accepted() []match.Identifier { return s.filter(func(id match.Identifier) bool { return s.accepted[id] }) }

// Declined lists explicit decliners in roster order.
func (s *State) Declined() []match.Identifier { return s.filter(func(id match.Identifier) bool { return s.declined[id] }) }

// Pending lists roster members that have not accepted.
func (s *State) Pending() []match.Identifier {
	return s.filter(func(id match.Identifier) bool { return !s.accepted[id] })
}

func (s *State) Bots() []match.Identifier { return s.filter(func(id match.Identifier) bool { return s.bots[id] }) }

func (s *State) filter(keep func(match.Identifier) bool) []match.Identifier {
	var out []match.Identifier
	for _, id := range s.Roster {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}

// Remaining is the time left before the deadline, never negative.
func (s *State) Remaining(now time.Time) time.Duration {
	if d := s.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

type Progress struct {
	Accepted int                `json:"acceptedCount"`
	Total    int                `json:"totalPlayers"`
	Pending  []match.Identifier `json:"pendingPlayers"`
}

func (s *State) Progress() Progress {
	return Progress{Accepted: len(s.accepted), Total: len(s.Roster), Pending: s.Pending()}
}
