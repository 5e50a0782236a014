// Package session tracks a game from the end of the draft to its result.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

var (
	ErrUnknownEventType = errors.New("unknown game event type")
	ErrSessionClosed    = errors.New("game session already closed")
	ErrInvalidWinner    = errors.New("winner team must be 1 or 2")
	ErrInvalidReason    = errors.New("unknown end reason")
)

// Rating deltas applied when a game completes.
const (
	WinDelta  = 20
	LossDelta = -15
)

type EventType string

const (
	EventGameStart        EventType = "game_start"
	EventPlayerDisconnect EventType = "player_disconnect"
	EventPlayerReconnect  EventType = "player_reconnect"
	EventSurrender        EventType = "surrender"
	EventGameEnd          EventType = "game_end"
	EventGameCancelled    EventType = "game_cancelled"
)

// Recordable reports whether t may be logged by a caller mid-game.
func (t EventType) Recordable() bool {
	switch t {
	case EventPlayerDisconnect, EventPlayerReconnect, EventSurrender:
		return true
	}
	return false
}

type EndReason string

const (
	EndVictory    EndReason = "victory"
	EndSurrender  EndReason = "surrender"
	EndDisconnect EndReason = "disconnect"
)

type Event struct {
	ID      string         `json:"id"`
	Type    EventType      `json:"type"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Result struct {
	WinnerTeam int           `json:"winnerTeam"`
	Duration   time.Duration `json:"duration"`
	EndReason  EndReason     `json:"endReason"`
}

type RatingChange struct {
	Before int `json:"before"`
	Delta  int `json:"delta"`
	After  int `json:"after"`
}

type Summary struct {
	MatchID       string                               `json:"matchId"`
	Status        match.Status                         `json:"status"`
	StartedAt     time.Time                            `json:"startedAt"`
	EndedAt       time.Time                            `json:"endedAt"`
	Team1         [match.TeamSize]match.AssignedPlayer `json:"team1"`
	Team2         [match.TeamSize]match.AssignedPlayer `json:"team2"`
	Result        *Result                              `json:"result,omitempty"`
	Reason        string                               `json:"reason,omitempty"`
	Events        []Event                              `json:"events"`
	RatingChanges map[match.Identifier]RatingChange    `json:"ratingChanges,omitempty"`
}

// Session is owned by the coordinator loop and is not safe for concurrent use.
type Session struct {
	MatchID   string
	StartedAt time.Time
	Status    match.Status
	Team1     [match.TeamSize]match.AssignedPlayer
	Team2     [match.TeamSize]match.AssignedPlayer
	Events    []Event
	Result    *Result
	endedAt   time.Time
	reason    string
}

// Start snapshots the drafted roster, champions included.
func Start(rec *match.Record, at time.Time) *Session {
	s := &Session{
		MatchID:   rec.ID,
		StartedAt: at,
		Status:    match.StatusInProgress,
		Team1:     rec.Team1,
		Team2:     rec.Team2,
	}
	s.append(EventGameStart, map[string]any{"matchId": rec.ID}, at)
	return s
}

func (s *Session) append(t EventType, payload map[string]any, at time.Time) Event {
	e := Event{ID: uuid.NewString(), Type: t, At: at, Payload: payload}
	s.Events = append(s.Events, e)
	return e
}

func (s *Session) Open() bool { return s.Status == match.StatusInProgress }

// Record appends a mid-game event.
func (s *Session) Record(t EventType, payload map[string]any, at time.Time) (Event, error) {
	if !s.Open() {
		return Event{}, ErrSessionClosed
	}
	if !t.Recordable() {
		return Event{}, ErrUnknownEventType
	}
	return s.append(t, payload, at), nil
}

// Finish closes the session with a winner and computes rating changes.
// A zero Duration is derived from the start time.
func (s *Session) Finish(res Result, at time.Time) (Summary, error) {
	if !s.Open() {
		return Summary{}, ErrSessionClosed
	}
	if res.WinnerTeam != 1 && res.WinnerTeam != 2 {
		return Summary{}, ErrInvalidWinner
	}
	switch res.EndReason {
	case "":
		res.EndReason = EndVictory
	case EndVictory, EndSurrender, EndDisconnect:
	default:
		return Summary{}, ErrInvalidReason
	}
	if res.Duration <= 0 {
		res.Duration = at.Sub(s.StartedAt)
	}
	s.Status = match.StatusCompleted
	s.Result = &res
	s.endedAt = at
	s.append(EventGameEnd, map[string]any{
		"winnerTeam": res.WinnerTeam,
		"endReason":  string(res.EndReason),
		"duration":   res.Duration.Seconds(),
	}, at)
	sum := s.Summary()
	sum.RatingChanges = RatingChanges(s.Team1, s.Team2, res.WinnerTeam)
	return sum, nil
}

// Cancel closes the session without a result.
func (s *Session) Cancel(reason string, at time.Time) (Summary, error) {
	if !s.Open() {
		return Summary{}, ErrSessionClosed
	}
	s.Status = match.StatusCancelled
	s.endedAt = at
	s.reason = reason
	s.append(EventGameCancelled, map[string]any{"reason": reason}, at)
	return s.Summary(), nil
}

func (s *Session) Summary() Summary {
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return Summary{
		MatchID:   s.MatchID,
		Status:    s.Status,
		StartedAt: s.StartedAt,
		EndedAt:   s.endedAt,
		Team1:     s.Team1,
		Team2:     s.Team2,
		Result:    s.Result,
		Reason:    s.reason,
		Events:    events,
	}
}

// RatingChanges gives winners WinDelta and losers LossDelta, flooring the new
// rating at zero.
func RatingChanges(team1, team2 [match.TeamSize]match.AssignedPlayer, winner int) map[match.Identifier]RatingChange {
	out := make(map[match.Identifier]RatingChange, match.RosterSize)
	apply := func(team [match.TeamSize]match.AssignedPlayer, delta int) {
		for _, p := range team {
			after := p.MMR + delta
			if after < 0 {
				after = 0
			}
			out[p.ID] = RatingChange{Before: p.MMR, Delta: after - p.MMR, After: after}
		}
	}
	if winner == 1 {
		apply(team1, WinDelta)
		apply(team2, LossDelta)
	} else {
		apply(team1, LossDelta)
		apply(team2, WinDelta)
	}
	return out
}
