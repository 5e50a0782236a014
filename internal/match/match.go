// Package match holds the domain types shared by the queue, the balancer, the
// draft engine and the coordinator.
package match

import (
	"errors"
	"fmt"
	"time"
)

// Kind tags a participant as a human or a bot. It is fixed when the queue
// entry is created.
type Kind uint8

const (
	Human Kind = iota
	Bot
)

func (k Kind) String() string {
	if k == Bot {
		return "bot"
	}
	return "human"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "human", "":
		*k = Human
	case "bot":
		*k = Bot
	default:
		return fmt.Errorf("unknown participant kind %q", b)
	}
	return nil
}

// AcceptanceFlag mirrors the persisted acceptance status of a queue entry.
type AcceptanceFlag int

const (
	FlagNeutral AcceptanceFlag = iota
	FlagAccepted
	FlagDeclined
)

func (f AcceptanceFlag) String() string {
	switch f {
	case FlagAccepted:
		return "accepted"
	case FlagDeclined:
		return "declined"
	default:
		return "neutral"
	}
}

type QueueEntry struct {
	ID         Identifier     `json:"id"`
	MMR        int            `json:"mmr"`
	Primary    Lane           `json:"primaryLane"`
	Secondary  Lane           `json:"secondaryLane"`
	JoinedAt   time.Time      `json:"joinedAt"`
	Kind       Kind           `json:"kind"`
	MatchID    string         `json:"matchId,omitempty"`
	Acceptance AcceptanceFlag `json:"acceptance"`
}

// Reserved reports whether a pending match holds the entry.
func (e QueueEntry) Reserved() bool { return e.MatchID != "" }

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statusOrder = map[Status]int{
	StatusPending:    0,
	StatusAccepted:   1,
	StatusDraft:      2,
	StatusInProgress: 3,
	StatusCompleted:  4,
}

// CanTransition reports whether a match may move from s to next. Status only
// moves forward; cancellation is allowed from any non-terminal status except
// accepted, which is transient.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return s == StatusPending || s == StatusDraft || s == StatusInProgress
	}
	from, ok1 := statusOrder[s]
	to, ok2 := statusOrder[next]
	return ok1 && ok2 && to == from+1
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var ErrInvalidTransition = errors.New("invalid status transition")

// Advance moves r to next if the status machine allows it.
func (r *Record) Advance(next Status) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	return nil
}

type Side string

const (
	Blue Side = "blue"
	Red  Side = "red"
)

// Team returns 1 for blue and 2 for red.
func (s Side) Team() int {
	if s == Red {
		return 2
	}
	return 1
}

type ActionType string

var ErrInvalidActionType = errors.New("invalid action type")

const (
	Ban  ActionType = "ban"
	Pick ActionType = "pick"
)

func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case Ban, Pick:
		return ActionType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidActionType, s)
}

type AssignedPlayer struct {
	ID         Identifier `json:"id"`
	Lane       Lane       `json:"lane"`
	MMR        int        `json:"mmr"`
	IsAutofill bool       `json:"isAutofill"`
	TeamIndex  int        `json:"teamIndex"`
	Kind       Kind       `json:"kind"`
	ChampionID int        `json:"championId,omitempty"`
}

type DraftAction struct {
	ActionIndex int        `json:"actionIndex"`
	Side        Side       `json:"side"`
	Actor       Identifier `json:"actor"`
	ChampionID  int        `json:"championId"`
	Type        ActionType `json:"type"`
	At          time.Time  `json:"at"`
}

type DraftState struct {
	Actions []DraftAction `json:"actions"`
}

// CurrentIndex is the template position of the next expected action.
func (d *DraftState) CurrentIndex() int {
	if d == nil {
		return 0
	}
	return len(d.Actions)
}

// Record is a match from creation to its terminal status. Team arrays are
// indexed by lane rank.
type Record struct {
	ID         string                   `json:"id"`
	Status     Status                   `json:"status"`
	Team1      [TeamSize]AssignedPlayer `json:"team1"`
	Team2      [TeamSize]AssignedPlayer `json:"team2"`
	AverageMMR [2]float64               `json:"averageMmr"`
	CreatedAt  time.Time                `json:"createdAt"`
	Draft      *DraftState              `json:"draft,omitempty"`
}

var ErrLaneInvariant = errors.New("team lanes are not a permutation of the canonical lanes")

// Roster returns all ten players in team index order.
func (r *Record) Roster() []AssignedPlayer {
	out := make([]AssignedPlayer, 0, RosterSize)
	out = append(out, r.Team1[:]...)
	return append(out, r.Team2[:]...)
}

func (r *Record) Identifiers() []Identifier {
	out := make([]Identifier, 0, RosterSize)
	for _, p := range r.Roster() {
		out = append(out, p.ID)
	}
	return out
}

func (r *Record) Player(id Identifier) (AssignedPlayer, bool) {
	for _, p := range r.Roster() {
		if p.ID == id {
			return p, true
		}
	}
	return AssignedPlayer{}, false
}

// SetChampion stores a locked-in champion on the player at slot.
func (r *Record) SetChampion(side Side, slot, championID int) {
	if side == Red {
		r.Team2[slot].ChampionID = championID
		return
	}
	r.Team1[slot].ChampionID = championID
}

// ValidateLanes checks that every team covers each canonical lane exactly once.
func (r *Record) ValidateLanes() error {
	for _, team := range [][TeamSize]AssignedPlayer{r.Team1, r.Team2} {
		var seen [TeamSize]bool
		for _, p := range team {
			rank := p.Lane.Rank()
			if rank < 0 || seen[rank] {
				return ErrLaneInvariant
			}
			seen[rank] = true
		}
	}
	return nil
}
