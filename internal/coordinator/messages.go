package coordinator

import (
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
)

type Msg interface{ isCoordinatorMsg() }

type result[T any] struct {
	val T
	err error
}

type joinQueue struct {
	Entry match.QueueEntry
	Reply chan result[match.QueueEntry]
}

type leaveQueue struct {
	ID    match.Identifier
	Reply chan result[match.QueueEntry]
}

type addBots struct {
	N     int
	Reply chan result[[]match.QueueEntry]
}

type clearQueue struct {
	Reply chan result[int]
}

type restoreState struct {
	Entries []match.QueueEntry
	Matches []*match.Record
	Reply   chan result[int]
}

type getQueue struct {
	Reply chan result[QueueStatus]
}

type acceptMatch struct {
	MatchID string
	ID      match.Identifier
	Reply   chan result[struct{}]
}

type declineMatch struct {
	MatchID string
	ID      match.Identifier
	Reply   chan result[struct{}]
}

type submitAction struct {
	MatchID    string
	Actor      match.Identifier
	ChampionID int
	Type       match.ActionType
	Reply      chan result[match.DraftAction]
}

type abortDraft struct {
	MatchID string
	Reason  string
	Reply   chan result[struct{}]
}

type recordEvent struct {
	MatchID string
	Type    session.EventType
	Payload map[string]any
	Reply   chan result[session.Event]
}

type finishGame struct {
	MatchID string
	Result  session.Result
	Reply   chan result[session.Summary]
}

type cancelGame struct {
	MatchID string
	Reason  string
	Reply   chan result[session.Summary]
}

type getMatch struct {
	MatchID string
	Reply   chan result[MatchView]
}

// Timer and scheduler messages. Each carries the generation it was armed
// with; a fire whose generation no longer matches is dropped.
type acceptDeadline struct {
	MatchID string
	Gen     uint64
}

type countdownTick struct {
	MatchID string
	Gen     uint64
}

type botAccept struct {
	MatchID string
	ID      match.Identifier
	Gen     uint64
}

type botTurn struct {
	MatchID string
	Gen     uint64
}

type reconcileTick struct{}

type reconcileResult struct {
	MatchIDs []string
	Flags    map[match.Identifier]match.AcceptanceFlag
}

type matchmakeTick struct{}

func (joinQueue) isCoordinatorMsg()       {}
func (leaveQueue) isCoordinatorMsg()      {}
func (addBots) isCoordinatorMsg()         {}
func (clearQueue) isCoordinatorMsg()      {}
func (restoreState) isCoordinatorMsg()    {}
func (getQueue) isCoordinatorMsg()        {}
func (acceptMatch) isCoordinatorMsg()     {}
func (declineMatch) isCoordinatorMsg()    {}
func (submitAction) isCoordinatorMsg()    {}
func (abortDraft) isCoordinatorMsg()      {}
func (recordEvent) isCoordinatorMsg()     {}
func (finishGame) isCoordinatorMsg()      {}
func (cancelGame) isCoordinatorMsg()      {}
func (getMatch) isCoordinatorMsg()        {}
func (acceptDeadline) isCoordinatorMsg()  {}
func (countdownTick) isCoordinatorMsg()   {}
func (botAccept) isCoordinatorMsg()       {}
func (botTurn) isCoordinatorMsg()         {}
func (reconcileTick) isCoordinatorMsg()   {}
func (reconcileResult) isCoordinatorMsg() {}
func (matchmakeTick) isCoordinatorMsg()   {}
