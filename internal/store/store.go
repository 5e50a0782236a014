// Package store persists queue entries, matches, draft actions, ratings and
// game summaries.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflicting write")
)

// Fields carries the optional columns written alongside a status change.
type Fields struct {
	Team1      *[match.TeamSize]match.AssignedPlayer
	Team2      *[match.TeamSize]match.AssignedPlayer
	WinnerTeam *int
	Duration   time.Duration
	Reason     string
}

// Store defines the interface for data persistence.
type Store interface {
	// Queue operations
	ListQueueEntries(ctx context.Context) ([]match.QueueEntry, error)
	AddQueueEntry(ctx context.Context, e match.QueueEntry) error
	RemoveQueueEntry(ctx context.Context, id match.Identifier) error
	SetAcceptanceFlag(ctx context.Context, id match.Identifier, flag match.AcceptanceFlag) error
	ResetAcceptanceFlags(ctx context.Context, ids []match.Identifier) error

	// Match operations
	CreateMatch(ctx context.Context, rec *match.Record) error
	GetMatch(ctx context.Context, id string) (*match.Record, error)
	ListMatchesByStatus(ctx context.Context, status match.Status) ([]*match.Record, error)
	UpdateMatchStatus(ctx context.Context, id string, status match.Status, f Fields) error
	DeleteMatch(ctx context.Context, id string) error
	AppendDraftAction(ctx context.Context, matchID string, a match.DraftAction) error

	// Ratings and results
	Rating(ctx context.Context, id match.Identifier) (int, error)
	AdjustRating(ctx context.Context, id match.Identifier, base, delta int) (int, error)
	SaveGameSummary(ctx context.Context, sum session.Summary) error

	Close() error
}

func floor0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
