package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
)

// JoinRequest is a queue join as received from a client. A nil MMR means the
// stored rating is used, falling back to Config.DefaultRating.
type JoinRequest struct {
	Identifier string `json:"identifier"`
	MMR        *int   `json:"mmr,omitempty"`
	Primary    string `json:"primaryLane"`
	Secondary  string `json:"secondaryLane"`
}

func (c *Coordinator) JoinQueue(ctx context.Context, req JoinRequest) (match.QueueEntry, error) {
	id, err := match.ParseIdentifier(req.Identifier)
	if err != nil {
		return match.QueueEntry{}, err
	}
	primary, err := match.ParseLane(req.Primary)
	if err != nil {
		return match.QueueEntry{}, err
	}
	secondary, err := match.ParseLane(req.Secondary)
	if err != nil {
		return match.QueueEntry{}, err
	}
	var mmr int
	if req.MMR != nil {
		mmr = *req.MMR
	} else {
		mmr, err = c.store.Rating(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			mmr = c.cfg.DefaultRating
		case err != nil:
			return match.QueueEntry{}, fmt.Errorf("look up rating: %w", err)
		}
	}
	entry := match.QueueEntry{ID: id, MMR: mmr, Primary: primary, Secondary: secondary, Kind: match.Human}
	return call(ctx, c, func(r chan result[match.QueueEntry]) Msg { return joinQueue{Entry: entry, Reply: r} })
}

func (c *Coordinator) LeaveQueue(ctx context.Context, identifier string) (match.QueueEntry, error) {
	id, err := match.ParseIdentifier(identifier)
	if err != nil {
		return match.QueueEntry{}, err
	}
	return call(ctx, c, func(r chan result[match.QueueEntry]) Msg { return leaveQueue{ID: id, Reply: r} })
}

func (c *Coordinator) AddBots(ctx context.Context, n int) ([]match.QueueEntry, error) {
	if n <= 0 {
		n = 1
	}
	return call(ctx, c, func(r chan result[[]match.QueueEntry]) Msg { return addBots{N: n, Reply: r} })
}

// ClearQueue removes every unreserved entry and returns how many went.
func (c *Coordinator) ClearQueue(ctx context.Context) (int, error) {
	return call(ctx, c, func(r chan result[int]) Msg { return clearQueue{Reply: r} })
}

func (c *Coordinator) QueueStatus(ctx context.Context) (QueueStatus, error) {
	return call(ctx, c, func(r chan result[QueueStatus]) Msg { return getQueue{Reply: r} })
}

// Restore reloads the persisted queue along with every match that was drafting
// or in game. It returns the number of queue entries restored and is meant to
// run once at startup.
func (c *Coordinator) Restore(ctx context.Context) (int, error) {
	entries, err := c.store.ListQueueEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("load queue: %w", err)
	}
	var live []*match.Record
	for _, status := range []match.Status{match.StatusDraft, match.StatusInProgress} {
		recs, err := c.store.ListMatchesByStatus(ctx, status)
		if err != nil {
			return 0, fmt.Errorf("load %s matches: %w", status, err)
		}
		live = append(live, recs...)
	}
	return call(ctx, c, func(r chan result[int]) Msg {
		return restoreState{Entries: entries, Matches: live, Reply: r}
	})
}

func (c *Coordinator) Accept(ctx context.Context, matchID, identifier string) error {
	id, err := match.ParseIdentifier(identifier)
	if err != nil {
		return err
	}
	_, err = call(ctx, c, func(r chan result[struct{}]) Msg { return acceptMatch{MatchID: matchID, ID: id, Reply: r} })
	return err
}

func (c *Coordinator) Decline(ctx context.Context, matchID, identifier string) error {
	id, err := match.ParseIdentifier(identifier)
	if err != nil {
		return err
	}
	_, err = call(ctx, c, func(r chan result[struct{}]) Msg { return declineMatch{MatchID: matchID, ID: id, Reply: r} })
	return err
}

func (c *Coordinator) SubmitAction(ctx context.Context, matchID, identifier, action string, championID int) (match.DraftAction, error) {
	id, err := match.ParseIdentifier(identifier)
	if err != nil {
		return match.DraftAction{}, err
	}
	typ, err := match.ParseActionType(action)
	if err != nil {
		return match.DraftAction{}, err
	}
	return call(ctx, c, func(r chan result[match.DraftAction]) Msg {
		return submitAction{MatchID: matchID, Actor: id, ChampionID: championID, Type: typ, Reply: r}
	})
}

func (c *Coordinator) AbortDraft(ctx context.Context, matchID, reason string) error {
	if reason == "" {
		reason = "aborted"
	}
	_, err := call(ctx, c, func(r chan result[struct{}]) Msg { return abortDraft{MatchID: matchID, Reason: reason, Reply: r} })
	return err
}

func (c *Coordinator) RecordEvent(ctx context.Context, matchID string, typ session.EventType, payload map[string]any) (session.Event, error) {
	return call(ctx, c, func(r chan result[session.Event]) Msg {
		return recordEvent{MatchID: matchID, Type: typ, Payload: payload, Reply: r}
	})
}

func (c *Coordinator) FinishGame(ctx context.Context, matchID string, res session.Result) (session.Summary, error) {
	return call(ctx, c, func(r chan result[session.Summary]) Msg { return finishGame{MatchID: matchID, Result: res, Reply: r} })
}

func (c *Coordinator) CancelGame(ctx context.Context, matchID, reason string) (session.Summary, error) {
	return call(ctx, c, func(r chan result[session.Summary]) Msg { return cancelGame{MatchID: matchID, Reason: reason, Reply: r} })
}

// Match returns the live view of a match, or the stored record once the match
// has left the loop.
func (c *Coordinator) Match(ctx context.Context, matchID string) (MatchView, error) {
	v, err := call(ctx, c, func(r chan result[MatchView]) Msg { return getMatch{MatchID: matchID, Reply: r} })
	if !errors.Is(err, ErrMatchNotFound) {
		return v, err
	}
	rec, err := c.store.GetMatch(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return MatchView{}, ErrMatchNotFound
	}
	if err != nil {
		return MatchView{}, fmt.Errorf("load match: %w", err)
	}
	return MatchView{Match: *rec}, nil
}

// Reconcile asks the loop to sync acceptance flags now instead of waiting for
// the next tick.
func (c *Coordinator) Reconcile() { c.post(reconcileTick{}) }
