package coordinator

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/engine"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
)

// restore rebuilds live matches first so their players are not queued again,
// then reloads the queue with reservations and flags cleared.
func (c *Coordinator) restore(entries []match.QueueEntry, matches []*match.Record) int {
	var busy []match.Identifier
	for _, rec := range matches {
		if err := c.restoreMatch(rec); err != nil {
			c.log.Warn("match not restored", zap.String("match", rec.ID), zap.String("status", string(rec.Status)), zap.Error(err))
			continue
		}
		busy = append(busy, rec.Identifiers()...)
	}

	entries = slices.DeleteFunc(slices.Clone(entries), func(e match.QueueEntry) bool {
		return slices.Contains(busy, e.ID)
	})
	n := c.pool.Restore(entries)
	var ids []match.Identifier
	for _, e := range c.pool.Entries() {
		ids = append(ids, e.ID)
	}
	c.persist("queue.reset_flags", func(ctx context.Context) error { return c.store.ResetAcceptanceFlags(ctx, ids) })
	c.log.Info("queue restored", zap.Int("entries", n), zap.Int("skipped", len(entries)-n), zap.Int("matches", len(c.matches)))
	c.publishQueue()
	c.matchmake()
	return n
}

// restoreMatch replays the persisted draft and, for a match already in game,
// opens a fresh session on the recorded roster.
func (c *Coordinator) restoreMatch(rec *match.Record) error {
	if _, ok := c.matches[rec.ID]; ok {
		return nil
	}
	if err := rec.ValidateLanes(); err != nil {
		return err
	}
	am := &activeMatch{rec: rec}
	draft, err := c.replayDraft(rec)
	switch {
	case err == nil:
		am.draft = &draft
		rec.Draft = &match.DraftState{Actions: slices.Clone(draft.Actions)}
	case rec.Status == match.StatusInProgress:
		// the game can still be finished without its draft history
		c.log.Warn("draft history not replayable", zap.String("match", rec.ID), zap.Error(err))
	default:
		return err
	}

	c.matches[rec.ID] = am
	switch rec.Status {
	case match.StatusDraft:
		if draft.Completed() {
			c.completeDraft(am)
		} else {
			c.scheduleBot(am)
		}
	case match.StatusInProgress:
		am.game = session.Start(rec, c.now())
	}
	c.log.Info("match restored", zap.String("match", rec.ID), zap.String("status", string(rec.Status)))
	return nil
}

// replayDraft rebuilds draft state from the persisted actions. A draft that
// already finished keeps the record's status.
func (c *Coordinator) replayDraft(rec *match.Record) (engine.State, error) {
	var actions []match.DraftAction
	if rec.Draft != nil {
		actions = rec.Draft.Actions
	}
	replay := *rec
	replay.Status = match.StatusDraft
	st, err := engine.Reduce(&replay, c.champs, actions)
	if err != nil {
		return engine.State{}, err
	}
	st.Status = rec.Status
	return st, nil
}
