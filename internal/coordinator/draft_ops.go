package coordinator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/engine"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

var errNoLegalChampion = errors.New("no legal champion left for bot")

func (c *Coordinator) startDraft(am *activeMatch) {
	if !c.advance(am, match.StatusDraft) {
		return
	}
	rec := am.rec
	rec.Draft = &match.DraftState{}
	st := engine.NewState(rec, c.champs)
	am.draft = &st

	for _, id := range c.pool.Remove(rec.Identifiers()...) {
		c.persist("queue.remove", func(ctx context.Context) error { return c.store.RemoveQueueEntry(ctx, id) })
	}
	c.persist("match.status", func(ctx context.Context) error {
		return c.store.UpdateMatchStatus(ctx, rec.ID, match.StatusDraft, store.Fields{})
	})

	c.log.Info("draft started", zap.String("match", rec.ID))
	c.publish(types.EventDraftStarted, rec.ID, draftStarted{
		Match:    snapshot(rec),
		Template: engine.ProTemplate,
		Draft:    draftSnapshot(st),
	})
	c.publishQueue()
	c.scheduleBot(am)
}

// sweepDedup forgets submissions older than the dedup window.
func (c *Coordinator) sweepDedup() {
	now := c.now()
	for k, at := range c.dedup {
		if now.Sub(at) >= c.cfg.DedupTTL {
			delete(c.dedup, k)
		}
	}
}

// dropDedup forgets every submission recorded for matchID.
func (c *Coordinator) dropDedup(matchID string) {
	for k := range c.dedup {
		if k.matchID == matchID {
			delete(c.dedup, k)
		}
	}
}

func (c *Coordinator) submit(matchID string, actor match.Identifier, champ int, typ match.ActionType) (match.DraftAction, error) {
	am, ok := c.matches[matchID]
	if !ok {
		return match.DraftAction{}, ErrMatchNotFound
	}
	if am.draft == nil {
		return match.DraftAction{}, engine.ErrNotDrafting
	}

	c.sweepDedup()
	key := dedupKey{matchID: matchID, actor: actor, champion: champ, action: typ}
	if _, seen := c.dedup[key]; seen {
		return match.DraftAction{}, ErrDuplicateSubmission
	}
	c.dedup[key] = c.now()

	events, next, err := engine.Apply(*am.draft, engine.Command{
		Type:       engine.CommandFor(typ),
		Actor:      actor,
		ChampionID: champ,
		At:         c.now(),
	})
	if err != nil {
		delete(c.dedup, key)
		return match.DraftAction{}, err
	}
	am.draft = &next
	action := next.Actions[len(next.Actions)-1]
	am.rec.Draft.Actions = append(am.rec.Draft.Actions, action)

	c.persist("draft.append", func(ctx context.Context) error { return c.store.AppendDraftAction(ctx, matchID, action) })
	for _, evt := range events {
		if evt.Type == engine.EvtChampionPicked || evt.Type == engine.EvtChampionBanned {
			c.log.Debug("draft action",
				zap.String("match", matchID),
				zap.String("event", string(evt.Type)),
				zap.Int("index", evt.ActionIndex),
				zap.String("side", string(evt.Side)),
				zap.String("actor", string(evt.Actor)),
				zap.Int("champion", evt.ChampionID))
		}
	}
	c.publish(types.EventDraftAction, matchID, draftActionMade{Action: action, Draft: draftSnapshot(next)})

	if engine.ContainsEvent(events, engine.EvtDraftCompleted) {
		c.completeDraft(am)
	} else {
		c.scheduleBot(am)
	}
	return action, nil
}

// scheduleBot arms the bot timer when the next turn belongs to a bot.
func (c *Coordinator) scheduleBot(am *activeMatch) {
	stopTimer(am.botTimer)
	am.botTimer = nil
	_, actor, ok := am.draft.Next()
	if !ok || actor.Kind != match.Bot {
		return
	}
	am.botGen = c.nextGen()
	delay := c.jitter(c.cfg.BotThinkMin, c.cfg.BotThinkMax)
	am.botTimer = c.after(delay, botTurn{MatchID: am.rec.ID, Gen: am.botGen})
}

func (c *Coordinator) onBotTurn(m botTurn) {
	am, ok := c.matches[m.MatchID]
	if !ok || am.draft == nil || am.botGen != m.Gen {
		return
	}
	am.botTimer = nil
	step, actor, ok := am.draft.Next()
	if !ok || actor.Kind != match.Bot {
		return
	}
	champ, ok := engine.ChooseRandomLegal(*am.draft, c.rng)
	if !ok {
		c.log.Error("bot cannot act", zap.String("match", m.MatchID), zap.Error(errNoLegalChampion))
		if err := c.abort(m.MatchID, errNoLegalChampion.Error()); err != nil {
			c.log.Warn("abort failed", zap.String("match", m.MatchID), zap.Error(err))
		}
		return
	}
	if _, err := c.submit(m.MatchID, actor.ID, champ, step.Action); err != nil {
		c.log.Warn("bot action rejected", zap.String("match", m.MatchID), zap.String("bot", string(actor.ID)), zap.Error(err))
		c.scheduleBot(am)
	}
}

// completeDraft resolves locked picks onto the roster and opens the game.
func (c *Coordinator) completeDraft(am *activeMatch) {
	stopTimer(am.botTimer)
	am.botTimer = nil
	if !c.advance(am, match.StatusInProgress) {
		return
	}
	rec := am.rec
	for _, a := range am.draft.LockedPicks() {
		if slot := am.draft.SlotOf(a.Side, a.Actor); slot >= 0 {
			rec.SetChampion(a.Side, slot, a.ChampionID)
		}
	}
	am.draft.Status = match.StatusInProgress
	am.game = session.Start(rec, c.now())
	c.dropDedup(rec.ID)

	team1, team2 := rec.Team1, rec.Team2
	c.persist("match.status", func(ctx context.Context) error {
		return c.store.UpdateMatchStatus(ctx, rec.ID, match.StatusInProgress, store.Fields{Team1: &team1, Team2: &team2})
	})

	c.log.Info("draft completed", zap.String("match", rec.ID))
	c.publish(types.EventDraftCompleted, rec.ID, snapshot(rec))
	c.publish(types.EventGameStarted, rec.ID, am.game.Summary())
}

// abort cancels a draft and puts the whole roster back in the queue on fill.
func (c *Coordinator) abort(matchID, reason string) error {
	am, ok := c.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	if am.rec.Status != match.StatusDraft {
		return engine.ErrNotDrafting
	}
	if err := am.rec.Advance(match.StatusCancelled); err != nil {
		return err
	}
	stopTimer(am.botTimer)
	am.botTimer = nil
	delete(c.matches, matchID)
	c.dropDedup(matchID)
	c.persist("match.delete", func(ctx context.Context) error { return c.store.DeleteMatch(ctx, matchID) })

	var requeued []match.Identifier
	for _, p := range am.rec.Roster() {
		e, err := c.pool.Join(match.QueueEntry{
			ID:        p.ID,
			MMR:       p.MMR,
			Primary:   match.LaneFill,
			Secondary: match.LaneFill,
			Kind:      p.Kind,
		})
		if err != nil {
			c.log.Warn("requeue failed", zap.String("player", string(p.ID)), zap.Error(err))
			continue
		}
		c.persist("queue.add", func(ctx context.Context) error { return c.store.AddQueueEntry(ctx, e) })
		requeued = append(requeued, e.ID)
	}

	c.log.Info("draft aborted", zap.String("match", matchID), zap.String("reason", reason))
	c.publish(types.EventDraftCancelled, matchID, draftCancelled{Reason: reason, Requeued: requeued})
	c.teardown(matchID)
	c.publishQueue()
	c.matchmake()
	return nil
}

func (c *Coordinator) teardown(matchID string) {
	c.side.submit("community.teardown", func(ctx context.Context) error {
		return c.community.TeardownMatchChannels(ctx, matchID)
	})
}
