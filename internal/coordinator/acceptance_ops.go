package coordinator

import (
	"context"
	"math"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/acceptance"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/balancer"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

// initiate reserves the roster, arms the deadline, countdown and bot timers
// and announces the match.
func (c *Coordinator) initiate(res balancer.Result) {
	now := c.now()
	rec := &match.Record{
		ID:         uuid.NewString(),
		Status:     match.StatusPending,
		Team1:      res.Team1,
		Team2:      res.Team2,
		AverageMMR: res.AverageMMR,
		CreatedAt:  now,
	}
	ids := res.Identifiers()
	c.pool.Reserve(ids, rec.ID)

	deadline := now.Add(c.cfg.AcceptTimeout)
	pa := &pendingAcceptance{
		state: acceptance.New(rec.ID, rec.Roster(), deadline),
		gen:   c.nextGen(),
	}
	pa.deadline = c.after(c.cfg.AcceptTimeout, acceptDeadline{MatchID: rec.ID, Gen: pa.gen})
	pa.ticker = c.after(c.cfg.CountdownInterval, countdownTick{MatchID: rec.ID, Gen: pa.gen})
	for _, bot := range pa.state.Bots() {
		delay := c.jitter(c.cfg.BotAcceptMin, c.cfg.BotAcceptMax)
		pa.bots = append(pa.bots, c.after(delay, botAccept{MatchID: rec.ID, ID: bot, Gen: pa.gen}))
	}
	c.matches[rec.ID] = &activeMatch{rec: rec, acc: pa}

	persisted := snapshot(rec)
	c.persist("match.create", func(ctx context.Context) error { return c.store.CreateMatch(ctx, &persisted) })
	c.persist("queue.reset_flags", func(ctx context.Context) error { return c.store.ResetAcceptanceFlags(ctx, ids) })

	c.log.Info("match found",
		zap.String("match", rec.ID),
		zap.Float64("mmr_difference", res.MMRDifference()),
		zap.Int("bots", len(pa.state.Bots())))
	c.publish(types.EventMatchFound, rec.ID, foundPayload(rec, res, c.cfg.AcceptTimeout, deadline))
	c.publishQueue()
}

// pending returns the match if it still waits on acceptance.
func (c *Coordinator) pending(matchID string, id match.Identifier) (*activeMatch, error) {
	am, ok := c.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if _, in := am.rec.Player(id); !in {
		return nil, acceptance.ErrNotInRoster
	}
	if am.acc == nil || am.acc.state.Resolved() {
		return nil, acceptance.ErrAlreadyResolved
	}
	return am, nil
}

func (c *Coordinator) accept(matchID string, id match.Identifier) error {
	am, err := c.pending(matchID, id)
	if err != nil {
		return err
	}
	added, complete, err := am.acc.state.Accept(id)
	if err != nil {
		return err
	}
	if added {
		c.pool.SetFlag(id, match.FlagAccepted)
		c.persist("queue.set_flag", func(ctx context.Context) error {
			return c.store.SetAcceptanceFlag(ctx, id, match.FlagAccepted)
		})
		c.publish(types.EventAcceptanceProgress, matchID, am.acc.state.Progress())
	}
	if complete && am.acc.state.TryResolve() {
		c.onAllAccepted(am)
	}
	return nil
}

func (c *Coordinator) decline(matchID string, id match.Identifier) error {
	am, err := c.pending(matchID, id)
	if err != nil {
		return err
	}
	if err := am.acc.state.Decline(id); err != nil {
		return err
	}
	if am.acc.state.TryResolve() {
		c.cancelPending(am, am.acc.state.Declined(), "declined")
	}
	return nil
}

func (c *Coordinator) onDeadline(m acceptDeadline) {
	am, ok := c.matches[m.MatchID]
	if !ok || am.acc == nil || am.acc.gen != m.Gen {
		return
	}
	if am.acc.state.TryResolve() {
		c.cancelPending(am, am.acc.state.Pending(), "timeout")
	}
}

func (c *Coordinator) onCountdown(m countdownTick) {
	am, ok := c.matches[m.MatchID]
	if !ok || am.acc == nil || am.acc.gen != m.Gen {
		return
	}
	left := am.acc.state.Remaining(c.now())
	secs := int(math.Ceil(left.Seconds()))
	c.publish(types.EventTimerUpdate, m.MatchID, types.TimerSnapshot{TimeLeft: secs, IsUrgent: secs <= 10})
	if left > 0 {
		am.acc.ticker = c.after(c.cfg.CountdownInterval, m)
	}
}

func (c *Coordinator) onBotAccept(m botAccept) {
	am, ok := c.matches[m.MatchID]
	if !ok || am.acc == nil || am.acc.gen != m.Gen {
		return
	}
	if err := c.accept(m.MatchID, m.ID); err != nil {
		c.log.Warn("bot accept failed", zap.String("match", m.MatchID), zap.String("bot", string(m.ID)), zap.Error(err))
	}
}

// cancelPending removes decliners from the queue and puts everyone else back
// up for matchmaking.
func (c *Coordinator) cancelPending(am *activeMatch, decliners []match.Identifier, reason string) {
	if !c.advance(am, match.StatusCancelled) {
		return
	}
	am.acc.stop()
	am.acc = nil
	id := am.rec.ID

	for _, p := range c.pool.Remove(decliners...) {
		c.persist("queue.remove", func(ctx context.Context) error { return c.store.RemoveQueueEntry(ctx, p) })
	}
	var others []match.Identifier
	for _, p := range am.rec.Identifiers() {
		if !slices.Contains(decliners, p) {
			others = append(others, p)
		}
	}
	c.pool.Release(others)
	c.persist("queue.reset_flags", func(ctx context.Context) error { return c.store.ResetAcceptanceFlags(ctx, others) })

	delete(c.matches, id)
	c.persist("match.delete", func(ctx context.Context) error { return c.store.DeleteMatch(ctx, id) })

	c.log.Info("match cancelled", zap.String("match", id), zap.String("reason", reason), zap.Int("decliners", len(decliners)))
	c.publish(types.EventMatchCancelled, id, matchCancelled{
		Match:           snapshot(am.rec),
		DeclinedPlayers: decliners,
		Reason:          reason,
	})
	c.publishQueue()
	c.matchmake()
}

func (c *Coordinator) onAllAccepted(am *activeMatch) {
	if !c.advance(am, match.StatusAccepted) {
		return
	}
	am.acc.stop()
	am.acc = nil
	id := am.rec.ID

	c.persist("match.status", func(ctx context.Context) error {
		return c.store.UpdateMatchStatus(ctx, id, match.StatusAccepted, store.Fields{})
	})
	c.log.Info("match accepted", zap.String("match", id))
	c.publish(types.EventMatchAccepted, id, snapshot(am.rec))

	rec := snapshot(am.rec)
	c.side.submit("community.create", func(ctx context.Context) error {
		return c.community.CreateMatchChannels(ctx, id, &rec)
	})
	c.startDraft(am)
}
