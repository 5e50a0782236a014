package coordinator

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

type gameEvent struct {
	Event session.Event `json:"event"`
}

func (c *Coordinator) game(matchID string) (*activeMatch, error) {
	am, ok := c.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if am.game == nil {
		return nil, ErrNotInProgress
	}
	return am, nil
}

func (c *Coordinator) recordEvent(matchID string, typ session.EventType, payload map[string]any) (session.Event, error) {
	am, err := c.game(matchID)
	if err != nil {
		return session.Event{}, err
	}
	evt, err := am.game.Record(typ, payload, c.now())
	if err != nil {
		return session.Event{}, err
	}
	c.publish(types.EventGameEvent, matchID, gameEvent{Event: evt})
	return evt, nil
}

func (c *Coordinator) finish(matchID string, res session.Result) (session.Summary, error) {
	am, err := c.game(matchID)
	if err != nil {
		return session.Summary{}, err
	}
	if !am.rec.Status.CanTransition(match.StatusCompleted) {
		return session.Summary{}, match.ErrInvalidTransition
	}
	sum, err := am.game.Finish(res, c.now())
	if err != nil {
		return session.Summary{}, err
	}
	if err := am.rec.Advance(match.StatusCompleted); err != nil {
		return session.Summary{}, err
	}
	delete(c.matches, matchID)

	winner := sum.Result.WinnerTeam
	fields := store.Fields{WinnerTeam: &winner, Duration: sum.Result.Duration}
	c.persist("match.status", func(ctx context.Context) error {
		return c.store.UpdateMatchStatus(ctx, matchID, match.StatusCompleted, fields)
	})
	c.persist("game.summary", func(ctx context.Context) error { return c.store.SaveGameSummary(ctx, sum) })
	for id, ch := range sum.RatingChanges {
		delta := session.LossDelta
		if ch.After > ch.Before {
			delta = session.WinDelta
		}
		c.persist("rating.adjust", func(ctx context.Context) error {
			_, err := c.store.AdjustRating(ctx, id, ch.Before, delta)
			return err
		})
	}

	c.log.Info("game finished",
		zap.String("match", matchID),
		zap.Int("winner", winner),
		zap.Duration("duration", sum.Result.Duration),
		zap.String("reason", string(sum.Result.EndReason)))
	c.publish(types.EventGameFinished, matchID, sum)
	c.teardown(matchID)
	return sum, nil
}

func (c *Coordinator) cancelGame(matchID, reason string) (session.Summary, error) {
	am, err := c.game(matchID)
	if err != nil {
		return session.Summary{}, err
	}
	if reason == "" {
		reason = "cancelled"
	}
	if !am.rec.Status.CanTransition(match.StatusCancelled) {
		return session.Summary{}, match.ErrInvalidTransition
	}
	sum, err := am.game.Cancel(reason, c.now())
	if err != nil {
		return session.Summary{}, err
	}
	if err := am.rec.Advance(match.StatusCancelled); err != nil {
		return session.Summary{}, err
	}
	delete(c.matches, matchID)

	c.persist("match.status", func(ctx context.Context) error {
		return c.store.UpdateMatchStatus(ctx, matchID, match.StatusCancelled, store.Fields{Reason: reason})
	})
	c.persist("game.summary", func(ctx context.Context) error { return c.store.SaveGameSummary(ctx, sum) })

	c.log.Info("game cancelled", zap.String("match", matchID), zap.String("reason", reason))
	c.publish(types.EventGameCancelled, matchID, sum)
	c.teardown(matchID)
	return sum, nil
}
