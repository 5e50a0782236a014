package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

func (c *Coordinator) join(e match.QueueEntry) (match.QueueEntry, error) {
	entry, err := c.pool.Join(e)
	if err != nil {
		return match.QueueEntry{}, err
	}
	c.persist("queue.add", func(ctx context.Context) error { return c.store.AddQueueEntry(ctx, entry) })
	c.log.Info("player queued", zap.String("player", string(entry.ID)), zap.Int("mmr", entry.MMR), zap.Stringer("kind", entry.Kind))
	c.publishQueue()
	c.matchmake()
	return entry, nil
}

func (c *Coordinator) leave(id match.Identifier) (match.QueueEntry, error) {
	e, err := c.pool.Leave(id)
	if err != nil {
		return match.QueueEntry{}, err
	}
	c.persist("queue.remove", func(ctx context.Context) error { return c.store.RemoveQueueEntry(ctx, id) })
	c.publishQueue()
	return e, nil
}

func (c *Coordinator) addBots(n int) []match.QueueEntry {
	var added []match.QueueEntry
	for i := 0; i < n; i++ {
		e, err := c.pool.Join(c.pool.NextBot(c.rng))
		if err != nil {
			c.log.Warn("bot rejected", zap.Error(err))
			continue
		}
		c.persist("queue.add", func(ctx context.Context) error { return c.store.AddQueueEntry(ctx, e) })
		added = append(added, e)
	}
	c.publishQueue()
	c.matchmake()
	return added
}

// clear drops every unreserved entry.
func (c *Coordinator) clear() int {
	var ids []match.Identifier
	for _, e := range c.pool.Entries() {
		if !e.Reserved() {
			ids = append(ids, e.ID)
		}
	}
	n := c.pool.Clear()
	for _, id := range ids {
		c.persist("queue.remove", func(ctx context.Context) error { return c.store.RemoveQueueEntry(ctx, id) })
	}
	c.publishQueue()
	return n
}

func (c *Coordinator) publishQueue() {
	c.publish(types.EventQueueUpdated, "", queueUpdate{
		Players:              c.pool.Len(),
		Available:            c.pool.Available(),
		EstimatedWaitSeconds: int(c.pool.EstimatedWait() / time.Second),
	})
}

// matchmake forms matches while enough unreserved players are waiting.
func (c *Coordinator) matchmake() {
	for c.pool.Available() >= match.RosterSize {
		res, err := c.pool.TryFormMatch()
		if err != nil {
			c.log.Warn("could not form match", zap.Error(err))
			return
		}
		c.initiate(res)
	}
}
