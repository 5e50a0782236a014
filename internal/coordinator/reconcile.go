package coordinator

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

// onReconcileTick reads persisted acceptance flags for every pending match.
// The read goes through the store worker so it observes every write the loop
// has already issued.
func (c *Coordinator) onReconcileTick() {
	var ids []string
	for id, am := range c.matches {
		if am.acc != nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	c.writes.submit("reconcile.read", func(ctx context.Context) error {
		entries, err := c.store.ListQueueEntries(ctx)
		if err != nil {
			return err
		}
		flags := make(map[match.Identifier]match.AcceptanceFlag, len(entries))
		for _, e := range entries {
			if e.Acceptance != match.FlagNeutral {
				flags[e.ID] = e.Acceptance
			}
		}
		c.post(reconcileResult{MatchIDs: ids, Flags: flags})
		return nil
	})
}

// onReconcileResult routes externally written flags through the normal
// accept and decline paths.
func (c *Coordinator) onReconcileResult(m reconcileResult) {
	for _, id := range m.MatchIDs {
		am, ok := c.matches[id]
		if !ok || am.acc == nil {
			continue
		}
		for _, p := range am.acc.state.Roster {
			if am.acc == nil {
				break
			}
			var err error
			switch m.Flags[p] {
			case match.FlagDeclined:
				err = c.decline(id, p)
			case match.FlagAccepted:
				if !am.acc.state.HasAccepted(p) {
					err = c.accept(id, p)
				}
			}
			if err != nil {
				c.log.Warn("reconcile", zap.String("match", id), zap.String("player", string(p)), zap.Error(err))
			}
		}
	}
}
