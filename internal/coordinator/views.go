package coordinator

import (
	"slices"
	"time"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/acceptance"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/balancer"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/engine"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/queue"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

type QueueStatus struct {
	Entries       []match.QueueEntry `json:"entries"`
	Available     int                `json:"available"`
	EstimatedWait time.Duration      `json:"estimatedWait"`
	ActiveMatches int                `json:"activeMatches"`
	Activity      []queue.Activity   `json:"activity"`
}

type AcceptanceView struct {
	acceptance.Progress
	Accepted []match.Identifier `json:"acceptedPlayers"`
	TimeLeft int                `json:"timeLeft"`
	Deadline time.Time          `json:"deadline"`
}

type MatchView struct {
	Match      match.Record         `json:"match"`
	Acceptance *AcceptanceView      `json:"acceptance,omitempty"`
	Draft      *types.DraftSnapshot `json:"draft,omitempty"`
	Game       *session.Summary     `json:"game,omitempty"`
}

type queueUpdate struct {
	Players              int `json:"players"`
	Available            int `json:"available"`
	EstimatedWaitSeconds int `json:"estimatedWaitSeconds"`
}

type matchFound struct {
	Match          match.Record `json:"match"`
	MMRDifference  float64      `json:"mmrDifference"`
	WellBalanced   bool         `json:"wellBalanced"`
	AutofillCount  [2]int       `json:"autofillCount"`
	TimeoutSeconds int          `json:"timeoutSeconds"`
	Deadline       time.Time    `json:"deadline"`
}

type matchCancelled struct {
	Match           match.Record       `json:"match"`
	DeclinedPlayers []match.Identifier `json:"declinedPlayers"`
	Reason          string             `json:"reason"`
}

type draftStarted struct {
	Match    match.Record        `json:"match"`
	Template []engine.TurnStep   `json:"template"`
	Draft    types.DraftSnapshot `json:"draft"`
}

type draftActionMade struct {
	Action match.DraftAction   `json:"action"`
	Draft  types.DraftSnapshot `json:"draft"`
}

type draftCancelled struct {
	Reason   string             `json:"reason"`
	Requeued []match.Identifier `json:"requeued"`
}

// snapshot copies rec so it can leave the loop.
func snapshot(rec *match.Record) match.Record {
	cp := *rec
	if rec.Draft != nil {
		cp.Draft = &match.DraftState{Actions: slices.Clone(rec.Draft.Actions)}
	}
	return cp
}

func draftSnapshot(s engine.State) types.DraftSnapshot {
	snap := types.DraftSnapshot{
		Phase:        string(s.Phase),
		CurrentIndex: s.Cursor,
		Total:        len(engine.ProTemplate),
		Picks:        map[string][]int{"blue": slices.Clone(s.Picks[match.Blue]), "red": slices.Clone(s.Picks[match.Red])},
		Bans:         map[string][]int{"blue": slices.Clone(s.Bans[match.Blue]), "red": slices.Clone(s.Bans[match.Red])},
	}
	if step, actor, ok := s.Next(); ok {
		snap.Next = &types.TurnSnapshot{
			Side:   string(step.Side),
			Action: string(step.Action),
			Slot:   step.Slot,
			Actor:  string(actor.ID),
			IsBot:  actor.Kind == match.Bot,
		}
	}
	return snap
}

func foundPayload(rec *match.Record, res balancer.Result, timeout time.Duration, deadline time.Time) matchFound {
	return matchFound{
		Match:          snapshot(rec),
		MMRDifference:  res.MMRDifference(),
		WellBalanced:   res.WellBalanced(),
		AutofillCount:  res.AutofillCount,
		TimeoutSeconds: int(timeout / time.Second),
		Deadline:       deadline,
	}
}

func (c *Coordinator) queueStatus() QueueStatus {
	return QueueStatus{
		Entries:       c.pool.Entries(),
		Available:     c.pool.Available(),
		EstimatedWait: c.pool.EstimatedWait(),
		ActiveMatches: len(c.matches),
		Activity:      c.pool.Activity(),
	}
}

func (c *Coordinator) matchView(id string) (MatchView, error) {
	am, ok := c.matches[id]
	if !ok {
		return MatchView{}, ErrMatchNotFound
	}
	v := MatchView{Match: snapshot(am.rec)}
	if am.acc != nil {
		st := am.acc.state
		v.Acceptance = &AcceptanceView{
			Progress: st.Progress(),
			Accepted: st.Accepted(),
			TimeLeft: int(st.Remaining(c.now()).Seconds()),
			Deadline: st.Deadline,
		}
	}
	if am.draft != nil {
		d := draftSnapshot(*am.draft)
		v.Draft = &d
	}
	if am.game != nil {
		g := am.game.Summary()
		v.Game = &g
	}
	return v, nil
}
