package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
)

// Memory is a Store kept in process memory.
type Memory struct {
	mu        sync.Mutex
	queue     map[match.Identifier]match.QueueEntry
	matches   map[string]match.Record
	actions   map[string][]match.DraftAction
	ratings   map[match.Identifier]int
	summaries map[string]session.Summary
}

func NewMemory() *Memory {
	return &Memory{
		queue:     make(map[match.Identifier]match.QueueEntry),
		matches:   make(map[string]match.Record),
		actions:   make(map[string][]match.DraftAction),
		ratings:   make(map[match.Identifier]int),
		summaries: make(map[string]session.Summary),
	}
}

func (m *Memory) ListQueueEntries(ctx context.Context) ([]match.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]match.QueueEntry, 0, len(m.queue))
	for _, e := range m.queue {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) AddQueueEntry(ctx context.Context, e match.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue[e.ID] = e
	return nil
}

func (m *Memory) RemoveQueueEntry(ctx context.Context, id match.Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queue, id)
	return nil
}

func (m *Memory) SetAcceptanceFlag(ctx context.Context, id match.Identifier, flag match.AcceptanceFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.queue[id]
	if !ok {
		return ErrNotFound
	}
	e.Acceptance = flag
	m.queue[id] = e
	return nil
}

func (m *Memory) ResetAcceptanceFlags(ctx context.Context, ids []match.Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if e, ok := m.queue[id]; ok {
			e.Acceptance = match.FlagNeutral
			m.queue[id] = e
		}
	}
	return nil
}

func (m *Memory) CreateMatch(ctx context.Context, rec *match.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[rec.ID]; ok {
		return ErrConflict
	}
	cp := *rec
	cp.Draft = nil
	m.matches[rec.ID] = cp
	return nil
}

func (m *Memory) GetMatch(ctx context.Context, id string) (*match.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	if actions := m.actions[id]; len(actions) > 0 {
		rec.Draft = &match.DraftState{Actions: slices.Clone(actions)}
	}
	return &rec, nil
}

func (m *Memory) ListMatchesByStatus(ctx context.Context, status match.Status) ([]*match.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*match.Record
	for id, rec := range m.matches {
		if rec.Status != status {
			continue
		}
		if actions := m.actions[id]; len(actions) > 0 {
			rec.Draft = &match.DraftState{Actions: slices.Clone(actions)}
		}
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateMatchStatus(ctx context.Context, id string, status match.Status, f Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	if f.Team1 != nil {
		rec.Team1 = *f.Team1
	}
	if f.Team2 != nil {
		rec.Team2 = *f.Team2
	}
	m.matches[id] = rec
	return nil
}

func (m *Memory) DeleteMatch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, id)
	delete(m.actions, id)
	return nil
}

func (m *Memory) AppendDraftAction(ctx context.Context, matchID string, a match.DraftAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.actions[matchID] {
		if existing.ActionIndex == a.ActionIndex {
			return ErrConflict
		}
	}
	actions := append(m.actions[matchID], a)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].ActionIndex < actions[j].ActionIndex })
	m.actions[matchID] = actions
	return nil
}

func (m *Memory) Rating(ctx context.Context, id match.Identifier) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok {
		return 0, ErrNotFound
	}
	return r, nil
}

func (m *Memory) AdjustRating(ctx context.Context, id match.Identifier, base, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[id]
	if !ok {
		r = base
	}
	r = floor0(r + delta)
	m.ratings[id] = r
	return r, nil
}

func (m *Memory) SaveGameSummary(ctx context.Context, sum session.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[sum.MatchID] = sum
	return nil
}

// Summary returns a saved game summary.
func (m *Memory) Summary(matchID string) (session.Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[matchID]
	return s, ok
}

func (m *Memory) Close() error { return nil }
