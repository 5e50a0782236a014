// Package queue keeps the candidate pool. A Pool is not safe for concurrent
// use; the coordinator loop owns it.
package queue

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/balancer"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

var (
	ErrInvalidMMR       = errors.New("mmr must not be negative")
	ErrAlreadyQueued    = errors.New("player already queued")
	ErrNotQueued        = errors.New("player not in queue")
	ErrReserved         = errors.New("player is reserved by a pending match")
	ErrNotEnoughPlayers = errors.New("not enough unreserved players to form a match")
)

type Pool struct {
	entries  map[match.Identifier]*match.QueueEntry
	activity []Activity
	bots     int
	now      func() time.Time
}

func NewPool(now func() time.Time) *Pool {
	if now == nil {
		now = time.Now
	}
	return &Pool{
		entries: make(map[match.Identifier]*match.QueueEntry),
		now:     now,
	}
}

// Join validates e and adds it. Empty lanes default to fill and a zero JoinedAt
// is stamped with the current time.
func (p *Pool) Join(e match.QueueEntry) (match.QueueEntry, error) {
	id, err := match.ParseIdentifier(string(e.ID))
	if err != nil {
		return match.QueueEntry{}, err
	}
	if e.MMR < 0 {
		return match.QueueEntry{}, ErrInvalidMMR
	}
	primary, err := match.ParseLane(string(e.Primary))
	if err != nil {
		return match.QueueEntry{}, err
	}
	secondary, err := match.ParseLane(string(e.Secondary))
	if err != nil {
		return match.QueueEntry{}, err
	}
	if _, ok := p.entries[id]; ok {
		return match.QueueEntry{}, ErrAlreadyQueued
	}
	e.ID, e.Primary, e.Secondary = id, primary, secondary
	if e.JoinedAt.IsZero() {
		e.JoinedAt = p.now()
	}
	e.MatchID = ""
	e.Acceptance = match.FlagNeutral
	p.entries[id] = &e
	p.record(ActivityPlayerJoined, id, string(id)+" joined the queue")
	return e, nil
}

// Restore loads persisted entries, skipping invalid and duplicate ones.
// Reservations and flags are reset because matches do not survive a restart.
func (p *Pool) Restore(entries []match.QueueEntry) int {
	n := 0
	for _, e := range entries {
		if _, err := p.Join(e); err == nil {
			n++
		}
	}
	return n
}

func (p *Pool) Leave(id match.Identifier) (match.QueueEntry, error) {
	e, ok := p.entries[id]
	if !ok {
		return match.QueueEntry{}, ErrNotQueued
	}
	if e.Reserved() {
		return match.QueueEntry{}, ErrReserved
	}
	delete(p.entries, id)
	p.record(ActivityPlayerLeft, id, string(id)+" left the queue")
	return *e, nil
}

func (p *Pool) Len() int { return len(p.entries) }

// Available counts entries not held by a pending match.
func (p *Pool) Available() int {
	n := 0
	for _, e := range p.entries {
		if !e.Reserved() {
			n++
		}
	}
	return n
}

// Entries returns every entry ordered by join time, then identifier.
func (p *Pool) Entries() []match.QueueEntry {
	out := make([]match.QueueEntry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, *e)
	}
	sortByResidence(out)
	return out
}

// Candidates returns the n longest-resident unreserved entries.
func (p *Pool) Candidates(n int) []match.QueueEntry {
	out := make([]match.QueueEntry, 0, len(p.entries))
	for _, e := range p.entries {
		if !e.Reserved() {
			out = append(out, *e)
		}
	}
	sortByResidence(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TryFormMatch balances the ten longest-resident unreserved entries. The pool
// is left untouched; the caller reserves the roster once it has a match id.
func (p *Pool) TryFormMatch() (balancer.Result, error) {
	cands := p.Candidates(match.RosterSize)
	if len(cands) < match.RosterSize {
		return balancer.Result{}, ErrNotEnoughPlayers
	}
	return balancer.Balance(cands)
}

func (p *Pool) Reserve(ids []match.Identifier, matchID string) {
	for _, id := range ids {
		if e, ok := p.entries[id]; ok {
			e.MatchID = matchID
			e.Acceptance = match.FlagNeutral
		}
	}
	p.record(ActivityMatchCreated, "", "match found for "+strconv.Itoa(len(ids))+" players")
}

// Release clears the reservation and resets the acceptance flag of ids.
func (p *Pool) Release(ids []match.Identifier) {
	for _, id := range ids {
		if e, ok := p.entries[id]; ok {
			e.MatchID = ""
			e.Acceptance = match.FlagNeutral
		}
	}
}

// Remove deletes ids and returns the ones that were present.
func (p *Pool) Remove(ids ...match.Identifier) []match.Identifier {
	var removed []match.Identifier
	for _, id := range ids {
		if _, ok := p.entries[id]; ok {
			delete(p.entries, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (p *Pool) SetFlag(id match.Identifier, flag match.AcceptanceFlag) bool {
	e, ok := p.entries[id]
	if !ok {
		return false
	}
	e.Acceptance = flag
	return true
}

// Clear empties the pool, keeping reserved entries.
func (p *Pool) Clear() int {
	n := 0
	for id, e := range p.entries {
		if !e.Reserved() {
			delete(p.entries, id)
			n++
		}
	}
	p.record(ActivityQueueCleared, "", "queue cleared")
	return n
}

// EstimatedWait is a rough guess shown to queued players.
func (p *Pool) EstimatedWait() time.Duration {
	n := p.Available()
	if n >= match.RosterSize {
		return time.Minute
	}
	wait := time.Duration(n) * 5 * time.Second
	if wait < 30*time.Second {
		wait = 30 * time.Second
	}
	return wait
}

func sortByResidence(es []match.QueueEntry) {
	sort.Slice(es, func(i, j int) bool {
		if !es[i].JoinedAt.Equal(es[j].JoinedAt) {
			return es[i].JoinedAt.Before(es[j].JoinedAt)
		}
		return es[i].ID < es[j].ID
	})
}
