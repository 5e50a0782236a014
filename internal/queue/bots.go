package queue

import (
	"fmt"
	"math/rand/v2"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

// NewBotEntry builds a bot queue entry with a random rating and two distinct
// lane preferences.
func NewBotEntry(n int, rng *rand.Rand) match.QueueEntry {
	lanes := match.CanonicalLanes
	primary := rng.IntN(len(lanes))
	secondary := rng.IntN(len(lanes) - 1)
	if secondary >= primary {
		secondary++
	}
	return match.QueueEntry{
		ID:        match.Identifier(fmt.Sprintf("bot%d#bot", n)),
		MMR:       800 + rng.IntN(1200),
		Primary:   lanes[primary],
		Secondary: lanes[secondary],
		Kind:      match.Bot,
	}
}

// NextBot returns a bot entry whose identifier is not yet queued.
func (p *Pool) NextBot(rng *rand.Rand) match.QueueEntry {
	for {
		p.bots++
		e := NewBotEntry(p.bots, rng)
		if _, taken := p.entries[e.ID]; !taken {
			return e
		}
	}
}
