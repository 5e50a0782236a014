package queue

import (
	"time"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

const activityLimit = 20

type ActivityType string

const (
	ActivityPlayerJoined ActivityType = "player_joined"
	ActivityPlayerLeft   ActivityType = "player_left"
	ActivityMatchCreated ActivityType = "match_created"
	ActivityQueueCleared ActivityType = "queue_cleared"
)

type Activity struct {
	Type       ActivityType     `json:"type"`
	Message    string           `json:"message"`
	Identifier match.Identifier `json:"identifier,omitempty"`
	At         time.Time        `json:"at"`
}

// Activity returns the recent feed, newest first.
func (p *Pool) Activity() []Activity {
	out := make([]Activity, len(p.activity))
	for i, a := range p.activity {
		out[len(p.activity)-1-i] = a
	}
	return out
}

func (p *Pool) record(t ActivityType, id match.Identifier, msg string) {
	p.activity = append(p.activity, Activity{Type: t, Message: msg, Identifier: id, At: p.now()})
	if over := len(p.activity) - activityLimit; over > 0 {
		p.activity = append(p.activity[:0], p.activity[over:]...)
	}
}
