// Package types is the wire contract shared with observers of the match
// lifecycle, over the websocket stream and the redis channel alike.
package types

import "time"

type EventType string

// Server -> Observer
const (
	EventQueueUpdated       EventType = "queue_update"
	EventMatchFound         EventType = "match_found"
	EventTimerUpdate        EventType = "match_timer_update"
	EventAcceptanceProgress EventType = "match_acceptance_progress"
	EventMatchAccepted      EventType = "match_fully_accepted"
	EventMatchCancelled     EventType = "match_cancelled"
	EventDraftStarted       EventType = "draft_started"
	EventDraftAction        EventType = "draft_action"
	EventDraftCompleted     EventType = "draft_completed"
	EventDraftCancelled     EventType = "draft_cancelled"
	EventGameStarted        EventType = "game_started"
	EventGameEvent          EventType = "game_event"
	EventGameFinished       EventType = "game_finished"
	EventGameCancelled      EventType = "game_cancelled"
)

// Event is one broadcast. Data is the event-specific payload.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	MatchID   string    `json:"matchId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client -> Server (websocket)
// accept:
//   match_id: string
//   identifier: string
//
// decline:
//   match_id: string
//   identifier: string
//
// draft_action:
//   match_id: string
//   identifier: string
//   action: "ban" | "pick"
//   champion_id: number
