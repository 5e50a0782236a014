package types

import pub "github.com/DoyleJ11/lol-inhouse-backend/pkg/types"

// ClientMessage is a command sent over the websocket.
type ClientMessage struct {
	Type       string `json:"type"` // "accept" | "decline" | "draft_action"
	MatchID    string `json:"match_id"`
	Identifier string `json:"identifier"`
	Action     string `json:"action,omitempty"`
	ChampionID int    `json:"champion_id,omitempty"`
}

type ServerMessage struct {
	Type  string     `json:"type"` // "event" | "ack" | "error"
	Event *pub.Event `json:"event,omitempty"`
	Ref   string     `json:"ref,omitempty"`
	Error string     `json:"error,omitempty"`
	Code  string     `json:"code,omitempty"`
}
