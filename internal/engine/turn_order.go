package engine

import "github.com/DoyleJ11/lol-inhouse-backend/internal/match"

// TurnStep names who acts at a template position: the side, the action and the
// roster slot (lane rank) of the player on that side.
type TurnStep struct {
	Side   match.Side       `json:"side"`
	Action match.ActionType `json:"action"`
	Slot   int              `json:"slot"`
}

// ProTemplate is the tournament draft: three bans each, six picks, two more bans
// each, four picks. Bans rotate through the roster so every player acts.
var ProTemplate = []TurnStep{
	// Ban Phase 1
	{Side: match.Blue, Action: match.Ban, Slot: 0},
	{Side: match.Red, Action: match.Ban, Slot: 0},
	{Side: match.Blue, Action: match.Ban, Slot: 1},
	{Side: match.Red, Action: match.Ban, Slot: 1},
	{Side: match.Blue, Action: match.Ban, Slot: 2},
	{Side: match.Red, Action: match.Ban, Slot: 2},
	// Pick Phase 1
	{Side: match.Blue, Action: match.Pick, Slot: 0},
	{Side: match.Red, Action: match.Pick, Slot: 0},
	{Side: match.Red, Action: match.Pick, Slot: 1},
	{Side: match.Blue, Action: match.Pick, Slot: 1},
	{Side: match.Blue, Action: match.Pick, Slot: 2},
	{Side: match.Red, Action: match.Pick, Slot: 2},
	// Ban Phase 2
	{Side: match.Red, Action: match.Ban, Slot: 3},
	{Side: match.Blue, Action: match.Ban, Slot: 3},
	{Side: match.Red, Action: match.Ban, Slot: 4},
	{Side: match.Blue, Action: match.Ban, Slot: 4},
	// Pick Phase 2
	{Side: match.Red, Action: match.Pick, Slot: 3},
	{Side: match.Blue, Action: match.Pick, Slot: 3},
	{Side: match.Blue, Action: match.Pick, Slot: 4},
	{Side: match.Red, Action: match.Pick, Slot: 4},
}
