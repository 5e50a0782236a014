package types

// DraftSnapshot:
//   phase: "ban1" | "pick1" | "ban2" | "pick2" | "done"
//   current_index: number
//   next: { side, action, slot, actor } // absent once done
//   picks: { blue: number[], red: number[] }
//   bans:  { blue: number[], red: number[] }
type DraftSnapshot struct {
	Phase        string           `json:"phase"`
	CurrentIndex int              `json:"current_index"`
	Total        int              `json:"total"`
	Next         *TurnSnapshot    `json:"next,omitempty"`
	Picks        map[string][]int `json:"picks"`
	Bans         map[string][]int `json:"bans"`
}

type TurnSnapshot struct {
	Side   string `json:"side"`
	Action string `json:"action"`
	Slot   int    `json:"slot"`
	Actor  string `json:"actor"`
	IsBot  bool   `json:"is_bot"`
}

// TimerSnapshot is the payload of match_timer_update.
type TimerSnapshot struct {
	TimeLeft int  `json:"timeLeft"`
	IsUrgent bool `json:"isUrgent"`
}
