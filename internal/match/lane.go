package match

import (
	"errors"
	"strings"
)

// Lane is a roster position. Fill is only ever a preference, never a slot.
type Lane string

const (
	LaneTop     Lane = "top"
	LaneJungle  Lane = "jungle"
	LaneMid     Lane = "mid"
	LaneADC     Lane = "adc"
	LaneSupport Lane = "support"
	LaneFill    Lane = "fill"
)

// TeamSize is the number of players per side; RosterSize covers both sides.
const (
	TeamSize   = 5
	RosterSize = 2 * TeamSize
)

// CanonicalLanes lists the slot lanes in roster order.
var CanonicalLanes = [TeamSize]Lane{LaneTop, LaneJungle, LaneMid, LaneADC, LaneSupport}

var ErrInvalidLane = errors.New("invalid lane")

// Rank is the lane's index in CanonicalLanes, or -1 for fill and unknown lanes.
func (l Lane) Rank() int {
	for i, c := range CanonicalLanes {
		if c == l {
			return i
		}
	}
	return -1
}

func (l Lane) Valid() bool {
	return l == LaneFill || l.Rank() >= 0
}

// ParseLane normalises a lane preference. Empty input means fill and "bot" is
// accepted for adc.
func ParseLane(raw string) (Lane, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return LaneFill, nil
	case "bot", "bottom":
		return LaneADC, nil
	}
	l := Lane(s)
	if !l.Valid() {
		return "", ErrInvalidLane
	}
	return l, nil
}
