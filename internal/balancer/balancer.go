// Package balancer splits ten queue entries into two lane-complete teams.
package balancer

import (
	"errors"
	"math"
	"sort"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

var ErrBalanceFailed = errors.New("balancer: could not fill every roster slot")

// WellBalancedThreshold is the largest average MMR gap still reported as fair.
const WellBalancedThreshold = 100.0

type Result struct {
	Team1         [match.TeamSize]match.AssignedPlayer `json:"team1"`
	Team2         [match.TeamSize]match.AssignedPlayer `json:"team2"`
	AverageMMR    [2]float64                           `json:"averageMmr"`
	AutofillCount [2]int                               `json:"autofillCount"`
}

func (r Result) MMRDifference() float64 {
	return math.Abs(r.AverageMMR[0] - r.AverageMMR[1])
}

func (r Result) WellBalanced() bool {
	return r.MMRDifference() <= WellBalancedThreshold
}

// Identifiers lists the selected players, team1 first.
func (r Result) Identifiers() []match.Identifier {
	out := make([]match.Identifier, 0, match.RosterSize)
	for _, p := range r.Team1 {
		out = append(out, p.ID)
	}
	for _, p := range r.Team2 {
		out = append(out, p.ID)
	}
	return out
}

// Balance assigns candidates by descending MMR. Each player takes their primary
// lane on the first team with it open, then their secondary, then the first
// open canonical lane as autofill. Team one wins every tie, so the strongest
// players alternate between sides as slots fill up.
func Balance(candidates []match.QueueEntry) (Result, error) {
	if len(candidates) != match.RosterSize {
		return Result{}, ErrBalanceFailed
	}
	sorted := make([]match.QueueEntry, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MMR != sorted[j].MMR {
			return sorted[i].MMR > sorted[j].MMR
		}
		return sorted[i].ID < sorted[j].ID
	})

	var (
		res    Result
		filled [2][match.TeamSize]bool
	)
	place := func(e match.QueueEntry, lane match.Lane, autofill bool) bool {
		rank := lane.Rank()
		if rank < 0 {
			return false
		}
		for team := 0; team < 2; team++ {
			if filled[team][rank] {
				continue
			}
			filled[team][rank] = true
			p := match.AssignedPlayer{
				ID:         e.ID,
				Lane:       lane,
				MMR:        e.MMR,
				IsAutofill: autofill,
				TeamIndex:  rank + team*match.TeamSize,
				Kind:       e.Kind,
			}
			if team == 0 {
				res.Team1[rank] = p
			} else {
				res.Team2[rank] = p
			}
			if autofill {
				res.AutofillCount[team]++
			}
			return true
		}
		return false
	}

	for _, e := range sorted {
		if place(e, e.Primary, false) || place(e, e.Secondary, false) {
			continue
		}
		placed := false
		for _, lane := range match.CanonicalLanes {
			if place(e, lane, true) {
				placed = true
				break
			}
		}
		if !placed {
			return Result{}, ErrBalanceFailed
		}
	}

	for team := range filled {
		for _, ok := range filled[team] {
			if !ok {
				return Result{}, ErrBalanceFailed
			}
		}
	}
	res.AverageMMR[0] = average(res.Team1)
	res.AverageMMR[1] = average(res.Team2)
	return res, nil
}

func average(team [match.TeamSize]match.AssignedPlayer) float64 {
	total := 0
	for _, p := range team {
		total += p.MMR
	}
	return float64(total) / float64(len(team))
}
