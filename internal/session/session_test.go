package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

func record(mmr int) *match.Record {
	rec := &match.Record{ID: "m1", Status: match.StatusInProgress}
	for i, lane := range match.CanonicalLanes {
		rec.Team1[i] = match.AssignedPlayer{ID: match.Identifier(fmt.Sprintf("a%d#t", i)), Lane: lane, MMR: mmr, ChampionID: i + 1}
		rec.Team2[i] = match.AssignedPlayer{ID: match.Identifier(fmt.Sprintf("b%d#t", i)), Lane: lane, MMR: mmr, ChampionID: i + 10}
	}
	return rec
}

func TestSessionLifecycle(t *testing.T) {
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	s := Start(record(1000), start)
	require.Len(t, s.Events, 1)
	assert.Equal(t, EventGameStart, s.Events[0].Type)
	assert.Equal(t, 10, s.Team2[0].ChampionID)

	_, err := s.Record(EventPlayerDisconnect, map[string]any{"player": "a1#t"}, start.Add(time.Minute))
	require.NoError(t, err)
	_, err = s.Record(EventGameEnd, nil, start)
	assert.ErrorIs(t, err, ErrUnknownEventType)

	sum, err := s.Finish(Result{WinnerTeam: 2}, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, match.StatusCompleted, sum.Status)
	assert.Equal(t, EndVictory, sum.Result.EndReason)
	assert.Equal(t, 30*time.Minute, sum.Result.Duration)
	assert.Equal(t, EventGameEnd, sum.Events[len(sum.Events)-1].Type)
	assert.Equal(t, RatingChange{Before: 1000, Delta: 20, After: 1020}, sum.RatingChanges["b0#t"])
	assert.Equal(t, RatingChange{Before: 1000, Delta: -15, After: 985}, sum.RatingChanges["a0#t"])

	_, err = s.Record(EventSurrender, nil, start)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Cancel("late", start)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestFinishValidation(t *testing.T) {
	tests := []struct {
		res Result
		err error
	}{
		{Result{WinnerTeam: 0}, ErrInvalidWinner},
		{Result{WinnerTeam: 3}, ErrInvalidWinner},
		{Result{WinnerTeam: 1, EndReason: "rage quit"}, ErrInvalidReason},
	}
	for _, tt := range tests {
		s := Start(record(1000), time.Now())
		if _, err := s.Finish(tt.res, time.Now()); !errors.Is(err, tt.err) {
			t.Fatalf("Finish(%+v) = %v, want %v", tt.res, err, tt.err)
		}
		if !s.Open() {
			t.Fatalf("rejected finish closed the session")
		}
	}
}

func TestRatingFloorsAtZero(t *testing.T) {
	rec := record(10)
	changes := RatingChanges(rec.Team1, rec.Team2, 2)
	got := changes["a3#t"]
	if got.After != 0 || got.Delta != -10 {
		t.Fatalf("got %+v, want floor at zero", got)
	}
	if changes["b3#t"].After != 30 {
		t.Fatalf("winner rating = %d", changes["b3#t"].After)
	}
}

func TestCancel(t *testing.T) {
	s := Start(record(1000), time.Now())
	sum, err := s.Cancel("server restart", time.Now())
	require.NoError(t, err)
	assert.Equal(t, match.StatusCancelled, sum.Status)
	assert.Equal(t, "server restart", sum.Reason)
	assert.Nil(t, sum.RatingChanges)
}
