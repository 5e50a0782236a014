package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
)

func testRecord(id string) *match.Record {
	rec := &match.Record{ID: id, Status: match.StatusPending, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	for i, lane := range match.CanonicalLanes {
		rec.Team1[i] = match.AssignedPlayer{ID: match.Identifier(fmt.Sprintf("a%d#t", i)), Lane: lane, MMR: 1000, TeamIndex: i}
		rec.Team2[i] = match.AssignedPlayer{ID: match.Identifier(fmt.Sprintf("b%d#t", i)), Lane: lane, MMR: 1000, TeamIndex: i + 5}
	}
	return rec
}

// runContract exercises behaviour every Store implementation must share.
func runContract(t *testing.T, s Store) {
	ctx := context.Background()
	suffix := uuid.NewString()[:6]
	idA := match.Identifier("alpha" + suffix + "#t")
	idB := match.Identifier("bravo" + suffix + "#t")

	t.Run("queue", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, s.AddQueueEntry(ctx, match.QueueEntry{ID: idA, MMR: 1200, Primary: match.LaneMid, Secondary: match.LaneFill, JoinedAt: now}))
		require.NoError(t, s.AddQueueEntry(ctx, match.QueueEntry{ID: idB, MMR: 900, Primary: match.LaneTop, Secondary: match.LaneFill, Kind: match.Bot, JoinedAt: now.Add(time.Second)}))
		require.NoError(t, s.SetAcceptanceFlag(ctx, idA, match.FlagAccepted))
		assert.ErrorIs(t, s.SetAcceptanceFlag(ctx, "ghost"+match.Identifier(suffix)+"#x", match.FlagAccepted), ErrNotFound)

		entries, err := s.ListQueueEntries(ctx)
		require.NoError(t, err)
		got := map[match.Identifier]match.QueueEntry{}
		for _, e := range entries {
			got[e.ID] = e
		}
		assert.Equal(t, match.FlagAccepted, got[idA].Acceptance)
		assert.Equal(t, match.Bot, got[idB].Kind)

		require.NoError(t, s.ResetAcceptanceFlags(ctx, []match.Identifier{idA, idB}))
		require.NoError(t, s.RemoveQueueEntry(ctx, idB))
		entries, err = s.ListQueueEntries(ctx)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotEqual(t, idB, e.ID)
			if e.ID == idA {
				assert.Equal(t, match.FlagNeutral, e.Acceptance)
			}
		}
		require.NoError(t, s.RemoveQueueEntry(ctx, idA))
	})

	t.Run("match", func(t *testing.T) {
		rec := testRecord(uuid.NewString())
		require.NoError(t, s.CreateMatch(ctx, rec))
		assert.ErrorIs(t, s.CreateMatch(ctx, rec), ErrConflict)

		a := match.DraftAction{ActionIndex: 0, Side: match.Blue, Actor: "a0#t", ChampionID: 103, Type: match.Ban, At: time.Now().UTC()}
		require.NoError(t, s.AppendDraftAction(ctx, rec.ID, a))
		assert.ErrorIs(t, s.AppendDraftAction(ctx, rec.ID, a), ErrConflict)

		team1 := rec.Team1
		team1[0].ChampionID = 266
		require.NoError(t, s.UpdateMatchStatus(ctx, rec.ID, match.StatusDraft, Fields{Team1: &team1}))

		got, err := s.GetMatch(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, match.StatusDraft, got.Status)
		assert.Equal(t, 266, got.Team1[0].ChampionID)
		require.NotNil(t, got.Draft)
		assert.Equal(t, 1, got.Draft.CurrentIndex())

		require.NoError(t, s.DeleteMatch(ctx, rec.ID))
		_, err = s.GetMatch(ctx, rec.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.UpdateMatchStatus(ctx, rec.ID, match.StatusCancelled, Fields{}), ErrNotFound)
	})

	t.Run("list by status", func(t *testing.T) {
		live := testRecord(uuid.NewString())
		idle := testRecord(uuid.NewString())
		require.NoError(t, s.CreateMatch(ctx, live))
		require.NoError(t, s.CreateMatch(ctx, idle))
		defer func() {
			require.NoError(t, s.DeleteMatch(ctx, live.ID))
			require.NoError(t, s.DeleteMatch(ctx, idle.ID))
		}()

		a := match.DraftAction{ActionIndex: 0, Side: match.Blue, Actor: "a0#t", ChampionID: 7, Type: match.Ban, At: time.Now().UTC()}
		require.NoError(t, s.AppendDraftAction(ctx, live.ID, a))
		team1 := live.Team1
		team1[2].ChampionID = 99
		require.NoError(t, s.UpdateMatchStatus(ctx, live.ID, match.StatusInProgress, Fields{Team1: &team1}))

		recs, err := s.ListMatchesByStatus(ctx, match.StatusInProgress)
		require.NoError(t, err)
		var found *match.Record
		for _, rec := range recs {
			assert.Equal(t, match.StatusInProgress, rec.Status)
			assert.NotEqual(t, idle.ID, rec.ID)
			if rec.ID == live.ID {
				found = rec
			}
		}
		require.NotNil(t, found)
		assert.Equal(t, 99, found.Team1[2].ChampionID)
		require.NotNil(t, found.Draft)
		require.Len(t, found.Draft.Actions, 1)
		assert.Equal(t, 7, found.Draft.Actions[0].ChampionID)
	})

	t.Run("ratings", func(t *testing.T) {
		_, err := s.Rating(ctx, idA)
		assert.ErrorIs(t, err, ErrNotFound)
		r, err := s.AdjustRating(ctx, idA, 10, -15)
		require.NoError(t, err)
		assert.Equal(t, 0, r)
		r, err = s.AdjustRating(ctx, idA, 10, 20)
		require.NoError(t, err)
		assert.Equal(t, 20, r)
		r, err = s.Rating(ctx, idA)
		require.NoError(t, err)
		assert.Equal(t, 20, r)
	})

	t.Run("summary", func(t *testing.T) {
		sum := session.Summary{
			MatchID:   uuid.NewString(),
			Status:    match.StatusCompleted,
			StartedAt: time.Now().Add(-time.Hour),
			EndedAt:   time.Now(),
			Result:    &session.Result{WinnerTeam: 1, Duration: time.Hour, EndReason: session.EndVictory},
		}
		require.NoError(t, s.SaveGameSummary(ctx, sum))
		require.NoError(t, s.SaveGameSummary(ctx, sum))
	})
}

func TestMemoryStore(t *testing.T) {
	runContract(t, NewMemory())
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := OpenPostgres(dsn, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	runContract(t, s)
}
