package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/champions"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/coordinator"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/hub"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/notify"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

type recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *recorder) Publish(_ context.Context, evt types.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) find(t types.EventType) (types.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == t {
			return e, true
		}
	}
	return types.Event{}, false
}

func newTestServer(t *testing.T) (*httptest.Server, *recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := coordinator.DefaultConfig()
	cfg.BotAcceptMin, cfg.BotAcceptMax = time.Millisecond, 2*time.Millisecond
	cfg.BotThinkMin, cfg.BotThinkMax = time.Millisecond, 2*time.Millisecond

	rec := &recorder{}
	h := hub.NewHub(ctx, zap.NewNop())
	c := coordinator.New(ctx, coordinator.Deps{
		Store:     store.NewMemory(),
		Bus:       notify.Multi{h, rec},
		Champions: champions.NewRegistry(),
	}, cfg)
	t.Cleanup(c.Shutdown)

	srv := httptest.NewServer(SetupRoutes(c, h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, rec
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func errorCode(t *testing.T, b []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(b, &e))
	return e.Code
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	status, _ := do(t, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, status)
}

func TestQueueEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := do(t, http.MethodPost, srv.URL+"/queue", `{"identifier":"Faker#KR1","mmr":2000,"primaryLane":"mid"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	var entry match.QueueEntry
	require.NoError(t, json.Unmarshal(body, &entry))
	assert.Equal(t, match.Identifier("faker#kr1"), entry.ID)
	assert.Equal(t, match.LaneMid, entry.Primary)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"duplicate", `{"identifier":"faker#kr1","mmr":1}`, http.StatusConflict, "already_queued"},
		{"malformed", `{"identifier":"faker"}`, http.StatusBadRequest, "malformed_identifier"},
		{"lane", `{"identifier":"x#y","primaryLane":"roam"}`, http.StatusBadRequest, "invalid_lane"},
		{"json", `{`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, srv.URL+"/queue", tt.body)
			require.Equal(t, tt.status, status, string(body))
			require.Equal(t, tt.code, errorCode(t, body))
		})
	}

	status, body = do(t, http.MethodGet, srv.URL+"/queue", "")
	require.Equal(t, http.StatusOK, status)
	var q coordinator.QueueStatus
	require.NoError(t, json.Unmarshal(body, &q))
	require.Len(t, q.Entries, 1)

	status, _ = do(t, http.MethodDelete, srv.URL+"/queue/faker%23kr1", "")
	require.Equal(t, http.StatusOK, status)
	status, body = do(t, http.MethodDelete, srv.URL+"/queue/faker%23kr1", "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_queued", errorCode(t, body))

	status, body = do(t, http.MethodDelete, srv.URL+"/queue", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"removed":0}`, string(body))
}

func TestMatchEndpoints(t *testing.T) {
	srv, rec := newTestServer(t)

	status, body := do(t, http.MethodGet, srv.URL+"/matches/missing", "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "match_not_found", errorCode(t, body))

	status, body = do(t, http.MethodPost, srv.URL+"/queue/bots", `{"count":10}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	var started types.Event
	require.Eventually(t, func() bool {
		var ok bool
		started, ok = rec.find(types.EventGameStarted)
		return ok
	}, 3*time.Second, 5*time.Millisecond)
	id := started.MatchID

	status, body = do(t, http.MethodPost, srv.URL+"/matches/"+id+"/accept", `{"identifier":"bot1#bot"}`)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "already_resolved", errorCode(t, body))

	status, body = do(t, http.MethodPost, srv.URL+"/matches/"+id+"/draft/abort", "")
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "not_drafting", errorCode(t, body))

	status, body = do(t, http.MethodPost, srv.URL+"/matches/"+id+"/events", `{"type":"player_disconnect","payload":{"player":"bot1#bot"}}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = do(t, http.MethodPost, srv.URL+"/matches/"+id+"/finish", `{"winnerTeam":5}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_winner", errorCode(t, body))

	status, body = do(t, http.MethodPost, srv.URL+"/matches/"+id+"/finish", `{"winnerTeam":2,"durationSeconds":1800}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var sum session.Summary
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, match.StatusCompleted, sum.Status)
	require.NotNil(t, sum.Result)
	assert.Equal(t, 30*time.Minute, sum.Result.Duration)

	require.Eventually(t, func() bool {
		status, body = do(t, http.MethodGet, srv.URL+"/matches/"+id, "")
		var v coordinator.MatchView
		return status == http.StatusOK && json.Unmarshal(body, &v) == nil && v.Match.Status == match.StatusCompleted
	}, 3*time.Second, 10*time.Millisecond)
}
