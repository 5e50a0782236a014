package platform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

type fakeGuild struct {
	mu          sync.Mutex
	next        int
	created     []channelRequest
	deleted     []string
	rateLimited bool
	failVoice   bool
	failDelete  map[string]int // channel id -> deletes to reject
}

func (g *fakeGuild) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r.Header.Get("Authorization") != "Bot secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/guilds/g1/channels":
		if !g.rateLimited {
			g.rateLimited = true
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req channelRequest
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		if g.failVoice && req.Type == channelTypeVoice {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		g.next++
		g.created = append(g.created, req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c` + strconv.Itoa(g.next) + `"}`))
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/channels/"):
		id := strings.TrimPrefix(r.URL.Path, "/channels/")
		if g.failDelete[id] > 0 {
			g.failDelete[id]--
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		g.deleted = append(g.deleted, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testRecord() *match.Record {
	rec := &match.Record{ID: "0123456789abcdef"}
	for i, lane := range match.CanonicalLanes {
		rec.Team1[i] = match.AssignedPlayer{Lane: lane}
		rec.Team2[i] = match.AssignedPlayer{Lane: lane}
	}
	return rec
}

func TestDiscordCreateAndTeardown(t *testing.T) {
	guild := &fakeGuild{}
	srv := httptest.NewServer(guild)
	defer srv.Close()

	d := NewDiscord(srv.URL, "secret", "g1", zap.NewNop())
	ctx := context.Background()
	require.NoError(t, d.CreateMatchChannels(ctx, "0123456789abcdef", testRecord()))

	require.Len(t, guild.created, 3)
	assert.Equal(t, "Inhouse 01234567", guild.created[0].Name)
	assert.Equal(t, channelTypeCategory, guild.created[0].Type)
	assert.Equal(t, "c1", guild.created[1].ParentID)
	assert.Equal(t, 5, guild.created[2].UserLimit)

	require.NoError(t, d.TeardownMatchChannels(ctx, "0123456789abcdef"))
	assert.Equal(t, []string{"c3", "c2", "c1"}, guild.deleted)

	// second teardown is a no-op
	require.NoError(t, d.TeardownMatchChannels(ctx, "0123456789abcdef"))
	assert.Len(t, guild.deleted, 3)
}

func TestDiscordRollsBackOnFailure(t *testing.T) {
	guild := &fakeGuild{failVoice: true}
	srv := httptest.NewServer(guild)
	defer srv.Close()

	d := NewDiscord(srv.URL, "secret", "g1", zap.NewNop())
	err := d.CreateMatchChannels(context.Background(), "m1", testRecord())
	require.Error(t, err)
	assert.Equal(t, []string{"c1"}, guild.deleted)
}

func TestDiscordTeardownKeepsFailedChannels(t *testing.T) {
	guild := &fakeGuild{failDelete: map[string]int{"c3": 1}}
	srv := httptest.NewServer(guild)
	defer srv.Close()

	d := NewDiscord(srv.URL, "secret", "g1", zap.NewNop())
	ctx := context.Background()
	require.NoError(t, d.CreateMatchChannels(ctx, "m1", testRecord()))

	require.Error(t, d.TeardownMatchChannels(ctx, "m1"))
	assert.Equal(t, []string{"c2", "c1"}, guild.deleted)

	require.NoError(t, d.TeardownMatchChannels(ctx, "m1"))
	assert.Equal(t, []string{"c2", "c1", "c3"}, guild.deleted)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.channels)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, retryAfter("1.5"))
	assert.Equal(t, time.Second, retryAfter(""))
	assert.Equal(t, time.Second, retryAfter("soon"))
}
