package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/engine"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/hub"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/types"
	pub "github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

type fakeCommands struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCommands) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeCommands) Accept(_ context.Context, matchID, id string) error {
	f.record("accept " + matchID + " " + id)
	return nil
}

func (f *fakeCommands) Decline(_ context.Context, matchID, id string) error {
	f.record("decline " + matchID + " " + id)
	return nil
}

func (f *fakeCommands) SubmitAction(_ context.Context, matchID, id, action string, champ int) (match.DraftAction, error) {
	f.record("draft " + matchID + " " + id + " " + action)
	return match.DraftAction{}, engine.ErrWrongActor
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, b))
}

func newServer(t *testing.T) (*hub.Hub, *fakeCommands, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, zap.NewNop())
	cmds := &fakeCommands{}
	srv := httptest.NewServer(Handler(h, cmds, zap.NewNop()))
	t.Cleanup(srv.Close)
	return h, cmds, srv.URL
}

func TestHandlerStreamsMatchEvents(t *testing.T) {
	h, _, url := newServer(t)
	ctx := context.Background()

	// Published before the client connects; the hub replays them on subscribe.
	require.NoError(t, h.Publish(ctx, pub.Event{ID: "a", Type: pub.EventMatchFound, MatchID: "other"}))
	require.NoError(t, h.Publish(ctx, pub.Event{ID: "b", Type: pub.EventMatchFound, MatchID: "m1"}))

	conn := dial(t, url+"?match=m1")
	msg := readMsg(t, conn)
	require.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	require.Equal(t, "b", msg.Event.ID)
	require.Equal(t, "m1", msg.Event.MatchID)
}

func TestHandlerDispatchesCommands(t *testing.T) {
	_, cmds, url := newServer(t)
	conn := dial(t, url)

	send(t, conn, types.ClientMessage{Type: "accept", MatchID: "m1", Identifier: "p1#euw"})
	msg := readMsg(t, conn)
	require.Equal(t, "ack", msg.Type)
	require.Equal(t, "accept", msg.Ref)

	send(t, conn, types.ClientMessage{Type: "decline", MatchID: "m1", Identifier: "p2#euw"})
	require.Equal(t, "ack", readMsg(t, conn).Type)

	send(t, conn, types.ClientMessage{Type: "draft_action", MatchID: "m1", Identifier: "p1#euw", Action: "ban", ChampionID: 1})
	msg = readMsg(t, conn)
	require.Equal(t, "error", msg.Type)
	require.Equal(t, "wrong_actor", msg.Code)

	send(t, conn, types.ClientMessage{Type: "hover"})
	msg = readMsg(t, conn)
	require.Equal(t, "unknown_type", msg.Code)

	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, []byte("{")))
	msg = readMsg(t, conn)
	require.Equal(t, "bad_json", msg.Code)

	cmds.mu.Lock()
	defer cmds.mu.Unlock()
	require.Equal(t, []string{
		"accept m1 p1#euw",
		"decline m1 p2#euw",
		"draft m1 p1#euw ban",
	}, cmds.calls)
}
