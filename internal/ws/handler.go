package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/apierr"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/types"
	pub "github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

const (
	outboxSize   = 32
	writeTimeout = 3 * time.Second
)

// Subscriber is the observer side of the hub.
type Subscriber interface {
	Subscribe(clientID, matchID string, out chan pub.Event) bool
	Unsubscribe(clientID string)
}

// Commands are the match operations a websocket client may invoke.
type Commands interface {
	Accept(ctx context.Context, matchID, identifier string) error
	Decline(ctx context.Context, matchID, identifier string) error
	SubmitAction(ctx context.Context, matchID, identifier, action string, championID int) (match.DraftAction, error)
}

// Handler streams broadcast events to the client. ?match=<id> limits the
// stream to one match.
func Handler(h Subscriber, cmds Commands, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("match")

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("client", clientID))
		out := make(chan pub.Event, outboxSize)
		if !h.Subscribe(clientID, matchID, out) {
			conn.Close(websocket.StatusTryAgainLater, "shutting down")
			return
		}
		defer h.Unsubscribe(clientID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine
		go func() {
			for evt := range out {
				if err := write(ctx, conn, types.ServerMessage{Type: "event", Event: &evt}); err != nil {
					log.Debug("write failed", zap.Error(err))
					break
				}
			}
			// The hub closed our outbox: we were too slow or it is shutting down.
			cancel()
			conn.Close(websocket.StatusPolicyViolation, "dropped")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(ctx, conn, types.ServerMessage{Type: "error", Error: "bad json", Code: "bad_json"})
				continue
			}
			_ = write(ctx, conn, dispatch(ctx, cmds, cm))
		}
	}
}

func dispatch(ctx context.Context, cmds Commands, cm types.ClientMessage) types.ServerMessage {
	var err error
	switch cm.Type {
	case "accept":
		err = cmds.Accept(ctx, cm.MatchID, cm.Identifier)
	case "decline":
		err = cmds.Decline(ctx, cm.MatchID, cm.Identifier)
	case "draft_action":
		_, err = cmds.SubmitAction(ctx, cm.MatchID, cm.Identifier, cm.Action, cm.ChampionID)
	default:
		return types.ServerMessage{Type: "error", Ref: cm.Type, Error: "unknown type", Code: "unknown_type"}
	}
	if err != nil {
		_, code := apierr.Classify(err)
		return types.ServerMessage{Type: "error", Ref: cm.Type, Error: err.Error(), Code: code}
	}
	return types.ServerMessage{Type: "ack", Ref: cm.Type}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
