// Package hub fans broadcast events out to connected websocket observers.
package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

var ErrClosed = errors.New("hub closed")

// replayLimit bounds the events handed to a freshly subscribed observer.
const replayLimit = 16

type HubMsg interface{ isHubMsg() }

type Subscribe struct {
	ClientID string
	MatchID  string // empty follows every match
	Outbox   chan types.Event
}

type Unsubscribe struct {
	ClientID string
}

type GetStats struct {
	Reply chan Stats
}

type ShutdownHub struct{}

type publish struct {
	evt types.Event
}

func (Subscribe) isHubMsg()   {}
func (Unsubscribe) isHubMsg() {}
func (GetStats) isHubMsg()    {}
func (ShutdownHub) isHubMsg() {}
func (publish) isHubMsg()     {}

type Stats struct {
	Clients   int
	Published int
	Dropped   int
}

type client struct {
	matchID string
	out     chan types.Event
}

type Hub struct {
	inbox   chan HubMsg
	clients map[string]client
	recent  []types.Event
	stats   Stats
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 256),
		clients: make(map[string]client),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) send(m HubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Subscribe registers out for events of matchID, or of every match when
// matchID is empty. The hub closes out when the client is dropped.
func (h *Hub) Subscribe(clientID, matchID string, out chan types.Event) bool {
	return h.send(Subscribe{ClientID: clientID, MatchID: matchID, Outbox: out})
}

func (h *Hub) Unsubscribe(clientID string) {
	h.send(Unsubscribe{ClientID: clientID})
}

// Publish queues evt for every subscriber. It never waits on a slow observer.
func (h *Hub) Publish(ctx context.Context, evt types.Event) error {
	select {
	case h.inbox <- publish{evt: evt}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return ErrClosed
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				c := client{matchID: msg.MatchID, out: msg.Outbox}
				h.clients[msg.ClientID] = c
				for _, evt := range h.recent {
					if !c.wants(evt) {
						continue
					}
					select {
					case c.out <- evt:
					default:
					}
				}

			case Unsubscribe:
				if c, ok := h.clients[msg.ClientID]; ok {
					close(c.out)
					delete(h.clients, msg.ClientID)
				}

			case publish:
				h.remember(msg.evt)
				h.broadcast(msg.evt)

			case GetStats:
				s := h.stats
				s.Clients = len(h.clients)
				msg.Reply <- s

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (c client) wants(evt types.Event) bool {
	return c.matchID == "" || evt.MatchID == "" || evt.MatchID == c.matchID
}

func (h *Hub) remember(evt types.Event) {
	h.recent = append(h.recent, evt)
	if over := len(h.recent) - replayLimit; over > 0 {
		h.recent = append(h.recent[:0], h.recent[over:]...)
	}
}

func (h *Hub) broadcast(evt types.Event) {
	h.stats.Published++
	for id, c := range h.clients {
		if !c.wants(evt) {
			continue
		}
		select {
		case c.out <- evt:
		default:
			// Client is slow/full - drop them.
			close(c.out)
			delete(h.clients, id)
			h.stats.Dropped++
			h.log.Debug("dropped slow observer", zap.String("client", id))
		}
	}
}

func (h *Hub) shutdown() {
	for id, c := range h.clients {
		close(c.out)
		delete(h.clients, id)
	}
	h.cancel()
}
