// Package coordinator runs the match lifecycle. A single goroutine owns the
// queue and every live match; the rest of the process talks to it through
// messages.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/acceptance"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/engine"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/notify"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/platform"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/queue"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

var (
	ErrClosed              = errors.New("coordinator closed")
	ErrMatchNotFound       = errors.New("match not found")
	ErrNotInProgress       = errors.New("match has no game in progress")
	ErrDuplicateSubmission = errors.New("duplicate draft submission")
)

type Config struct {
	AcceptTimeout       time.Duration
	CountdownInterval   time.Duration
	BotAcceptMin        time.Duration
	BotAcceptMax        time.Duration
	BotThinkMin         time.Duration
	BotThinkMax         time.Duration
	DedupTTL            time.Duration
	ReconcileInterval   time.Duration
	MatchmakingInterval time.Duration
	IOTimeout           time.Duration
	DefaultRating       int
}

func DefaultConfig() Config {
	return Config{
		AcceptTimeout:       30 * time.Second,
		CountdownInterval:   time.Second,
		BotAcceptMin:        300 * time.Millisecond,
		BotAcceptMax:        1500 * time.Millisecond,
		BotThinkMin:         time.Second,
		BotThinkMax:         3 * time.Second,
		DedupTTL:            3 * time.Second,
		ReconcileInterval:   2 * time.Second,
		MatchmakingInterval: 5 * time.Second,
		IOTimeout:           5 * time.Second,
		DefaultRating:       1000,
	}
}

// Deps are the collaborators of a Coordinator. Only Store and Champions are
// required.
type Deps struct {
	Store     store.Store
	Bus       notify.Broadcaster
	Community platform.Community
	Champions engine.Pool
	Log       *zap.Logger
	Rand      *rand.Rand
	Now       func() time.Time
}

type dedupKey struct {
	matchID  string
	actor    match.Identifier
	champion int
	action   match.ActionType
}

type pendingAcceptance struct {
	state    *acceptance.State
	gen      uint64
	deadline *time.Timer
	ticker   *time.Timer
	bots     []*time.Timer
}

func (p *pendingAcceptance) stop() {
	stopTimer(p.deadline)
	stopTimer(p.ticker)
	for _, t := range p.bots {
		stopTimer(t)
	}
}

type activeMatch struct {
	rec      *match.Record
	acc      *pendingAcceptance
	draft    *engine.State
	botTimer *time.Timer
	botGen   uint64
	game     *session.Session
}

type Coordinator struct {
	inbox     chan Msg
	cfg       Config
	store     store.Store
	bus       notify.Broadcaster
	community platform.Community
	champs    engine.Pool
	log       *zap.Logger
	rng       *rand.Rand
	now       func() time.Time

	pool    *queue.Pool
	matches map[string]*activeMatch
	dedup   map[dedupKey]time.Time
	gen     uint64

	writes *worker
	events *worker
	side   *worker
	cron   *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, deps Deps, cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Bus == nil {
		deps.Bus = notify.Nop{}
	}
	if deps.Community == nil {
		deps.Community = platform.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		deps.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	log := deps.Log.Named("coordinator")

	c := &Coordinator{
		inbox:     make(chan Msg, 256),
		cfg:       cfg,
		store:     deps.Store,
		bus:       deps.Bus,
		community: deps.Community,
		champs:    deps.Champions,
		log:       log,
		rng:       deps.Rand,
		now:       deps.Now,
		pool:      queue.NewPool(deps.Now),
		matches:   make(map[string]*activeMatch),
		dedup:     make(map[dedupKey]time.Time),
		writes:    newWorker("store", 1024, cfg.IOTimeout, 1, log),
		events:    newWorker("broadcast", 1024, cfg.IOTimeout, 1, log),
		side:      newWorker("community", 64, 2*cfg.IOTimeout, 1, log),
		cron:      cron.New(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.writes.run(ctx)
	go c.events.run(ctx)
	go c.side.run(ctx)
	go c.loop()
	return c
}

// StartTicks schedules periodic reconciliation and matchmaking.
func (c *Coordinator) StartTicks() error {
	if _, err := c.cron.AddFunc(every(c.cfg.ReconcileInterval), func() { c.post(reconcileTick{}) }); err != nil {
		return fmt.Errorf("schedule reconcile: %w", err)
	}
	if _, err := c.cron.AddFunc(every(c.cfg.MatchmakingInterval), func() { c.post(matchmakeTick{}) }); err != nil {
		return fmt.Errorf("schedule matchmaking: %w", err)
	}
	c.cron.Start()
	return nil
}

func every(d time.Duration) string { return "@every " + d.String() }

// Shutdown stops the loop, the scheduler and every pending timer, then lets the
// workers drain what is already queued.
func (c *Coordinator) Shutdown() {
	stopped := c.cron.Stop()
	c.cancel()
	<-c.done
	<-stopped.Done()
	<-c.writes.done
	<-c.events.done
	<-c.side.done
}

// Done is closed once the event loop has exited.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Flush waits until every collaborator call issued so far has completed.
func (c *Coordinator) Flush(ctx context.Context) error {
	// The loop may still hold work that enqueues more calls; a round trip
	// through the inbox makes sure it has been issued.
	if _, err := call(ctx, c, func(r chan result[QueueStatus]) Msg { return getQueue{Reply: r} }); err != nil {
		return err
	}
	for _, w := range []*worker{c.writes, c.events, c.side} {
		if err := w.flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return
		case m := <-c.inbox:
			c.handle(m)
		}
	}
}

func (c *Coordinator) handle(m Msg) {
	switch msg := m.(type) {
	case joinQueue:
		e, err := c.join(msg.Entry)
		msg.Reply <- result[match.QueueEntry]{e, err}
	case leaveQueue:
		e, err := c.leave(msg.ID)
		msg.Reply <- result[match.QueueEntry]{e, err}
	case addBots:
		msg.Reply <- result[[]match.QueueEntry]{val: c.addBots(msg.N)}
	case clearQueue:
		msg.Reply <- result[int]{val: c.clear()}
	case restoreState:
		msg.Reply <- result[int]{val: c.restore(msg.Entries, msg.Matches)}
	case getQueue:
		msg.Reply <- result[QueueStatus]{val: c.queueStatus()}

	case acceptMatch:
		msg.Reply <- result[struct{}]{err: c.accept(msg.MatchID, msg.ID)}
	case declineMatch:
		msg.Reply <- result[struct{}]{err: c.decline(msg.MatchID, msg.ID)}
	case acceptDeadline:
		c.onDeadline(msg)
	case countdownTick:
		c.onCountdown(msg)
	case botAccept:
		c.onBotAccept(msg)

	case submitAction:
		a, err := c.submit(msg.MatchID, msg.Actor, msg.ChampionID, msg.Type)
		msg.Reply <- result[match.DraftAction]{a, err}
	case abortDraft:
		msg.Reply <- result[struct{}]{err: c.abort(msg.MatchID, msg.Reason)}
	case botTurn:
		c.onBotTurn(msg)

	case recordEvent:
		e, err := c.recordEvent(msg.MatchID, msg.Type, msg.Payload)
		msg.Reply <- result[session.Event]{e, err}
	case finishGame:
		s, err := c.finish(msg.MatchID, msg.Result)
		msg.Reply <- result[session.Summary]{s, err}
	case cancelGame:
		s, err := c.cancelGame(msg.MatchID, msg.Reason)
		msg.Reply <- result[session.Summary]{s, err}

	case getMatch:
		v, err := c.matchView(msg.MatchID)
		msg.Reply <- result[MatchView]{v, err}

	case reconcileTick:
		c.onReconcileTick()
	case reconcileResult:
		c.onReconcileResult(msg)
	case matchmakeTick:
		c.matchmake()
	}
}

func (c *Coordinator) shutdown() {
	for id, am := range c.matches {
		if am.acc != nil {
			am.acc.stop()
		}
		stopTimer(am.botTimer)
		delete(c.matches, id)
	}
}

// post delivers an internal message unless the loop is gone.
func (c *Coordinator) post(m Msg) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

func (c *Coordinator) after(d time.Duration, m Msg) *time.Timer {
	return time.AfterFunc(d, func() { c.post(m) })
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// advance moves am to next. A refused transition is logged and reported as
// false.
func (c *Coordinator) advance(am *activeMatch, next match.Status) bool {
	if err := am.rec.Advance(next); err != nil {
		c.log.Error("status transition refused", zap.String("match", am.rec.ID), zap.Error(err))
		return false
	}
	return true
}

func (c *Coordinator) nextGen() uint64 {
	c.gen++
	return c.gen
}

func (c *Coordinator) jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(c.rng.Int64N(int64(hi-lo)))
}

func (c *Coordinator) persist(name string, fn func(ctx context.Context) error) {
	c.writes.submit(name, fn)
}

func (c *Coordinator) publish(t types.EventType, matchID string, data any) {
	evt := types.Event{
		ID:        uuid.NewString(),
		Type:      t,
		MatchID:   matchID,
		Data:      data,
		Timestamp: c.now(),
	}
	c.events.submit("broadcast."+string(t), func(ctx context.Context) error {
		return c.bus.Publish(ctx, evt)
	})
}

// call sends a request to the loop and waits for its reply.
func call[T any](ctx context.Context, c *Coordinator, build func(chan result[T]) Msg) (T, error) {
	var zero T
	reply := make(chan result[T], 1)
	select {
	case c.inbox <- build(reply):
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.done:
		return zero, ErrClosed
	}
	select {
	case r := <-reply:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.done:
		return zero, ErrClosed
	}
}
