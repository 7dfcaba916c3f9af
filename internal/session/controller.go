// Package session owns the analysis request lifecycle: it resolves the
// query, runs one outbound call per submission and publishes every state
// transition to subscribed views.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// ErrSuperseded is returned by SubmitAndWait when a newer submission
// replaced the one being waited on.
var ErrSuperseded = errors.New("submission superseded by a newer one")

// ErrClosed is returned by SubmitAndWait after Close.
var ErrClosed = errors.New("session closed")

// Analyzer performs one analysis call. A *models.ServiceError marks a
// failure reported by the engine; any other error is treated as the engine
// being unreachable.
type Analyzer interface {
	Analyze(ctx context.Context, query string) (*models.AnalysisResult, error)
}

const (
	DefaultTimeout     = 90 * time.Second
	DefaultScrollDelay = 200 * time.Millisecond
)

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds every outbound call.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithScrollDelay sets the settle delay between a success and the
// scroll_to_results event.
func WithScrollDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.scrollDelay = d
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// call tracks one in-flight submission.
type call struct {
	sub    Submission
	cancel context.CancelFunc
	done   chan struct{}
	final  State
	stale  bool
}

// Controller is the single authoritative holder of the request state.
// All methods are safe for concurrent use.
type Controller struct {
	analyzer    Analyzer
	timeout     time.Duration
	scrollDelay time.Duration
	logger      *log.Logger

	base context.Context
	stop context.CancelFunc

	mu          sync.Mutex
	query       string
	state       State
	seq         uint64
	inflight    *call
	scrollTimer *time.Timer
	subs        map[uint64]chan Event
	nextSubID   uint64
	closed      bool
}

// NewController creates a controller in the Idle state.
func NewController(analyzer Analyzer, opts ...Option) *Controller {
	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		analyzer:    analyzer,
		timeout:     DefaultTimeout,
		scrollDelay: DefaultScrollDelay,
		logger:      &log.DefaultLogger,
		base:        base,
		stop:        stop,
		state:       State{Status: Idle, UpdatedAt: time.Now()},
		subs:        make(map[uint64]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetQuery replaces the held free-text query.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

// Query returns the held free-text query as typed.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// State returns the current state snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit resolves the ticker from override, falling back to the held query,
// and starts one analysis call. A blank ticker is ignored and reports false.
// The transition to Pending is visible to State before Submit returns; any
// older in-flight call is cancelled and its late response discarded.
func (c *Controller) Submit(override string) (Submission, bool) {
	cl := c.submit(override)
	if cl == nil {
		return Submission{}, false
	}
	return cl.sub, true
}

// SubmitAndWait submits and blocks until that submission finishes, the
// submission is superseded, or ctx is done.
func (c *Controller) SubmitAndWait(ctx context.Context, override string) (State, error) {
	cl := c.submit(override)
	if cl == nil {
		if c.isClosed() {
			return c.State(), ErrClosed
		}
		return c.State(), nil
	}

	select {
	case <-cl.done:
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cl.final, ErrClosed
	}
	if cl.stale {
		return c.state, ErrSuperseded
	}
	return cl.final, nil
}

func (c *Controller) submit(override string) *call {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	ticker := resolveTicker(override, c.query)
	if ticker == "" {
		return nil
	}

	if c.inflight != nil {
		c.inflight.cancel()
		c.inflight = nil
	}
	if c.scrollTimer != nil {
		c.scrollTimer.Stop()
		c.scrollTimer = nil
	}

	c.seq++
	ctx, cancel := context.WithCancel(c.base)
	cl := &call{
		sub: Submission{
			ID:     uuid.NewString(),
			Seq:    c.seq,
			Ticker: ticker,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.inflight = cl

	c.setStateLocked(State{
		Status:       Pending,
		Seq:          cl.sub.Seq,
		SubmissionID: cl.sub.ID,
		Ticker:       ticker,
	})

	c.logger.Info().
		Str("ticker", ticker).
		Uint64("seq", cl.sub.Seq).
		Str("submission", cl.sub.ID).
		Msg("analysis submitted")

	go c.run(ctx, cl)
	return cl
}

func resolveTicker(override, held string) string {
	if t := strings.TrimSpace(override); t != "" {
		return t
	}
	return strings.TrimSpace(held)
}

func (c *Controller) run(ctx context.Context, cl *call) {
	defer close(cl.done)
	defer cl.cancel()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.analyzer.Analyze(callCtx, cl.sub.Ticker)
	next := c.outcome(cl.sub, result, err)

	c.mu.Lock()
	defer c.mu.Unlock()

	cl.final = next
	if c.closed || c.seq != cl.sub.Seq {
		cl.stale = true
		c.logger.Debug().
			Str("ticker", cl.sub.Ticker).
			Uint64("seq", cl.sub.Seq).
			Uint64("latest", c.seq).
			Msg("discarding stale response")
		return
	}

	c.inflight = nil
	c.setStateLocked(next)

	c.logger.Info().
		Str("ticker", cl.sub.Ticker).
		Uint64("seq", cl.sub.Seq).
		Str("status", next.Status.String()).
		Dur("elapsed", time.Since(start)).
		Msg("analysis finished")

	if next.Status == Succeeded {
		seq := cl.sub.Seq
		c.scrollTimer = time.AfterFunc(c.scrollDelay, func() { c.emitScroll(seq) })
	}
}

// outcome classifies the result of one call into a terminal state.
func (c *Controller) outcome(sub Submission, result *models.AnalysisResult, err error) State {
	next := State{
		Seq:          sub.Seq,
		SubmissionID: sub.ID,
		Ticker:       sub.Ticker,
	}

	var svcErr *models.ServiceError
	switch {
	case err == nil && result != nil:
		next.Status = Succeeded
		next.Result = result
	case errors.As(err, &svcErr):
		next.Status = Failed
		next.Message = svcErr.Message
		next.Failure = FailureServerReported
	default:
		if err == nil {
			err = errors.New("empty analysis result")
		}
		next.Status = Failed
		next.Message = UnreachableMessage
		next.Failure = FailureUnreachable
		c.logger.Warn().
			Err(err).
			Str("ticker", sub.Ticker).
			Uint64("seq", sub.Seq).
			Msg("analysis engine unreachable")
	}
	return next
}

func (c *Controller) emitScroll(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state.Seq != seq || c.state.Status != Succeeded {
		return
	}
	c.scrollTimer = nil
	c.broadcastLocked(Event{Kind: EventScrollToResults, State: c.state})
}

func (c *Controller) setStateLocked(s State) {
	s.UpdatedAt = time.Now()
	c.state = s
	c.broadcastLocked(Event{Kind: EventStateChanged, State: s})
}

// broadcastLocked delivers ev to every subscriber without blocking.
// Subscribers whose buffer is full miss the event.
func (c *Controller) broadcastLocked(ev Event) {
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Debug().Uint64("subscriber", id).Str("event", string(ev.Kind)).Msg("subscriber buffer full, event dropped")
		}
	}
}

// Subscribe registers for events. The returned cancel function unregisters
// and closes the channel; it is safe to call more than once. After Close
// the channel is returned already closed.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	c.nextSubID++
	id := c.nextSubID
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close cancels any in-flight call, stops the pending scroll event and
// closes every subscription. Further submits are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stop()
	if c.scrollTimer != nil {
		c.scrollTimer.Stop()
		c.scrollTimer = nil
	}
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
