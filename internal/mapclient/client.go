package mapclient

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Tuning defaults. Empirically chosen values, adjustable per instance
// through Options.
const (
	DefaultCenterThreshold = 0.001 // degrees
	DefaultZoomThreshold   = 1     // full levels
	DefaultMaxRetries      = 2
	DefaultRetryBackoff    = time.Second
	DefaultErrorTTL        = 5 * time.Second
)

// Options configures a Client. Zero-valued fields take the defaults
// noted on each field.
type Options struct {
	// Fetcher performs the network call. Required.
	Fetcher Fetcher
	// OnResult receives every accepted (non-stale) successful result,
	// in sequence order. Called with the client's lock held; it must
	// not call back into the Client synchronously.
	OnResult func(Result)
	// Sink receives lifecycle signals, under the same lock and
	// re-entrancy rule as OnResult. Defaults to NopSink.
	Sink StatusSink
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Interval is the minimum spacing between sends. Use IntervalFor to
	// derive it from the environment. Defaults to 200ms.
	Interval time.Duration
	// CenterThreshold is the minimum center movement in degrees for a
	// non-forced refresh to be considered significant.
	CenterThreshold float64
	// ZoomThreshold is the minimum zoom-level change for a non-forced
	// refresh to be considered significant.
	ZoomThreshold int
	// MaxRetries caps connectivity retries per logical query.
	MaxRetries int
	// RetryBackoff is the delay unit; attempt n waits n × RetryBackoff.
	RetryBackoff time.Duration
	// ErrorTTL auto-dismisses the error banner.
	ErrorTTL time.Duration
}

// Client is the viewport query dispatcher. All state transitions
// happen under one mutex; suspension (timers, network completion) runs
// on separate goroutines that re-acquire it and re-validate sequence
// numbers before mutating anything.
type Client struct {
	opts   Options
	sink   StatusSink
	logger *slog.Logger

	mu sync.Mutex

	// seq is the sequence number of the most recently issued request;
	// only the response carrying it is ever applied.
	seq        uint64
	lastSentAt time.Time

	// last sent viewport, for the significance check
	haveLast bool
	lastLat  float64
	lastLon  float64
	lastZoom int

	// coalescing queue, depth 0 or 1
	queued     *ViewportQuery
	queueTimer *time.Timer

	inflightCancel context.CancelFunc

	// retry state, scoped to the current logical query
	attempt    int
	retryTimer *time.Timer

	errTimer *time.Timer
	closed   bool
}

// New creates a Client. opts.Fetcher must be set.
func New(opts Options) *Client {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.CenterThreshold <= 0 {
		opts.CenterThreshold = DefaultCenterThreshold
	}
	if opts.ZoomThreshold <= 0 {
		opts.ZoomThreshold = DefaultZoomThreshold
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = DefaultErrorTTL
	}
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{opts: opts, sink: sink, logger: logger}
}

// Dispatch is called whenever the map viewport changes or a filter is
// applied. Insignificant movement is dropped; rapid calls are
// coalesced so at most one request per interval is sent, carrying the
// latest parameters. force (and q.IsInitialLoad) bypasses both the
// significance check and the throttle.
func (c *Client) Dispatch(q ViewportQuery, force bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	bypass := force || q.IsInitialLoad

	if !bypass && c.haveLast {
		lat, lon := q.Bounds.Center()
		if math.Abs(lat-c.lastLat) < c.opts.CenterThreshold &&
			math.Abs(lon-c.lastLon) < c.opts.CenterThreshold &&
			absInt(q.Zoom-c.lastZoom) < c.opts.ZoomThreshold {
			return
		}
	}

	if !bypass {
		elapsed := time.Since(c.lastSentAt)
		if elapsed < c.opts.Interval {
			// Overwrite any queued params; the last arrival in the
			// window wins.
			qq := q
			c.queued = &qq
			if c.queueTimer == nil {
				c.queueTimer = time.AfterFunc(c.opts.Interval-elapsed, c.fireQueued)
			}
			return
		}
	}

	c.sendLocked(q)
}

// fireQueued runs when the throttle window closes. It re-enters
// Dispatch so the dequeued params go through the normal path.
func (c *Client) fireQueued() {
	c.mu.Lock()
	c.queueTimer = nil
	q := c.queued
	c.queued = nil
	closed := c.closed
	c.mu.Unlock()

	if q == nil || closed {
		return
	}
	c.Dispatch(*q, false)
}

// sendLocked starts a new logical query: the retry counter resets and
// any queued params are superseded. Caller holds c.mu.
func (c *Client) sendLocked(q ViewportQuery) {
	c.attempt = 0
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.queued = nil
	c.issueLocked(q)
}

// issueLocked cancels any in-flight request and sends q with a fresh
// sequence number. Used for both first sends and retries. Caller
// holds c.mu.
func (c *Client) issueLocked(q ViewportQuery) {
	if c.inflightCancel != nil {
		c.inflightCancel()
		c.inflightCancel = nil
	}

	c.seq++
	seq := c.seq
	c.lastSentAt = time.Now()
	c.lastLat, c.lastLon = q.Bounds.Center()
	c.lastZoom = q.Zoom
	c.haveLast = true

	ctx, cancel := context.WithCancel(context.Background())
	c.inflightCancel = cancel

	c.sink.ShowLoading()

	go func() {
		res, err := c.opts.Fetcher.Fetch(ctx, q, seq)
		c.settle(ctx, q, seq, res, err)
	}()
}

// settle processes a completed fetch. Responses whose sequence number
// is no longer the latest issued are dropped with no state mutation
// and no UI update.
func (c *Client) settle(ctx context.Context, q ViewportQuery, seq uint64, res *Result, err error) {
	c.mu.Lock()

	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.inflightCancel = nil

	if err == nil {
		c.attempt = 0
		// Delivered under the lock: a newer dispatch cannot interleave
		// between the sequence check and the UI update, so results are
		// applied strictly in sequence order.
		c.sink.HideLoading()
		if c.opts.OnResult != nil {
			c.opts.OnResult(*res)
		}
		c.mu.Unlock()
		return
	}

	// Aborted by a superseding dispatch or Close. Intentional, never
	// retried, no signal.
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		c.mu.Unlock()
		return
	}

	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		c.logger.Warn("viewport fetch rejected", "seq", seq, "status", srvErr.Status, "error", err)
		c.failLocked(srvErr.Message)
		return
	}

	// Connectivity-class failure: retry the same logical query with a
	// fresh sequence number after a linearly increasing delay.
	if c.attempt < c.opts.MaxRetries {
		c.attempt++
		delay := time.Duration(c.attempt) * c.opts.RetryBackoff
		c.logger.Warn("viewport fetch failed, scheduling retry",
			"seq", seq, "attempt", c.attempt, "delay", delay, "error", err)
		c.retryTimer = time.AfterFunc(delay, func() { c.retry(q, seq) })
		c.mu.Unlock()
		return
	}

	c.logger.Error("viewport fetch failed after retries", "seq", seq, "error", err)
	c.failLocked("")
}

// retry re-issues q unless a newer request was dispatched while the
// backoff timer ran.
func (c *Client) retry(q ViewportQuery, failedSeq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryTimer = nil
	if c.closed || c.seq != failedSeq {
		return
	}
	c.issueLocked(q)
}

// failLocked settles the current query as failed and raises the error
// banner, auto-dismissed after ErrorTTL. Caller holds c.mu; unlocks.
func (c *Client) failLocked(msg string) {
	c.attempt = 0
	if c.errTimer != nil {
		c.errTimer.Stop()
	}
	c.errTimer = time.AfterFunc(c.opts.ErrorTTL, c.sink.DismissError)

	if msg == "" {
		msg = "Unable to load listings. Please try again."
	}
	// Under the lock for the same ordering reason as the success path.
	c.sink.HideLoading()
	c.sink.ShowError(msg)
	c.mu.Unlock()
}

// Close cancels in-flight work and pending timers. The client accepts
// no further dispatches.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.inflightCancel != nil {
		c.inflightCancel()
		c.inflightCancel = nil
	}
	for _, t := range []*time.Timer{c.queueTimer, c.retryTimer, c.errTimer} {
		if t != nil {
			t.Stop()
		}
	}
	c.queueTimer, c.retryTimer, c.errTimer = nil, nil, nil
	c.queued = nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
