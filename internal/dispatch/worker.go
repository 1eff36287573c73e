// Package dispatch runs one queue-and-worker pair per active plugin.
// Acquisition hands each reading to every eligible worker through Offer;
// results come back on a shared completions channel. Admission depends on
// the plugin's blocking mode: free-running plugins get a bounded queue
// that drops the oldest reading, self-blocking plugins run one request at
// a time with later readings queued behind the outstanding one, and
// host-blocking plugins stall the acquisition caller for at most the
// configured timeout before a synthetic empty response is substituted.
package dispatch

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spectral-works/prism/internal/adapter"
	"github.com/spectral-works/prism/internal/log"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
)

const (
	// DefaultHostTimeout is how long a host-blocking plugin may stall
	// acquisition before an empty response is substituted.
	DefaultHostTimeout = 1 * time.Second

	// DefaultQueueDepth bounds the request queue of a free-running plugin.
	DefaultQueueDepth = 8

	// DefaultFailureLimit is how many consecutive submit faults a plugin
	// survives before its worker deactivates it.
	DefaultFailureLimit = 3

	// DefaultDisconnectGrace is how long teardown waits for a plugin's
	// Disconnect before giving up on it.
	DefaultDisconnectGrace = 2 * time.Second
)

// Options tune a single worker. Zero values take the defaults above.
type Options struct {
	QueueDepth      int
	FailureLimit    int
	HostTimeout     time.Duration
	DisconnectGrace time.Duration

	// OnDeactivate, when set, is notified once with the reason the worker
	// stopped, whether the host asked or the worker pulled the plug itself.
	OnDeactivate func(reason string)

	// OnDrop, when set, is notified when a finished completion could not
	// be handed to the completions channel within HostTimeout. The request
	// id will never reach the merger.
	OnDrop func(requestID int64)
}

func (o Options) withDefaults() Options {
	if o.QueueDepth <= 0 {
		o.QueueDepth = DefaultQueueDepth
	}
	if o.FailureLimit <= 0 {
		o.FailureLimit = DefaultFailureLimit
	}
	if o.HostTimeout <= 0 {
		o.HostTimeout = DefaultHostTimeout
	}
	if o.DisconnectGrace <= 0 {
		o.DisconnectGrace = DefaultDisconnectGrace
	}
	return o
}

// Completion is one finished request. Exactly one Completion is emitted
// per accepted request: the plugin's real response, or a synthetic empty
// one when the request timed out, was dropped unexecuted, or faulted.
type Completion struct {
	Plugin    string
	RequestID int64
	Response  *protocol.Response
	Err       error
	TimedOut  bool
	Elapsed   time.Duration
}

// item is one queued request. settled arbitrates between the worker
// delivering the real response and a host-blocking Offer timing out;
// whichever side wins the swap emits the completion.
type item struct {
	req     *protocol.Request
	done    chan struct{} // non-nil for host-blocking requests
	settled atomic.Bool
}

func (it *item) settle() bool { return it.settled.CompareAndSwap(false, true) }

// Worker owns the request queue and dispatch goroutine for one plugin
// instance. Offer is called from the acquisition context; everything else
// that touches the plugin happens on the worker goroutine.
type Worker struct {
	adapter     *adapter.Adapter
	mode        plugin.BlockingMode
	completions chan<- Completion
	opts        Options
	logger      *slog.Logger

	mu     sync.Mutex
	queue  []*item
	closed bool

	failures int
	wake     chan struct{}
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewWorker wires a worker to an adapter. Start must be called before the
// first Offer.
func NewWorker(a *adapter.Adapter, completions chan<- Completion, opts Options) *Worker {
	mode := plugin.BlockingNone
	if cfg := a.Config(); cfg != nil {
		mode = cfg.Blocking
	}
	return &Worker{
		adapter:     a,
		mode:        mode,
		completions: completions,
		opts:        opts.withDefaults(),
		logger:      log.WithPlugin(a.Name()).With("component", "dispatch"),
		wake:        make(chan struct{}, 1),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Mode returns the blocking mode the worker dispatches under.
func (w *Worker) Mode() plugin.BlockingMode { return w.mode }

// Start marks the adapter active and launches the dispatch goroutine.
func (w *Worker) Start() error {
	if err := w.adapter.Activate(); err != nil {
		return err
	}
	go w.run()
	w.logger.Info("worker started", "mode", string(w.mode))
	return nil
}

// Offer hands one reading to the worker. It never blocks for free-running
// or self-blocking plugins; for a host-blocking plugin it waits up to
// HostTimeout for the response, then substitutes a synthetic empty one
// and abandons the call. The return value reports whether the request was
// admitted to the queue.
func (w *Worker) Offer(req *protocol.Request) bool {
	switch w.mode {
	case plugin.BlockingHost:
		return w.offerHostBlocking(req)
	case plugin.BlockingPlugin:
		return w.offerSelfBlocking(req)
	default:
		return w.offerFreeRunning(req)
	}
}

func (w *Worker) offerFreeRunning(req *protocol.Request) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	var dropped *item
	if len(w.queue) >= w.opts.QueueDepth {
		dropped = w.queue[0]
		w.queue = w.queue[1:]
	}
	w.queue = append(w.queue, &item{req: req})
	w.mu.Unlock()

	if dropped != nil {
		w.logger.Debug("queue full, dropped oldest reading", "request_id", dropped.req.RequestID)
		w.emit(Completion{
			Plugin:    w.adapter.Name(),
			RequestID: dropped.req.RequestID,
			Response:  protocol.Empty(dropped.req.RequestID),
		})
	}
	w.signal()
	return true
}

// offerSelfBlocking admits readings in arrival order behind whatever is in
// flight. Admitted requests are never displaced; once the queue is full new
// readings are declined at the door instead.
func (w *Worker) offerSelfBlocking(req *protocol.Request) bool {
	w.mu.Lock()
	if w.closed || len(w.queue) >= w.opts.QueueDepth {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, &item{req: req})
	w.mu.Unlock()

	w.signal()
	return true
}

func (w *Worker) offerHostBlocking(req *protocol.Request) bool {
	it := &item{req: req, done: make(chan struct{})}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, it)
	w.mu.Unlock()
	w.signal()

	timer := time.NewTimer(w.opts.HostTimeout)
	defer timer.Stop()

	select {
	case <-it.done:
		return true
	case <-timer.C:
		if !it.settle() {
			// The worker won the race; its completion is on the way.
			<-it.done
			return true
		}
		w.logger.Warn("host-blocking plugin exceeded timeout, substituting empty response",
			"request_id", req.RequestID, "timeout", w.opts.HostTimeout)
		w.emit(Completion{
			Plugin:    w.adapter.Name(),
			RequestID: req.RequestID,
			Response:  protocol.Empty(req.RequestID),
			TimedOut:  true,
		})
		return true
	}
}

// Deactivate stops admission, discards anything still queued, and tears
// the plugin down. Safe to call more than once; only the first call acts.
func (w *Worker) Deactivate(reason string) {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		pending := w.queue
		w.queue = nil
		w.mu.Unlock()

		close(w.quit)
		<-w.stopped

		if len(pending) > 0 {
			w.logger.Info("discarding queued requests", "count", len(pending), "reason", reason)
		}
		for _, it := range pending {
			w.release(it, Completion{
				Plugin:    w.adapter.Name(),
				RequestID: it.req.RequestID,
				Response:  protocol.Empty(it.req.RequestID),
			})
		}

		w.logger.Info("worker deactivated", "reason", reason)
		if w.opts.OnDeactivate != nil {
			w.opts.OnDeactivate(reason)
		}
		w.disconnect()
	})
}

// disconnect runs the plugin's teardown off to the side so a hung
// Disconnect cannot stall host shutdown past the grace period.
func (w *Worker) disconnect() {
	done := make(chan struct{})
	go func() {
		w.adapter.Disconnect()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.opts.DisconnectGrace):
		w.logger.Warn("disconnect did not return within grace period",
			"grace", w.opts.DisconnectGrace)
	}
}

func (w *Worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) run() {
	defer close(w.stopped)
	for {
		it := w.next()
		if it == nil {
			return
		}
		w.execute(it)
	}
}

// next blocks until a request is queued or the worker is told to stop.
func (w *Worker) next() *item {
	for {
		w.mu.Lock()
		if len(w.queue) > 0 {
			it := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()
			return it
		}
		w.mu.Unlock()

		select {
		case <-w.quit:
			return nil
		case <-w.wake:
		}
	}
}

func (w *Worker) execute(it *item) {
	start := time.Now()
	resp, err := w.adapter.Submit(it.req)
	elapsed := time.Since(start)

	comp := Completion{
		Plugin:    w.adapter.Name(),
		RequestID: it.req.RequestID,
		Response:  resp,
		Err:       err,
		Elapsed:   elapsed,
	}
	if err != nil {
		comp.Response = protocol.Empty(it.req.RequestID)
		w.logger.Error("submit failed", "request_id", it.req.RequestID, "error", err)
	}
	w.release(it, comp)

	w.trackFailures(err)
}

// release delivers one completion, respecting a host-blocking Offer that
// may already have substituted an empty response for this request.
func (w *Worker) release(it *item, comp Completion) {
	if it.done == nil {
		w.emit(comp)
		return
	}
	if !it.settle() {
		// The Offer timed out and already emitted an empty response for
		// this request id. The real result arrives too late to use.
		w.logger.Warn("orphaned completion from timed-out request",
			"request_id", it.req.RequestID, "elapsed", comp.Elapsed)
		return
	}
	w.emit(comp)
	close(it.done)
}

func (w *Worker) emit(comp Completion) {
	select {
	case w.completions <- comp:
	case <-time.After(w.opts.HostTimeout):
		w.logger.Error("completion channel stalled, dropping result",
			"request_id", comp.RequestID)
		if w.opts.OnDrop != nil {
			w.opts.OnDrop(comp.RequestID)
		}
	}
}

// trackFailures deactivates the plugin after a crash or too many
// consecutive faults. A clean submit resets the count.
func (w *Worker) trackFailures(err error) {
	if err == nil {
		w.failures = 0
		return
	}

	w.failures++
	if fault, ok := err.(*adapter.ProcessingFault); ok && fault.Crashed {
		go w.Deactivate("plugin crashed")
		return
	}
	if w.failures >= w.opts.FailureLimit {
		go w.Deactivate("consecutive failure limit reached")
	}
}
