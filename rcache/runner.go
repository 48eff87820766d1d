package rcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/channelqueue"
	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"

	"github.com/sashell/go-libsap/saobject"
)

var log = logging.Logger("rcache")

// Status is a point-in-time copy of the runner's run metadata.
type Status struct {
	// LastStartedAt is when the most recent fetch cycle began. Zero if no
	// cycle has run.
	LastStartedAt time.Time
	// LastCompletedAt is when the most recent fetch cycle finished,
	// whether it succeeded or failed. Zero if no cycle has finished.
	LastCompletedAt time.Time
	// LastError is the "kind: message" diagnostic of the most recent
	// failed cycle. Empty after a successful cycle.
	LastError string
	// InFlight reports whether a fetch cycle is currently executing.
	InFlight bool
	// IsRunning reports whether the interval loop is alive.
	IsRunning bool
	// Interval is the configured wait between cycles.
	Interval time.Duration
	// FetchTimeout is the configured bound on a cycle's fetch. Zero means
	// unbounded.
	FetchTimeout time.Duration
}

// RefreshDone notifies an OnRefreshDone reader that a fetch cycle
// finished. Err is nil when the cycle published a new snapshot.
type RefreshDone struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Count       int
	Err         error
}

// snapshot is the immutable published result of a fetch cycle. It is
// replaced wholesale, never mutated in place.
type snapshot struct {
	objects []map[string]any
}

// Runner owns the interval loop that refreshes the cache from its
// sources. All methods are safe for concurrent use.
type Runner struct {
	sources        []Source
	interval       time.Duration
	fetchTimeout   time.Duration
	runImmediately bool

	read atomic.Pointer[snapshot]

	// statusMutex guards the run metadata. The in-flight flag and the
	// snapshot swap flip under the same critical section.
	statusMutex   sync.Mutex
	inFlight      bool
	lastStarted   time.Time
	lastCompleted time.Time
	lastError     string

	loopMutex sync.Mutex
	stopCh    chan struct{}
	doneCh    chan struct{}

	evtMutex sync.Mutex
	evtChans []chan<- RefreshDone
}

// New creates a new record cache runner. At least one source is required.
// The loop does not run until Start is called, but RunNow may be used on
// an unstarted runner.
func New(options ...Option) (*Runner, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	if len(opts.sources) == 0 {
		return nil, errors.New("no record sources")
	}
	return &Runner{
		sources:        opts.sources,
		interval:       opts.interval,
		fetchTimeout:   opts.fetchTimeout,
		runImmediately: opts.runImmediately,
	}, nil
}

// Start launches the interval loop. It is a no-op if the loop is already
// running. A stopped runner may be started again.
func (r *Runner) Start() {
	r.loopMutex.Lock()
	defer r.loopMutex.Unlock()
	if r.doneCh != nil {
		select {
		case <-r.doneCh:
			// Previous loop exited, start a new one.
		default:
			return
		}
	}
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	go r.run(r.stopCh, r.doneCh)
}

// Stop signals the loop to exit at its next wait boundary and waits up to
// timeout for it to finish. A fetch cycle already in progress is not
// interrupted. A non-positive timeout waits indefinitely. Stop reports
// whether the loop had exited before the wait ended.
func (r *Runner) Stop(timeout time.Duration) bool {
	r.loopMutex.Lock()
	stopCh, doneCh := r.stopCh, r.doneCh
	if stopCh != nil {
		select {
		case <-stopCh:
		default:
			close(stopCh)
		}
	}
	r.loopMutex.Unlock()

	if doneCh == nil {
		return true
	}
	if timeout <= 0 {
		<-doneCh
		return true
	}
	select {
	case <-doneCh:
		return true
	case <-time.After(timeout):
		log.Warnw("Timed out waiting for interval loop to exit", "timeout", timeout)
		return false
	}
}

// IsRunning reports whether the interval loop is alive.
func (r *Runner) IsRunning() bool {
	r.loopMutex.Lock()
	defer r.loopMutex.Unlock()
	if r.doneCh == nil {
		return false
	}
	select {
	case <-r.doneCh:
		return false
	default:
		return true
	}
}

// RunNow triggers a fetch cycle outside the regular interval. When
// blocking is false the cycle runs on its own goroutine and RunNow
// returns immediately. If a cycle is already in flight the trigger is
// dropped, not queued.
func (r *Runner) RunNow(blocking bool) {
	if blocking {
		r.runOnce()
		return
	}
	go r.runOnce()
}

// Cached returns the currently published snapshot in canonical form. The
// snapshot is immutable; it remains valid across later refreshes and must
// not be modified by the caller.
func (r *Runner) Cached() []map[string]any {
	if s := r.read.Load(); s != nil {
		return s.objects
	}
	return nil
}

// Count returns the number of objects in the published snapshot.
func (r *Runner) Count() int {
	return len(r.Cached())
}

// Status returns a consistent copy of the runner's run metadata.
func (r *Runner) Status() Status {
	running := r.IsRunning()
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	return Status{
		LastStartedAt:   r.lastStarted,
		LastCompletedAt: r.lastCompleted,
		LastError:       r.lastError,
		InFlight:        r.inFlight,
		IsRunning:       running,
		Interval:        r.interval,
		FetchTimeout:    r.fetchTimeout,
	}
}

// OnRefreshDone creates a channel that receives an event at the end of
// every fetch cycle, successful or not, and adds that channel to the list
// of notification channels.
//
// Calling the returned cancel function removes the notification channel
// from the list and closes it, allowing any reading goroutine to stop
// waiting on the channel.
func (r *Runner) OnRefreshDone() (<-chan RefreshDone, context.CancelFunc) {
	// The channel is backed by an unbounded queue so that a slow reader
	// cannot stall a fetch cycle.
	cq := channelqueue.New[RefreshDone](-1)
	in := cq.In()

	r.evtMutex.Lock()
	r.evtChans = append(r.evtChans, in)
	r.evtMutex.Unlock()

	cancel := func() {
		r.evtMutex.Lock()
		defer r.evtMutex.Unlock()
		for i, ch := range r.evtChans {
			if ch == in {
				r.evtChans[i] = r.evtChans[len(r.evtChans)-1]
				r.evtChans[len(r.evtChans)-1] = nil
				r.evtChans = r.evtChans[:len(r.evtChans)-1]
				close(ch)
				return
			}
		}
	}
	return cq.Out(), cancel
}

func (r *Runner) notify(ev RefreshDone) {
	r.evtMutex.Lock()
	defer r.evtMutex.Unlock()
	for _, ch := range r.evtChans {
		ch <- ev
	}
}

// run is the interval loop. It exits when stopCh closes; a close during
// the inter-cycle wait takes effect immediately.
func (r *Runner) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	log.Infow("Interval runner started", "interval", r.interval, "fetchTimeout", r.fetchTimeout)

	if r.runImmediately {
		r.runOnce()
	}

	timer := time.NewTimer(r.interval)
	defer timer.Stop()
	for {
		select {
		case <-stopCh:
			log.Info("Interval runner stopped")
			return
		case <-timer.C:
		}
		r.runOnce()
		timer.Reset(r.interval)
	}
}

// runOnce executes one fetch cycle. It declines silently if another cycle
// holds the in-flight flag.
func (r *Runner) runOnce() {
	r.statusMutex.Lock()
	if r.inFlight {
		r.statusMutex.Unlock()
		log.Debug("Fetch cycle already in flight, skipping trigger")
		return
	}
	r.inFlight = true
	started := time.Now()
	r.lastStarted = started
	r.statusMutex.Unlock()

	objects, err := r.fetch()
	completed := time.Now()

	r.statusMutex.Lock()
	if err != nil {
		// Keep the previous snapshot; stale data beats no data.
		r.lastError = err.Error()
		log.Errorw("Fetch cycle failed", "err", err)
	} else {
		r.read.Store(&snapshot{objects: objects})
		r.lastError = ""
		log.Debugw("Fetch cycle completed", "count", len(objects), "elapsed", completed.Sub(started).String())
	}
	r.lastCompleted = completed
	r.inFlight = false
	r.statusMutex.Unlock()

	r.notify(RefreshDone{
		StartedAt:   started,
		CompletedAt: completed,
		Count:       len(objects),
		Err:         err,
	})
}

// fetch runs the sources on a worker goroutine so the wait can be
// bounded. On timeout the worker is abandoned: its context is canceled,
// and the result it may eventually produce is dropped with the buffered
// channel. A late result never wins against a later cycle.
func (r *Runner) fetch() ([]map[string]any, error) {
	type result struct {
		raw []any
		err error
	}

	ctx := context.Background()
	var timeoutCh <-chan time.Time
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
		timer := time.NewTimer(r.fetchTimeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	resCh := make(chan result, 1)
	go func() {
		var raw []any
		var errs error
		for _, src := range r.sources {
			items, err := src.Fetch(ctx)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("source %s: %w", src, err))
				continue
			}
			raw = append(raw, items...)
		}
		resCh <- result{raw: raw, err: errs}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			return nil, &CycleError{Kind: KindFetch, Err: res.err}
		}
		return r.pipeline(res.raw)
	case <-timeoutCh:
		return nil, &CycleError{Kind: KindTimeout, Err: fmt.Errorf("fetch exceeded %s", r.fetchTimeout)}
	}
}

// pipeline coerces raw items to JSON objects, then normalizes and
// deduplicates the batch.
func (r *Runner) pipeline(raw []any) ([]map[string]any, error) {
	objs := make([]map[string]any, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case map[string]any:
			objs[i] = v
		case interface{ ToJSON() map[string]any }:
			objs[i] = v.ToJSON()
		default:
			return nil, &CycleError{
				Kind: KindSchema,
				Err:  fmt.Errorf("objects[%d] must be a JSON object or provide ToJSON, got %T", i, item),
			}
		}
	}
	normalized, err := saobject.Normalize(objs)
	if err != nil {
		return nil, &CycleError{Kind: KindSchema, Err: err}
	}
	return saobject.Deduplicate(normalized), nil
}
