package condfmt

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"
)

// RecomputerOptions configures a Recomputer.
type RecomputerOptions struct {
	// Delay debounces requests. Zero evaluates right away.
	Delay time.Duration
	// Now returns the evaluation instant. Defaults to time.Now.
	Now func() time.Time
	// OnCommit is called, in commit order, with every overlay that becomes current.
	OnCommit func(gen uint64, ov Overlay)
	// Logger receives debug output. Nil discards it.
	Logger *logrus.Logger
}

// Recomputer runs overlay evaluations in the background. Each request gets
// a higher generation than the last, and a result is committed only if no
// newer request arrived while it was computed.
type Recomputer struct {
	opts RecomputerOptions
	log  *logrus.Logger

	gen atomic.Uint64

	mu        sync.Mutex
	committed uint64
	overlay   Overlay
	cancel    context.CancelFunc

	commitMu sync.Mutex
	wg       sync.WaitGroup
}

// NewRecomputer returns an idle Recomputer.
func NewRecomputer(opts RecomputerOptions) *Recomputer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Recomputer{opts: opts, log: log, overlay: newOverlay()}
}

// Request schedules an evaluation of src against rules and returns its
// generation. src and rules must not be mutated afterwards; pass a snapshot.
// A pending request is cancelled by the next one.
func (r *Recomputer) Request(src models.CellSource, rules []Rule) uint64 {
	gen := r.gen.Add(1)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		if r.opts.Delay > 0 {
			timer := time.NewTimer(r.opts.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if gen != r.gen.Load() {
			return
		}
		ov, err := EvaluateContext(ctx, src, rules, r.opts.Now())
		if err != nil {
			r.log.WithField("generation", gen).Debug("overlay evaluation superseded")
			return
		}
		r.commit(gen, ov)
	}()
	return gen
}

// Recompute evaluates synchronously and commits the result unless a newer
// request arrived meanwhile.
func (r *Recomputer) Recompute(ctx context.Context, src models.CellSource, rules []Rule) (Overlay, bool, error) {
	gen := r.gen.Add(1)
	ov, err := EvaluateContext(ctx, src, rules, r.opts.Now())
	if err != nil {
		return Overlay{}, false, err
	}
	return ov, r.commit(gen, ov), nil
}

// commit installs ov if gen is still the newest generation.
func (r *Recomputer) commit(gen uint64, ov Overlay) bool {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	r.mu.Lock()
	if committed := r.committed; gen != r.gen.Load() || gen <= committed {
		r.mu.Unlock()
		r.log.WithFields(logrus.Fields{"generation": gen, "committed": committed}).Debug("dropping stale overlay")
		return false
	}
	r.committed = gen
	r.overlay = ov
	r.mu.Unlock()

	if r.opts.OnCommit != nil {
		r.opts.OnCommit(gen, ov)
	}
	return true
}

// Overlay returns the current overlay and its generation.
func (r *Recomputer) Overlay() (Overlay, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlay, r.committed
}

// Generation returns the newest requested generation.
func (r *Recomputer) Generation() uint64 {
	return r.gen.Load()
}

// Wait blocks until every scheduled evaluation has finished or been dropped.
func (r *Recomputer) Wait() {
	r.wg.Wait()
}

// Close cancels any pending request and waits for it.
func (r *Recomputer) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
