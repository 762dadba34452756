package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/telemetry"
)

var ErrClosed = errors.New("dispatcher closed")

type Kind string

const (
	KindVerdict Kind = "verdict"
	KindPlan    Kind = "plan"
)

// Record is one audit event pushed to the backend sinks.
type Record struct {
	Kind      Kind                      `json:"kind"`
	VerdictID string                    `json:"verdict_id"`
	SessionID string                    `json:"session_id,omitempty"`
	Verdict   diagnostic.Verdict        `json:"verdict"`
	Plan      *diagnostic.GeneratedPlan `json:"plan,omitempty"`
	At        time.Time                 `json:"at"`
}

// Key identifies a record for deduplication.
func (r Record) Key() string {
	return r.VerdictID + "/" + string(r.Kind)
}

type Sink interface {
	Name() string
	Write(ctx context.Context, rec Record) error
}

type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// Task tracks one dispatch. Callers may drop it; the work runs either way.
type Task struct {
	Key string

	done       chan struct{}
	mu         sync.Mutex
	st         TaskState
	err        error
	finishedAt time.Time
}

func newTask(key string) *Task {
	return &Task{Key: key, done: make(chan struct{}), st: TaskPending}
}

func (t *Task) finish(err error, at time.Time) {
	t.mu.Lock()
	t.err = err
	t.finishedAt = at
	if err != nil {
		t.st = TaskFailed
	} else {
		t.st = TaskSucceeded
	}
	t.mu.Unlock()
	close(t.done)
}

func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}

func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// expired reports whether the task finished before cutoff.
func (t *Task) expired(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st != TaskPending && t.finishedAt.Before(cutoff)
}

type Options struct {
	Timeout time.Duration
	// Retention is how long a finished key keeps deduplicating. Defaults to
	// one hour.
	Retention  time.Duration
	OnComplete func(rec Record, err error, elapsed time.Duration)
}

// Dispatcher sends each record at most once within the retention window. A
// key that was already dispatched returns the original task; failures are
// not retried.
type Dispatcher struct {
	sinks []Sink
	opts  Options
	now   func() time.Time

	mu        sync.Mutex
	tasks     map[string]*Task
	lastSweep time.Time
	closed    bool
	wg        sync.WaitGroup
}

func NewDispatcher(opts Options, sinks ...Sink) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	return &Dispatcher{sinks: sinks, opts: opts, now: time.Now, tasks: make(map[string]*Task)}
}

// sweepLocked drops finished tasks older than the retention window. It runs
// at most once per quarter window.
func (d *Dispatcher) sweepLocked(now time.Time) {
	if now.Sub(d.lastSweep) < d.opts.Retention/4 {
		return
	}
	d.lastSweep = now
	cutoff := now.Add(-d.opts.Retention)
	for key, t := range d.tasks {
		if t.expired(cutoff) {
			delete(d.tasks, key)
		}
	}
}

func (d *Dispatcher) Dispatch(rec Record) *Task {
	key := rec.Key()
	d.mu.Lock()
	d.sweepLocked(d.now())
	if t, ok := d.tasks[key]; ok {
		d.mu.Unlock()
		return t
	}
	t := newTask(key)
	if d.closed {
		d.mu.Unlock()
		t.finish(ErrClosed, d.now())
		return t
	}
	d.tasks[key] = t
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		started := time.Now()
		err := d.run(rec)
		t.finish(err, d.now())
		if d.opts.OnComplete != nil {
			d.opts.OnComplete(rec, err, time.Since(started))
		}
	}()
	return t
}

// Lookup returns the task for a key if one was dispatched and has not aged
// out of the retention window.
func (d *Dispatcher) Lookup(key string) (*Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tasks[key]
	return t, ok
}

func (d *Dispatcher) run(rec Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "syncer.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("audit.verdict_id", rec.VerdictID),
		attribute.String("audit.kind", string(rec.Kind)),
	)

	var errs []error
	for _, s := range d.sinks {
		if err := s.Write(ctx, rec); err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Str("key", rec.Key()).Msg("audit sync failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		log.Debug().Str("sink", s.Name()).Str("key", rec.Key()).Msg("audit synced")
	}
	err := errors.Join(errs...)
	telemetry.RecordSpanError(span, err)
	return err
}

// Close stops new dispatches and waits for in-flight tasks.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
