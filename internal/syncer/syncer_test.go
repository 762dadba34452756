package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
)

type countingSink struct {
	name  string
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (s *countingSink) Name() string { return s.name }

func (s *countingSink) Write(ctx context.Context, _ Record) error {
	s.calls.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func sampleRecord(id string) Record {
	return Record{
		Kind:      KindVerdict,
		VerdictID: id,
		Verdict:   diagnostic.BuildVerdict(diagnostic.AuditMetrics{}, diagnostic.GoalData{}),
		At:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func waitTask(t *testing.T, task *Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	select {
	case <-task.Done():
		return task.Err()
	case <-ctx.Done():
		t.Fatal("task did not finish")
		return nil
	}
}

func TestDispatchAtMostOnce(t *testing.T) {
	sink := &countingSink{name: "count"}
	d := NewDispatcher(Options{}, sink)
	first := d.Dispatch(sampleRecord("v-1"))
	second := d.Dispatch(sampleRecord("v-1"))
	if first != second {
		t.Fatal("expected duplicate dispatch to return the original task")
	}
	if err := waitTask(t, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = d.Dispatch(sampleRecord("v-1"))
	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := sink.calls.Load(); got != 1 {
		t.Fatalf("expected one write, got %d", got)
	}
	if first.State() != TaskSucceeded {
		t.Fatalf("unexpected state: %s", first.State())
	}
}

func TestDispatchDistinctKinds(t *testing.T) {
	sink := &countingSink{name: "count"}
	d := NewDispatcher(Options{}, sink)
	rec := sampleRecord("v-2")
	a := d.Dispatch(rec)
	rec.Kind = KindPlan
	b := d.Dispatch(rec)
	if a == b {
		t.Fatal("verdict and plan records should be separate tasks")
	}
	_ = d.Close(context.Background())
	if got := sink.calls.Load(); got != 2 {
		t.Fatalf("expected two writes, got %d", got)
	}
}

func TestDispatchFailureIsNotRetried(t *testing.T) {
	failing := &countingSink{name: "broken", err: errors.New("down")}
	ok := &countingSink{name: "ok"}
	var mu sync.Mutex
	var completed []error
	d := NewDispatcher(Options{OnComplete: func(_ Record, err error, _ time.Duration) {
		mu.Lock()
		completed = append(completed, err)
		mu.Unlock()
	}}, failing, ok)

	task := d.Dispatch(sampleRecord("v-3"))
	err := waitTask(t, task)
	if err == nil || task.State() != TaskFailed {
		t.Fatalf("expected failure, got err=%v state=%s", err, task.State())
	}
	_ = d.Dispatch(sampleRecord("v-3"))
	_ = d.Close(context.Background())
	if failing.calls.Load() != 1 || ok.calls.Load() != 1 {
		t.Fatalf("expected exactly one attempt per sink, got %d/%d", failing.calls.Load(), ok.calls.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(completed) != 1 || completed[0] == nil {
		t.Fatalf("unexpected completion callbacks: %v", completed)
	}
}

func TestDispatchTimeout(t *testing.T) {
	sink := &countingSink{name: "slow", block: make(chan struct{})}
	d := NewDispatcher(Options{Timeout: 20 * time.Millisecond}, sink)
	err := waitTask(t, d.Dispatch(sampleRecord("v-4")))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestDispatchAfterClose(t *testing.T) {
	sink := &countingSink{name: "count"}
	d := NewDispatcher(Options{}, sink)
	_ = d.Close(context.Background())
	err := waitTask(t, d.Dispatch(sampleRecord("v-5")))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if sink.calls.Load() != 0 {
		t.Fatal("closed dispatcher must not write")
	}
}

func TestLookup(t *testing.T) {
	d := NewDispatcher(Options{})
	task := d.Dispatch(sampleRecord("v-6"))
	got, ok := d.Lookup("v-6/verdict")
	if !ok || got != task {
		t.Fatal("expected lookup to find the dispatched task")
	}
	if _, ok := d.Lookup("v-7/verdict"); ok {
		t.Fatal("unexpected task")
	}
	_ = d.Close(context.Background())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestFinishedKeysExpireAfterRetention(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}
	sink := &countingSink{name: "count"}
	d := NewDispatcher(Options{Retention: time.Hour}, sink)
	d.now = clock.Now

	first := d.Dispatch(sampleRecord("v-1"))
	if err := waitTask(t, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.Advance(30 * time.Minute)
	_ = waitTask(t, d.Dispatch(sampleRecord("v-2")))
	if again := d.Dispatch(sampleRecord("v-1")); again != first {
		t.Fatal("expected key to dedupe inside the retention window")
	}

	clock.Advance(2 * time.Hour)
	_ = waitTask(t, d.Dispatch(sampleRecord("v-3")))
	if _, ok := d.Lookup(sampleRecord("v-1").Key()); ok {
		t.Fatal("expected expired key to be evicted")
	}
	if _, ok := d.Lookup(sampleRecord("v-3").Key()); !ok {
		t.Fatal("expected fresh key to be tracked")
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := sink.calls.Load(); got != 3 {
		t.Fatalf("unexpected writes: got=%d want=3", got)
	}
}

func TestPendingTasksSurviveSweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}
	sink := &countingSink{name: "slow", block: make(chan struct{})}
	d := NewDispatcher(Options{Retention: time.Minute, Timeout: 5 * time.Second}, sink)
	d.now = clock.Now

	pending := d.Dispatch(sampleRecord("v-1"))
	clock.Advance(time.Hour)
	d.Dispatch(sampleRecord("v-2"))
	if again := d.Dispatch(sampleRecord("v-1")); again != pending {
		t.Fatal("expected in-flight task to stay deduplicated")
	}
	close(sink.block)
	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}
