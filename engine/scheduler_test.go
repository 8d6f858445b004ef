package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler() (*Scheduler, *ManualClock) {
	clock := NewManualClock(time.Unix(0, 0))
	return NewScheduler(clock), clock
}

func TestSchedulerFiresAfterDelay(t *testing.T) {
	s, clock := newTestScheduler()

	fired := false
	task := s.After(100*time.Millisecond, func() { fired = true })

	clock.Advance(99 * time.Millisecond)
	if fired || task.Fired() {
		t.Fatal("Expected task not to fire before its deadline")
	}
	if s.Pending() != 1 {
		t.Errorf("Expected 1 pending task, got %d", s.Pending())
	}

	clock.Advance(time.Millisecond)
	if !fired || !task.Fired() {
		t.Fatal("Expected task to fire at its deadline")
	}
	if s.Pending() != 0 {
		t.Errorf("Expected no pending tasks, got %d", s.Pending())
	}

	select {
	case <-task.Done():
	default:
		t.Error("Expected Done closed after firing")
	}

	if task.Cancel() {
		t.Error("Expected Cancel after fire to return false")
	}
}

func TestSchedulerCancel(t *testing.T) {
	s, clock := newTestScheduler()

	fired := false
	task := s.After(50*time.Millisecond, func() { fired = true })

	if !task.Cancel() {
		t.Fatal("Expected Cancel to succeed on pending task")
	}
	if task.Cancel() {
		t.Error("Expected second Cancel to return false")
	}
	if !task.Cancelled() {
		t.Error("Expected Cancelled true")
	}

	clock.Advance(time.Second)
	if fired {
		t.Error("Cancelled task fired")
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected cancelled timer removed from clock, got %d", clock.Pending())
	}
}

func TestSchedulerOrder(t *testing.T) {
	s, clock := newTestScheduler()

	var order []int
	s.After(30*time.Millisecond, func() { order = append(order, 3) })
	s.After(10*time.Millisecond, func() { order = append(order, 1) })
	s.After(20*time.Millisecond, func() { order = append(order, 2) })
	s.After(10*time.Millisecond, func() { order = append(order, 11) })

	clock.Advance(time.Second)

	want := []int{1, 11, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

// Clock time observed inside a callback is its own deadline, not the end of the Advance window
func TestManualClockTimeInsideCallback(t *testing.T) {
	s, clock := newTestScheduler()
	start := clock.Now()

	var seen time.Time
	s.After(40*time.Millisecond, func() { seen = s.Now() })
	clock.Advance(time.Second)

	if got := seen.Sub(start); got != 40*time.Millisecond {
		t.Errorf("Expected callback at +40ms, observed +%v", got)
	}
	if clock.Now().Sub(start) != time.Second {
		t.Errorf("Expected clock at +1s after Advance, got %v", clock.Now().Sub(start))
	}
}

func TestSchedulerChainedTasks(t *testing.T) {
	s, clock := newTestScheduler()

	second := false
	s.After(10*time.Millisecond, func() {
		s.After(10*time.Millisecond, func() { second = true })
	})

	clock.Advance(25 * time.Millisecond)
	if !second {
		t.Error("Expected task scheduled from a callback to fire within the same Advance")
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	s, clock := newTestScheduler()

	var fired atomic.Int32
	for i := range 5 {
		s.After(time.Duration(i+1)*time.Millisecond, func() { fired.Add(1) })
	}

	if n := s.CancelAll(); n != 5 {
		t.Errorf("Expected 5 cancelled, got %d", n)
	}
	clock.Advance(time.Second)
	if fired.Load() != 0 {
		t.Errorf("Expected no callbacks after CancelAll, got %d", fired.Load())
	}
}

func TestSchedulerStop(t *testing.T) {
	s, clock := newTestScheduler()

	fired := false
	s.After(time.Millisecond, func() { fired = true })
	s.Stop()
	s.Stop()

	if s.Running() {
		t.Error("Expected scheduler stopped")
	}

	late := s.After(time.Millisecond, func() { fired = true })
	if !late.Cancelled() {
		t.Error("Expected stopped scheduler to return a cancelled task")
	}

	clock.Advance(time.Second)
	if fired {
		t.Error("Expected no callbacks after Stop")
	}
}

func TestSchedulerRecoversPanic(t *testing.T) {
	s, clock := newTestScheduler()

	task := s.After(time.Millisecond, func() { panic("boom") })
	after := false
	s.After(2*time.Millisecond, func() { after = true })

	clock.Advance(time.Second)
	if !task.Fired() {
		t.Error("Expected panicking task marked fired")
	}
	if !after {
		t.Error("Expected later task to run after a panic")
	}
	if s.Fired() != 2 {
		t.Errorf("Expected 2 fired, got %d", s.Fired())
	}
}

func TestSchedulerRealClock(t *testing.T) {
	s := NewScheduler(NewRealClock())

	task := s.After(5*time.Millisecond, func() {})
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for real clock task")
	}
	if !task.Fired() {
		t.Error("Expected task fired")
	}
}

// Cancel racing the timer must resolve to exactly one outcome
func TestSchedulerCancelRace(t *testing.T) {
	s := NewScheduler(NewRealClock())

	const n = 200
	var ran atomic.Int32
	var cancelled atomic.Int32
	var wg sync.WaitGroup
	tasks := make([]*Task, 0, n)

	for range n {
		task := s.After(0, func() { ran.Add(1) })
		tasks = append(tasks, task)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if task.Cancel() {
				cancelled.Add(1)
			}
		}()
	}
	wg.Wait()

	timeout := time.After(2 * time.Second)
	for _, task := range tasks {
		select {
		case <-task.Done():
		case <-timeout:
			t.Fatal("Timed out waiting for tasks to resolve")
		}
	}

	if got := ran.Load() + cancelled.Load(); got != n {
		t.Errorf("Expected %d resolved tasks, got %d ran + %d cancelled", n, ran.Load(), cancelled.Load())
	}
}
