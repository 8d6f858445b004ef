package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const (
	taskPending int32 = iota
	taskFired
	taskCancelled
)

// Task is a deferred callback; it either fires or is cancelled, never both
type Task struct {
	s     *Scheduler
	id    uint64
	fn    func()
	timer Timer
	state atomic.Int32
	done  chan struct{}
}

// Cancel prevents the task from firing
// Returns false if it already fired or was cancelled
func (t *Task) Cancel() bool {
	if !t.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	t.s.mu.Lock()
	timer := t.timer
	delete(t.s.tasks, t.id)
	t.s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	close(t.done)
	return true
}

// Done is closed once the task has finished running or was cancelled
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Fired reports whether the callback ran
func (t *Task) Fired() bool {
	return t.state.Load() == taskFired
}

// Cancelled reports whether the task was cancelled before firing
func (t *Task) Cancelled() bool {
	return t.state.Load() == taskCancelled
}

func (t *Task) run() {
	if !t.state.CompareAndSwap(taskPending, taskFired) {
		return
	}
	t.s.mu.Lock()
	delete(t.s.tasks, t.id)
	t.s.mu.Unlock()
	t.s.fired.Add(1)

	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: task %d panicked: %v", t.id, r)
		}
	}()
	t.fn()
}

// Scheduler runs deferred one-shot callbacks on a Clock and tracks them for bulk cancellation
// Callbacks run on the clock's goroutine, never on the caller of After
type Scheduler struct {
	clock Clock

	mu     sync.Mutex
	tasks  map[uint64]*Task
	nextID uint64

	running  atomic.Bool
	stopOnce sync.Once
	fired    atomic.Uint64
}

// NewScheduler creates a running scheduler on clock
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = NewRealClock()
	}
	s := &Scheduler{
		clock: clock,
		tasks: make(map[uint64]*Task),
	}
	s.running.Store(true)
	return s
}

// Now returns the scheduler clock's time
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// After schedules fn to run once after d
// A stopped scheduler returns an already-cancelled task
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	t := &Task{s: s, fn: fn, done: make(chan struct{})}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		t.state.Store(taskCancelled)
		close(t.done)
		return t
	}

	s.nextID++
	t.id = s.nextID
	s.tasks[t.id] = t
	t.timer = s.clock.AfterFunc(d, t.run)
	return t
}

// Pending returns the number of tasks not yet fired or cancelled
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Fired returns the number of tasks that ran
func (s *Scheduler) Fired() uint64 {
	return s.fired.Load()
}

// CancelAll cancels every pending task, returns how many were cancelled
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	n := 0
	for _, t := range tasks {
		if t.Cancel() {
			n++
		}
	}
	return n
}

// Running reports whether new tasks are accepted
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Stop refuses new tasks and cancels pending ones
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.running.Store(false)
		s.mu.Unlock()
		s.CancelAll()
	})
}
