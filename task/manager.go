package task

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/agentlink/internal/util"
	"github.com/hupe1980/agentlink/logging"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxConcurrentTasks limits how many spawned tasks execute
	// simultaneously. Tasks above the limit wait for a slot (or their
	// context). Set to 0 for unlimited.
	MaxConcurrentTasks int
	// Logger receives warnings for unexpected task errors observed during
	// cancellation. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Manager tracks concurrently scheduled fire-and-forget tasks owned by a
// running agent. Public methods are safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	tasks  map[string]*Task
	sem    *semaphore.Weighted
	logger logging.Logger
}

// Task is the handle for one tracked unit of work.
type Task struct {
	id     string
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Name returns the caller supplied task name (not necessarily unique).
func (t *Task) Name() string { return t.name }

// Done returns a channel closed when the task has completed (success,
// failure or cancellation).
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's terminal error. Valid once Done is closed; nil for
// success, context.Canceled for cooperative cancellation.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel requests cooperative cancellation of this task.
func (t *Task) Cancel() { t.cancel() }

func (t *Task) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// New constructs a Manager with optional overrides.
func New(optFns ...func(o *Options)) *Manager {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	m := &Manager{
		tasks:  make(map[string]*Task),
		logger: opts.Logger,
	}
	if opts.MaxConcurrentTasks > 0 {
		m.sem = semaphore.NewWeighted(int64(opts.MaxConcurrentTasks))
	}

	return m
}

// Spawn schedules fn as a concurrent unit of work derived from ctx and adds
// its handle to the tracked set. The handle removes itself from the set when
// fn returns, regardless of outcome. The returned handle can be used to
// cancel or await this task individually.
func (m *Manager) Spawn(ctx context.Context, name string, fn func(ctx context.Context) error) (*Task, error) {
	if fn == nil {
		return nil, errors.New("task function must not be nil")
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:     util.NewID(),
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.tasks[t.id] = t
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.tasks, t.id)
			m.mu.Unlock()
			cancel()
			close(t.done)
		}()

		if m.sem != nil {
			if err := m.sem.Acquire(taskCtx, 1); err != nil {
				t.setErr(err)
				return
			}
			defer m.sem.Release(1)
		}

		t.setErr(fn(taskCtx))
	}()

	return t, nil
}

// CancelAll requests cancellation of every tracked task, then awaits their
// completion. Cancellation-class errors are suppressed; any other task error
// is logged as a warning but never raised, so the teardown path always
// completes. Safe to call when some tasks have already finished, or when the
// set is empty. After CancelAll returns the tracked set is empty.
//
// ctx bounds how long CancelAll waits per task; a task that ignores its
// cancellation past the deadline is abandoned (and logged) rather than
// blocking teardown forever.
func (m *Manager) CancelAll(ctx context.Context) {
	m.mu.Lock()
	pending := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		pending = append(pending, t)
	}
	m.mu.Unlock()

	for _, t := range pending {
		t.cancel()
	}

	for _, t := range pending {
		select {
		case <-t.done:
			if err := t.Err(); err != nil && !isCancellation(err) {
				m.logger.Warn("background task failed during cancellation", "task_name", t.name, "task_id", t.id, "error", err)
			}
		case <-ctx.Done():
			m.logger.Warn("background task did not exit before deadline, abandoning wait", "task_name", t.name, "task_id", t.id)
			m.mu.Lock()
			delete(m.tasks, t.id)
			m.mu.Unlock()
		}
	}
}

// Len returns the number of currently tracked tasks.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// isCancellation reports whether err belongs to the cancellation class that
// teardown suppresses.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
