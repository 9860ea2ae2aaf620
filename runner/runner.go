package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentlink/comm"
	"github.com/hupe1980/agentlink/core"
	"github.com/hupe1980/agentlink/logging"
	"github.com/hupe1980/agentlink/task"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Config is the validated agent configuration. An empty Name falls back
	// to the agent's Name(); an empty CommunicatorType falls back to
	// comm.TypeInProc.
	Config core.AgentConfig
	// Registry resolves the communicator type. Defaults to
	// comm.NewDefaultRegistry() when neither Registry nor Communicator is
	// provided.
	Registry *comm.Registry
	// Communicator, when set, bypasses registry resolution entirely.
	Communicator core.Communicator
	// MaxConcurrentTasks caps concurrently executing background tasks.
	// 0 means unlimited.
	MaxConcurrentTasks int
	// Logger receives structured lifecycle events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Runner coordinates one agent's lifecycle: resolves the communicator,
// starts it, drives the Setup / Run / Shutdown hooks and guarantees complete
// teardown. Public methods are safe for concurrent use; state transitions
// are serialized, so a second concurrent Start or Stop observes the
// in-progress transition and fails fast instead of interleaving.
type Runner struct {
	agent    core.Agent
	cfg      core.AgentConfig
	registry *comm.Registry
	tasks    *task.Manager
	logger   logging.Logger

	mu           sync.Mutex
	state        core.State
	communicator core.Communicator
	pending      map[string]core.Handler
	baseCtx      context.Context
	mainCancel   context.CancelFunc
	mainDone     chan struct{}
	waitCh       chan error
}

// New constructs a Runner for the given agent with optional overrides.
func New(a core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg.Name == "" {
		cfg.Name = a.Name()
	}
	if cfg.CommunicatorType == "" {
		cfg.CommunicatorType = comm.TypeInProc
	}

	registry := opts.Registry
	if registry == nil && opts.Communicator == nil {
		registry = comm.NewDefaultRegistry(func(o *comm.Options) { o.Logger = opts.Logger })
	}

	return &Runner{
		agent:    a,
		cfg:      cfg,
		registry: registry,
		logger:   opts.Logger,
		tasks: task.New(func(o *task.Options) {
			o.MaxConcurrentTasks = opts.MaxConcurrentTasks
			o.Logger = opts.Logger
		}),
		state:        core.StateCreated,
		communicator: opts.Communicator,
		pending:      make(map[string]core.Handler),
		waitCh:       make(chan error, 1),
	}
}

// Start drives the lifecycle forward: resolve communicator -> start
// communicator -> Setup hook -> schedule the Run hook as the main task.
// It returns once the main task is scheduled, not once it completes.
//
// Preconditions: state must be Created or Stopped; otherwise a
// *core.LifecycleError ("already running") is returned. Resolution failures
// pass through unwrapped (*core.ConfigurationError, *core.DependencyError)
// so callers can branch on kind; communicator-start and Setup failures are
// wrapped in *core.LifecycleError and transition the runner to Failed. A
// Setup failure still tears the communicator down before returning.
//
// The main task is detached from ctx's cancellation (Start returning does
// not kill it); it ends when Run returns or Stop cancels it.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != core.StateCreated && r.state != core.StateStopped {
		st := r.state
		r.mu.Unlock()
		return &core.LifecycleError{Agent: r.cfg.Name, Phase: "start", State: st, Err: errors.New("agent is already running")}
	}
	r.state = core.StateStarting
	r.mu.Unlock()

	r.logLifecycle("starting", nil)

	c, err := r.resolveCommunicator()
	if err != nil {
		r.setState(core.StateFailed)
		r.logLifecycle("resolve_failed", err)
		return err
	}

	if err := c.Start(ctx); err != nil {
		r.setState(core.StateFailed)
		r.logLifecycle("communicator_start_failed", err)
		return &core.LifecycleError{Agent: r.cfg.Name, Phase: "communicator-start", State: core.StateFailed, Err: err}
	}

	r.flushPendingHandlers(c)

	if err := r.agent.Setup(ctx, r); err != nil {
		if stopErr := c.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			r.logger.Warn("communicator stop after setup failure failed", "agent_name", r.cfg.Name, "error", stopErr)
		}
		r.setState(core.StateFailed)
		r.logLifecycle("setup_failed", err)
		return &core.LifecycleError{Agent: r.cfg.Name, Phase: "setup", State: core.StateFailed, Err: err}
	}

	baseCtx := context.WithoutCancel(ctx)
	mainCtx, mainCancel := context.WithCancel(baseCtx)
	mainDone := make(chan struct{})

	r.mu.Lock()
	r.baseCtx = baseCtx
	r.mainCancel = mainCancel
	r.mainDone = mainDone
	waitCh := r.waitCh
	select {
	case <-waitCh:
		// Drop the unobserved terminal value of a previous run so this run's
		// value always fits the one-slot buffer.
	default:
	}
	r.state = core.StateRunning
	r.mu.Unlock()

	go func() {
		defer close(mainDone)

		err := r.agent.Run(mainCtx, r)
		if err != nil && !isCancellation(err) {
			r.logLifecycle("run_failed", err)
			waitCh <- err
			return
		}
		waitCh <- nil
	}()

	r.logLifecycle("started", nil)

	return nil
}

// Stop drives teardown: cancel background tasks, cancel and await the main
// task (cancellation suppressed), invoke the Shutdown hook unconditionally,
// stop the communicator unconditionally, transition to Stopped.
//
// Stop is a no-op when the state is Created or Stopped, and also after
// Failed (the failed Start already tore the communicator down, so the
// communicator stops exactly once per started lifecycle). A Stop racing an
// in-flight Start or Stop returns a *core.LifecycleError instead of
// interleaving with the transition.
//
// Hook and communicator failures during teardown are logged, never
// returned: teardown is total. ctx bounds how long Stop waits for tasks;
// the Shutdown hook and communicator stop run even if ctx is already
// cancelled.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case core.StateCreated, core.StateStopped, core.StateFailed:
		r.mu.Unlock()
		return nil
	case core.StateStarting, core.StateStopping:
		st := r.state
		r.mu.Unlock()
		return &core.LifecycleError{Agent: r.cfg.Name, Phase: "stop", State: st, Err: errors.New("lifecycle transition already in progress")}
	}
	r.state = core.StateStopping
	mainCancel := r.mainCancel
	mainDone := r.mainDone
	c := r.communicator
	r.mu.Unlock()

	r.logLifecycle("stopping", nil)

	r.tasks.CancelAll(ctx)

	if mainCancel != nil {
		mainCancel()
	}
	if mainDone != nil {
		select {
		case <-mainDone:
		case <-ctx.Done():
			r.logger.Warn("main task did not exit before deadline, abandoning wait", "agent_name", r.cfg.Name)
		}
	}

	teardownCtx := context.WithoutCancel(ctx)

	if err := r.agent.Shutdown(teardownCtx, r); err != nil {
		r.logLifecycle("shutdown_failed", err)
	}

	if c != nil {
		if err := c.Stop(teardownCtx); err != nil {
			r.logLifecycle("communicator_stop_failed", err)
		}
	}

	r.setState(core.StateStopped)
	r.logLifecycle("stopped", nil)

	return nil
}

// Wait returns a channel delivering the main task's terminal error: nil when
// Run returned on its own or was cancelled by Stop, non-nil when Run failed.
// The channel is stable for the runner's lifetime, so it may be obtained
// before the first Start. One value is delivered per Start; a value left
// unobserved across a restart is dropped in favor of the new run's. The
// owner of the runner is responsible for observing it and calling Stop
// afterwards, the runner never stops itself.
func (r *Runner) Wait() <-chan error {
	return r.waitCh
}

// State returns the current lifecycle state.
func (r *Runner) State() core.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetCommunicator swaps the communicator instance. Allowed only while the
// agent is not running (Created, Stopped or Failed).
func (r *Runner) SetCommunicator(c core.Communicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case core.StateCreated, core.StateStopped, core.StateFailed:
		r.communicator = c
		return nil
	default:
		return &core.LifecycleError{Agent: r.cfg.Name, Phase: "set-communicator", State: r.state, Err: errors.New("communicator can only be swapped while not running")}
	}
}

// Name implements core.Runtime.
func (r *Runner) Name() string { return r.cfg.Name }

// Config implements core.Runtime. The returned value carries copies of the
// option and service URL maps so hook code cannot mutate shared state.
func (r *Runner) Config() core.AgentConfig {
	cfg := r.cfg
	cfg.CommunicatorOptions = r.cfg.CloneOptions()
	cfg.ServiceURLs = r.cfg.CloneServiceURLs()
	return cfg
}

// Communicator implements core.Runtime. Nil before the first Start when no
// explicit communicator was provided.
func (r *Runner) Communicator() core.Communicator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.communicator
}

// RegisterHandler implements core.Runtime. Registrations made before the
// communicator exists (i.e. before Start resolves it) are buffered and
// applied right after the communicator starts.
func (r *Runner) RegisterHandler(method string, handler core.Handler) {
	r.mu.Lock()
	c := r.communicator
	if c == nil {
		r.pending[method] = handler
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	c.RegisterHandler(method, handler)
}

// Spawn implements core.Runtime: schedules fn as a tracked background task
// cancelled and awaited during Stop. Only accepted while the agent is
// Starting or Running. The state check and the task insertion share one
// critical section so a Spawn racing Stop cannot slip a task in after the
// cancellation snapshot was taken.
func (r *Runner) Spawn(name string, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != core.StateStarting && r.state != core.StateRunning {
		return &core.LifecycleError{Agent: r.cfg.Name, Phase: "spawn", State: r.state, Err: errors.New("agent is not accepting background work")}
	}

	baseCtx := r.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	_, err := r.tasks.Spawn(baseCtx, name, fn)
	return err
}

// Tasks exposes the background task manager, mainly for tests and
// introspection.
func (r *Runner) Tasks() *task.Manager { return r.tasks }

// resolveCommunicator returns the owned communicator, resolving it from the
// registry on first use.
func (r *Runner) resolveCommunicator() (core.Communicator, error) {
	r.mu.Lock()
	c := r.communicator
	r.mu.Unlock()
	if c != nil {
		return c, nil
	}

	if r.registry == nil {
		return nil, &core.ConfigurationError{Reason: "no communicator registry configured"}
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	c, err := r.registry.Resolve(r.cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.communicator = c
	r.mu.Unlock()

	return c, nil
}

// flushPendingHandlers applies handler registrations buffered before the
// communicator existed. Insertion order is irrelevant per the handler table
// contract.
func (r *Runner) flushPendingHandlers(c core.Communicator) {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[string]core.Handler)
	r.mu.Unlock()

	for method, handler := range pending {
		c.RegisterHandler(method, handler)
	}
}

func (r *Runner) setState(s core.State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Runner) logLifecycle(event string, err error) {
	if err != nil {
		r.logger.Error("lifecycle event", "agent_name", r.cfg.Name, "event", event, "error", err)
		return
	}
	r.logger.Info("lifecycle event", "agent_name", r.cfg.Name, "event", event)
}

// isCancellation reports whether err belongs to the cancellation class
// suppressed during teardown.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
