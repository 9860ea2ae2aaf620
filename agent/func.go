package agent

import (
	"context"
	"errors"

	"github.com/hupe1980/agentlink/core"
)

// HookFunc is a single lifecycle hook expressed as a plain function.
type HookFunc func(ctx context.Context, rt core.Runtime) error

// FuncAgent is a generic adapter that exposes plain Go functions as an
// AgentLink agent, for small agents that do not warrant a dedicated type.
//
// Responsibilities:
//   - Wraps a mandatory run function plus optional setup / shutdown hooks
//   - Defaults missing optional hooks to no-ops
//
// Concurrency:
//
//	A FuncAgent has no internal mutable state after construction and is safe
//	for concurrent use by multiple goroutines.
type FuncAgent struct {
	Base
	setup    HookFunc
	run      HookFunc
	shutdown HookFunc
}

// FuncOptions holds the optional hooks passed to NewFunc().
type FuncOptions struct {
	// Setup runs before the main task is scheduled. Optional.
	Setup HookFunc
	// Shutdown runs during teardown. Optional.
	Shutdown HookFunc
}

// NewFunc constructs a FuncAgent from a name and a run function.
//
// Example:
//
//	echo := agent.NewFunc("echo", func(ctx context.Context, rt core.Runtime) error {
//	    <-ctx.Done()
//	    return ctx.Err()
//	}, func(o *agent.FuncOptions) {
//	    o.Setup = func(_ context.Context, rt core.Runtime) error {
//	        rt.RegisterHandler("echo", func(_ context.Context, params map[string]any) (map[string]any, error) {
//	            return params, nil
//	        })
//	        return nil
//	    }
//	})
func NewFunc(name string, run HookFunc, optFns ...func(o *FuncOptions)) (*FuncAgent, error) {
	if run == nil {
		return nil, errors.New("run function must not be nil")
	}

	opts := FuncOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &FuncAgent{
		Base:     NewBase(name),
		setup:    opts.Setup,
		run:      run,
		shutdown: opts.Shutdown,
	}, nil
}

// Setup runs the configured setup hook, if any.
func (a *FuncAgent) Setup(ctx context.Context, rt core.Runtime) error {
	if a.setup == nil {
		return nil
	}
	return a.setup(ctx, rt)
}

// Run runs the configured main function.
func (a *FuncAgent) Run(ctx context.Context, rt core.Runtime) error {
	return a.run(ctx, rt)
}

// Shutdown runs the configured shutdown hook, if any.
func (a *FuncAgent) Shutdown(ctx context.Context, rt core.Runtime) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx, rt)
}
