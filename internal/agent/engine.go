package agent

import (
	"context"
	"time"

	"github.com/dop251/goja"
)

// scriptContext wraps a throwaway goja VM hardened for agent execution.
// Contexts are never reused; the runner creates one per invocation and
// discards it.
type scriptContext struct {
	vm *goja.Runtime
}

func newScriptContext() *scriptContext {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	// Remove host-environment globals agents must not reach.
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())

	// Timers are no-ops: contexts are torn down right after the run()
	// call returns, so deferred callbacks could never fire anyway.
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	vm.Set("setTimeout", noop)
	vm.Set("setInterval", noop)

	return &scriptContext{vm: vm}
}

// execute runs source with interruption wired to ctx and the optional
// timeout. A zero timeout disables the timer.
func (c *scriptContext) execute(ctx context.Context, source string, timeout time.Duration) (goja.Value, error) {
	done := make(chan struct{})
	defer close(done)

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	go func() {
		select {
		case <-timer:
			c.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			c.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	return c.vm.RunString(source)
}

// entryPoint reports whether the context defines a callable run function
func (c *scriptContext) entryPoint() bool {
	_, ok := goja.AssertFunction(c.vm.Get("run"))
	return ok
}
