package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metheus/shell/internal/events"
	"github.com/metheus/shell/internal/logging"
	"github.com/metheus/shell/internal/monitoring"
	"github.com/metheus/shell/internal/shared/types"
)

var (
	// ErrMissingEntryPoint indicates the agent source defines no run function
	ErrMissingEntryPoint = errors.New("agent must define a 'run' function")

	// ErrNoAgent indicates no code is cached for the agent id
	ErrNoAgent = errors.New("no code cached for agent")

	// ErrMalformedResult indicates the agent returned something that does
	// not decode into a result
	ErrMalformedResult = errors.New("agent returned a malformed result")
)

// runWrapper invokes the agent entry point with a JSON-decoded input and
// JSON-encodes whatever it returns. The function check is repeated here
// so the failure surfaces identically when run is shadowed mid-script.
const runWrapper = `(function() {
    const input = %s;
    if (typeof run !== "function") {
        throw new Error("agent must define a 'run' function");
    }
    return JSON.stringify(run(input));
})();`

// cacheEntry holds validated agent source
type cacheEntry struct {
	code     string
	lastUsed time.Time
}

// Runner caches agent source and executes agents in isolated contexts
type Runner struct {
	cacheMu sync.RWMutex
	cache   map[string]*cacheEntry // protected by cacheMu

	// gate serializes script-context lifetimes process-wide. Callers
	// block cooperatively until the permit frees up.
	gate    chan struct{}
	timeout time.Duration

	log     *logging.Logger
	metrics *monitoring.Metrics
	events  *events.Hub

	liveMu sync.Mutex
	live   int
	probe  func(live int) // test instrumentation, may be nil
}

// NewRunner creates an agent runner
func NewRunner(log *logging.Logger) *Runner {
	if log == nil {
		log = logging.NewNop()
	}
	return &Runner{
		cache: make(map[string]*cacheEntry),
		gate:  make(chan struct{}, 1),
		log:   log.Named("agent"),
	}
}

// WithMetrics adds metrics tracking to the runner
func (r *Runner) WithMetrics(metrics *monitoring.Metrics) *Runner {
	r.metrics = metrics
	return r
}

// WithEvents adds completion event publishing to the runner
func (r *Runner) WithEvents(hub *events.Hub) *Runner {
	r.events = hub
	return r
}

// WithTimeout bounds each script execution. Zero disables the timer.
func (r *Runner) WithTimeout(timeout time.Duration) *Runner {
	r.timeout = timeout
	return r
}

// Load validates agent source in a throwaway context and caches it.
// Validation failure leaves any previously cached source untouched.
func (r *Runner) Load(ctx context.Context, agentID, code string) error {
	release, err := r.acquire(ctx)
	if err != nil {
		return err
	}

	execErr := func() error {
		sctx := r.openContext()
		defer r.closeContext()
		_, err := sctx.execute(ctx, code, r.timeout)
		return err
	}()
	release()

	if execErr != nil {
		return fmt.Errorf("script error in agent %s: %w", agentID, execErr)
	}

	r.store(agentID, code)
	r.log.Info("agent loaded", zap.String("agent_id", agentID), zap.Int("bytes", len(code)))
	return nil
}

// Run refreshes the cache with the supplied code and executes the agent
// against input, returning its decoded result.
func (r *Runner) Run(ctx context.Context, agentID, code, input string) (*types.AgentResult, error) {
	r.store(agentID, code)

	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	invocation := uuid.New().String()
	start := time.Now()
	result, err := r.execute(ctx, code, input)
	duration := time.Since(start)

	if r.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		r.metrics.AgentExecutions.WithLabelValues(status).Inc()
		r.metrics.AgentDuration.Observe(duration.Seconds())
	}
	r.events.Publish("agent.completed", map[string]any{
		"agent_id":   agentID,
		"invocation": invocation,
		"duration":   duration.String(),
		"ok":         err == nil,
	})
	if err != nil {
		r.log.Warn("agent run failed",
			zap.String("agent_id", agentID),
			zap.String("invocation", invocation),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// RunCached executes an agent using its previously loaded source
func (r *Runner) RunCached(ctx context.Context, agentID, input string) (*types.AgentResult, error) {
	code, ok := r.CachedCode(agentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAgent, agentID)
	}
	return r.Run(ctx, agentID, code, input)
}

// Unload drops the cached source for an agent. There is never a running
// context to stop; contexts are ephemeral.
func (r *Runner) Unload(agentID string) {
	r.cacheMu.Lock()
	delete(r.cache, agentID)
	r.cacheMu.Unlock()
}

// CachedCode returns the cached source for an agent, if any
func (r *Runner) CachedCode(agentID string) (string, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	entry, ok := r.cache[agentID]
	if !ok {
		return "", false
	}
	return entry.code, true
}

// CachedAgents lists agent ids with cached source
func (r *Runner) CachedAgents() []string {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	return ids
}

// execute runs one agent invocation inside a fresh context. Caller holds
// the gate.
func (r *Runner) execute(ctx context.Context, code, input string) (*types.AgentResult, error) {
	sctx := r.openContext()
	defer r.closeContext()

	if _, err := sctx.execute(ctx, code, r.timeout); err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}
	if !sctx.entryPoint() {
		return nil, ErrMissingEntryPoint
	}

	encodedInput, err := sonic.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}

	value, err := sctx.execute(ctx, fmt.Sprintf(runWrapper, string(encodedInput)), r.timeout)
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}

	var result types.AgentResult
	if err := sonic.Unmarshal([]byte(value.String()), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return &result, nil
}

// acquire takes the execution permit, waiting cooperatively
func (r *Runner) acquire(ctx context.Context) (release func(), err error) {
	start := time.Now()
	select {
	case r.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.metrics != nil {
		r.metrics.AgentGateWaitTime.Observe(time.Since(start).Seconds())
	}
	return func() { <-r.gate }, nil
}

func (r *Runner) openContext() *scriptContext {
	r.liveMu.Lock()
	r.live++
	live := r.live
	probe := r.probe
	r.liveMu.Unlock()

	if r.metrics != nil {
		r.metrics.AgentContextsLive.Inc()
	}
	if probe != nil {
		probe(live)
	}
	return newScriptContext()
}

func (r *Runner) closeContext() {
	r.liveMu.Lock()
	r.live--
	live := r.live
	probe := r.probe
	r.liveMu.Unlock()

	if r.metrics != nil {
		r.metrics.AgentContextsLive.Dec()
	}
	if probe != nil {
		probe(live)
	}
}

func (r *Runner) store(agentID, code string) {
	r.cacheMu.Lock()
	r.cache[agentID] = &cacheEntry{code: code, lastUsed: time.Now()}
	r.cacheMu.Unlock()
}
