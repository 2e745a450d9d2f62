package capability

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/internal/schema"
	"github.com/navvy-ai/navvy/logging"
)

// Call is one recognized capability call: a correlation ID, the capability
// name and decoded arguments. Calls come either from native tool-call chunks
// or from the markup parser.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// Invocation pairs a call with its normalized outcome.
type Invocation struct {
	Call     Call
	Result   Result
	Duration time.Duration
}

// Invoker looks capabilities up, validates arguments, executes and
// normalizes every failure mode into a Result. Unknown names, schema
// mismatches and panics all become failure Results: the model gets told
// what went wrong instead of the run dying.
type Invoker struct {
	registry      *Registry
	maxParallel   int
	preserveOrder bool
	logger        logging.Logger
}

// InvokerOptions configure an Invoker.
type InvokerOptions struct {
	// MaxParallel bounds concurrent executions in a parallel batch.
	// Zero or negative means no explicit limit.
	MaxParallel int
	// PreserveOrder emits batch outcomes in call order rather than
	// completion order.
	PreserveOrder bool
	Logger        logging.Logger
}

// NewInvoker creates an Invoker over a registry.
func NewInvoker(registry *Registry, optFns ...func(o *InvokerOptions)) *Invoker {
	opts := InvokerOptions{
		PreserveOrder: true,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{
		registry:      registry,
		maxParallel:   opts.MaxParallel,
		preserveOrder: opts.PreserveOrder,
		logger:        opts.Logger,
	}
}

// Invoke executes a single call and never panics.
func (inv *Invoker) Invoke(ctx *Context, call Call) Invocation {
	start := time.Now()
	result := inv.execute(ctx, call)
	dur := time.Since(start)

	inv.logger.Info("capability.executed",
		"capability", call.Name,
		"call_id", call.ID,
		"duration_ms", dur.Milliseconds(),
		"error", !result.OK(),
	)

	return Invocation{Call: call, Result: result, Duration: dur}
}

func (inv *Invoker) execute(ctx *Context, call Call) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			inv.logger.Error("capability.panic", "capability", call.Name, "recover", r, "stack", string(debug.Stack()))
			result = Failure("capability %s panicked: %v", call.Name, r)
		}
	}()

	impl, ok := inv.registry.Get(call.Name)
	if !ok {
		return Failure("capability %s not found", call.Name)
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	args = CoerceArgs(args, impl.Parameters())

	if err := schema.Validate(args, impl.Parameters()); err != nil {
		inv.logger.Warn("capability.validation_failed", "capability", call.Name, "error", err.Error())
		return Failure("parameter validation failed: %v", err)
	}

	return impl.Execute(ctx, args)
}

// InvokeAll executes a batch of calls recognized within one assistant turn
// and emits one Invocation per call. With StrategyParallel, calls run
// concurrently bounded by MaxParallel; with StrategySequential they run one
// after another in call order. Emission order follows call order when
// PreserveOrder is set, completion order otherwise.
func (inv *Invoker) InvokeAll(scope Scope, calls []Call, strategy core.Strategy, emit func(Invocation)) {
	n := len(calls)
	if n == 0 {
		return
	}

	// Fast path: single call or sequential execution.
	if n == 1 || strategy == core.StrategySequential {
		for _, call := range calls {
			if scope.Context != nil && scope.Context.Err() != nil {
				return
			}
			emit(inv.Invoke(NewContext(scope, call.ID), call))
		}
		return
	}

	maxPar := inv.maxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]Invocation, n) // used only if preserveOrder
	var mu sync.Mutex                // protects unordered emit
	var wg sync.WaitGroup

	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()
	for i := range calls {
		if scope.Context != nil && scope.Context.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call Call) {
			defer wg.Done()
			defer func() { <-sem }()

			out := inv.Invoke(NewContext(scope, call.ID), call)

			if inv.preserveOrder {
				results[idx] = out
			} else {
				mu.Lock()
				emit(out)
				mu.Unlock()
			}
		}(i, calls[i])
	}

	wg.Wait()

	if inv.preserveOrder {
		for i := 0; i < n; i++ {
			if results[i].Call.Name == "" {
				continue // skipped by cancellation
			}
			emit(results[i])
		}
	}

	inv.logger.Debug("capability.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"preserve_order", inv.preserveOrder,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
}

// DecodeArgs parses a serialized argument payload into the map form calls
// carry. An empty payload yields an empty map.
func DecodeArgs(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decode capability arguments: %w", err)
	}
	return args, nil
}
