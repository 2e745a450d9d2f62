package capability

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvy-ai/navvy/core"
)

func newTestScope() Scope {
	return Scope{
		Context:        context.Background(),
		ConversationID: "conv-1",
		RunID:          "run-1",
	}
}

func TestInvoker_Success(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunc("sum", "Add numbers", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}, func(_ *Context, args map[string]any) Result {
		return Success(args["a"].(float64) + args["b"].(float64))
	})))

	inv := NewInvoker(reg)
	ctx := NewContext(newTestScope(), "call-1")

	out := inv.Invoke(ctx, Call{ID: "call-1", Name: "sum", Args: map[string]any{"a": 2.0, "b": 3.0}})
	assert.True(t, out.Result.OK())
	assert.Equal(t, "5", out.Result.Output)
	assert.Equal(t, "sum", out.Call.Name)
	assert.GreaterOrEqual(t, out.Duration, time.Duration(0))
}

func TestInvoker_UnknownCapability(t *testing.T) {
	inv := NewInvoker(NewRegistry())
	ctx := NewContext(newTestScope(), "call-1")

	out := inv.Invoke(ctx, Call{ID: "call-1", Name: "ghost"})
	assert.False(t, out.Result.OK())
	assert.Contains(t, out.Result.Error, "not found")
}

func TestInvoker_ValidationFailure(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunc("strict", "Strict args", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}, func(_ *Context, _ map[string]any) Result {
		return Success("never reached")
	})))

	inv := NewInvoker(reg)
	ctx := NewContext(newTestScope(), "call-1")

	out := inv.Invoke(ctx, Call{ID: "call-1", Name: "strict", Args: map[string]any{}})
	assert.False(t, out.Result.OK())
	assert.Contains(t, out.Result.Error, "parameter validation failed")
}

func TestInvoker_CoercesStringArgsToSchema(t *testing.T) {
	var gotTimeout float64
	var gotForce bool

	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunc("exec", "Run something", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timeout": map[string]any{"type": "integer"},
			"force":   map[string]any{"type": "boolean"},
		},
		"required": []string{"timeout"},
	}, func(_ *Context, args map[string]any) Result {
		gotTimeout = args["timeout"].(float64)
		gotForce, _ = args["force"].(bool)
		return Success("ok")
	})))

	inv := NewInvoker(reg)
	ctx := NewContext(newTestScope(), "call-1")

	// Markup extraction yields string values; coercion makes them validate.
	out := inv.Invoke(ctx, Call{ID: "call-1", Name: "exec", Args: map[string]any{
		"timeout": "60",
		"force":   "true",
	}})
	require.True(t, out.Result.OK(), out.Result.Error)
	assert.Equal(t, 60.0, gotTimeout)
	assert.True(t, gotForce)
}

func TestInvoker_RecoversPanics(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunc("boom", "Panics", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, func(_ *Context, _ map[string]any) Result {
		panic("kaboom")
	})))

	inv := NewInvoker(reg)
	ctx := NewContext(newTestScope(), "call-1")

	out := inv.Invoke(ctx, Call{ID: "call-1", Name: "boom"})
	assert.False(t, out.Result.OK())
	assert.Contains(t, out.Result.Error, "panicked")
	assert.Contains(t, out.Result.Error, "kaboom")
}

func sleeperCapability(inFlight *int32, maxSeen *int32) *FuncCapability {
	return NewFunc("sleeper", "Sleeps briefly", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ms": map[string]any{"type": "number"},
			"id": map[string]any{"type": "string"},
		},
		"required": []string{"ms", "id"},
	}, func(_ *Context, args map[string]any) Result {
		cur := atomic.AddInt32(inFlight, 1)
		for {
			prev := atomic.LoadInt32(maxSeen)
			if cur <= prev || atomic.CompareAndSwapInt32(maxSeen, prev, cur) {
				break
			}
		}
		time.Sleep(time.Duration(args["ms"].(float64)) * time.Millisecond)
		atomic.AddInt32(inFlight, -1)
		return Success(args["id"].(string))
	})
}

func TestInvokeAll_ParallelPreservesCallOrder(t *testing.T) {
	var inFlight, maxSeen int32

	reg := NewRegistry()
	require.NoError(t, reg.Register(sleeperCapability(&inFlight, &maxSeen)))
	inv := NewInvoker(reg)

	// Later calls finish first, so completion order is the reverse of call
	// order. Emission must still follow call order.
	calls := []Call{
		{ID: "c0", Name: "sleeper", Args: map[string]any{"ms": 40.0, "id": "first"}},
		{ID: "c1", Name: "sleeper", Args: map[string]any{"ms": 20.0, "id": "second"}},
		{ID: "c2", Name: "sleeper", Args: map[string]any{"ms": 1.0, "id": "third"}},
	}

	var emitted []string
	inv.InvokeAll(newTestScope(), calls, core.StrategyParallel, func(out Invocation) {
		emitted = append(emitted, out.Result.Output)
	})

	assert.Equal(t, []string{"first", "second", "third"}, emitted)
	assert.Greater(t, atomic.LoadInt32(&maxSeen), int32(1), "calls should overlap")
}

func TestInvokeAll_SequentialRunsOneAtATime(t *testing.T) {
	var inFlight, maxSeen int32

	reg := NewRegistry()
	require.NoError(t, reg.Register(sleeperCapability(&inFlight, &maxSeen)))
	inv := NewInvoker(reg)

	calls := []Call{
		{ID: "c0", Name: "sleeper", Args: map[string]any{"ms": 5.0, "id": "first"}},
		{ID: "c1", Name: "sleeper", Args: map[string]any{"ms": 5.0, "id": "second"}},
	}

	var emitted []string
	inv.InvokeAll(newTestScope(), calls, core.StrategySequential, func(out Invocation) {
		emitted = append(emitted, out.Result.Output)
	})

	assert.Equal(t, []string{"first", "second"}, emitted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
}

func TestInvokeAll_MaxParallelBound(t *testing.T) {
	var inFlight, maxSeen int32

	reg := NewRegistry()
	require.NoError(t, reg.Register(sleeperCapability(&inFlight, &maxSeen)))
	inv := NewInvoker(reg, func(o *InvokerOptions) { o.MaxParallel = 2 })

	var calls []Call
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		calls = append(calls, Call{ID: id, Name: "sleeper", Args: map[string]any{"ms": 10.0, "id": id}})
	}

	count := 0
	inv.InvokeAll(newTestScope(), calls, core.StrategyParallel, func(Invocation) { count++ })

	assert.Equal(t, 6, count)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
}

func TestInvokeAll_CancelledContextSkipsCalls(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(stubCapability("echo", "")))
	inv := NewInvoker(reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scope := newTestScope()
	scope.Context = ctx

	count := 0
	inv.InvokeAll(scope, []Call{
		{ID: "c0", Name: "echo"},
		{ID: "c1", Name: "echo"},
	}, core.StrategySequential, func(Invocation) { count++ })

	assert.Equal(t, 0, count)
}

func TestDecodeArgs(t *testing.T) {
	args, err := DecodeArgs("")
	assert.NoError(t, err)
	assert.Empty(t, args)

	args, err = DecodeArgs(`{"path": "main.go", "line": 7}`)
	assert.NoError(t, err)
	assert.Equal(t, "main.go", args["path"])
	assert.Equal(t, 7.0, args["line"])

	_, err = DecodeArgs(`{"path": `)
	assert.Error(t, err)
}
