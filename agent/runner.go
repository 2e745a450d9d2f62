package agent

import (
	"context"
	"fmt"

	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/logging"
)

// SessionStarter starts one model attempt for a run. The fragment channel
// carries everything the attempt emits; the error channel carries at most
// one terminal transport error and is closed after the fragment channel.
// A non-nil error return means the attempt never started.
type SessionStarter interface {
	StartSession(ctx context.Context, runID string, req core.RunRequest, policy core.ToolPolicy) (<-chan core.Fragment, <-chan error, error)
}

// Gate authorizes a run before its first attempt.
type Gate interface {
	// CheckCredits reports whether the user may start a run. A false ok
	// carries a human-readable reason; a non-nil error also denies the run.
	CheckCredits(ctx context.Context, userID string) (ok bool, reason string, err error)
}

// GateFunc is a functional adapter to allow ordinary functions to be used
// as Gates.
type GateFunc func(ctx context.Context, userID string) (bool, string, error)

// CheckCredits implements Gate.
func (f GateFunc) CheckCredits(ctx context.Context, userID string) (bool, string, error) {
	return f(ctx, userID)
}

// State describes where a run is in its lifecycle.
type State string

const (
	// StateRunning means attempts are still being made.
	StateRunning State = "running"

	// StateStoppedByMarker means an attempt emitted a stop marker.
	StateStoppedByMarker State = "stopped_by_marker"

	// StateStoppedByError means the run stopped on an error fragment, a
	// transport failure, a denied gate or a tripped attempt limit.
	StateStoppedByError State = "stopped_by_error"

	// StateStoppedByStartFailure means a session could not be started.
	StateStoppedByStartFailure State = "stopped_by_start_failure"
)

// Outcome is the terminal result of a run.
type Outcome struct {
	State    State
	Marker   Marker
	Attempts int
	Reason   string
}

// Options configures a Runner.
type Options struct {
	// Gate authorizes runs. Nil skips authorization.
	Gate Gate

	// Policy controls how capability calls are executed and recorded.
	Policy core.ToolPolicy

	// MaxAttempts caps model attempts per run. Zero means unlimited.
	MaxAttempts int

	// BufferSize is the capacity of the outbound fragment channel.
	BufferSize int

	// Logger receives run lifecycle events.
	Logger logging.Logger
}

// Runner drives run requests through repeated model attempts until a stop
// marker, an error or the attempt limit ends the run.
type Runner struct {
	starter     SessionStarter
	gate        Gate
	policy      core.ToolPolicy
	maxAttempts int
	bufferSize  int
	logger      logging.Logger
}

// NewRunner creates a Runner around a session starter.
func NewRunner(starter SessionStarter, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Policy:     core.DefaultToolPolicy(),
		BufferSize: 100,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 100
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{
		starter:     starter,
		gate:        opts.Gate,
		policy:      opts.Policy,
		maxAttempts: opts.MaxAttempts,
		bufferSize:  opts.BufferSize,
		logger:      opts.Logger,
	}
}

// Run is a handle to one in-flight or finished run.
type Run struct {
	id      string
	frags   chan core.Fragment
	done    chan struct{}
	outcome Outcome
}

// ID returns the run identifier stamped on every fragment.
func (r *Run) ID() string { return r.id }

// Fragments returns the run's fragment stream. The channel closes when the
// run reaches a terminal state; callers must drain it for the run to make
// progress once the buffer fills.
func (r *Run) Fragments() <-chan core.Fragment { return r.frags }

// Outcome blocks until the run is terminal and returns the result.
func (r *Run) Outcome() Outcome {
	<-r.done
	return r.outcome
}

// Wait blocks until the run is terminal or ctx is done.
func (r *Run) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, nil
	case <-ctx.Done():
		return Outcome{State: StateRunning}, ctx.Err()
	}
}

// Run starts the attempt loop for req and returns immediately. Fragments
// stream on the returned handle; the terminal state is available through
// (*Run).Outcome.
func (r *Runner) Run(ctx context.Context, req core.RunRequest) *Run {
	run := &Run{
		id:    core.NewID(),
		frags: make(chan core.Fragment, r.bufferSize),
		done:  make(chan struct{}),
	}
	go r.execute(ctx, req, run)
	return run
}

func (r *Runner) execute(ctx context.Context, req core.RunRequest, run *Run) {
	defer close(run.done)
	defer close(run.frags)

	r.logger.Info("run.start",
		"run_id", run.id,
		"conversation_id", req.ConversationID,
		"model", req.ModelName,
	)

	if r.gate != nil {
		ok, reason, err := r.gate.CheckCredits(ctx, req.UserID)
		if err != nil || !ok {
			msg := reason
			if err != nil {
				msg = fmt.Sprintf("credits check failed: %v", err)
			} else if msg == "" {
				msg = "insufficient credits"
			}
			r.logger.Warn("run.gate_denied", "run_id", run.id, "user_id", req.UserID, "reason", msg)
			r.emit(ctx, run, core.NewErrorFragment(run.id, msg))
			run.outcome = Outcome{State: StateStoppedByError, Reason: msg}
			return
		}
	}

	limiter := core.NewAttemptLimiter(r.maxAttempts)
	attempts := 0

	for {
		if err := limiter.Increment(); err != nil {
			r.logger.Warn("run.attempt_limit", "run_id", run.id, "attempts", attempts)
			r.emit(ctx, run, core.NewErrorFragment(run.id, err.Error()))
			run.outcome = Outcome{State: StateStoppedByError, Attempts: attempts, Reason: err.Error()}
			return
		}
		attempts++
		r.logger.Debug("run.attempt", "run_id", run.id, "attempt", attempts)

		frags, errs, err := r.starter.StartSession(ctx, run.id, req, r.policy)
		if err != nil {
			msg := fmt.Sprintf("session start failed: %v", err)
			r.logger.Error("run.start_failed", "run_id", run.id, "attempt", attempts, "error", err)
			r.emit(ctx, run, core.NewErrorFragment(run.id, msg))
			run.outcome = Outcome{State: StateStoppedByStartFailure, Attempts: attempts, Reason: msg}
			return
		}

		var (
			marker        Marker
			markerFound   bool
			errorDetected bool
		)

		for frag := range frags {
			if !r.emit(ctx, run, frag) {
				run.outcome = Outcome{State: StateStoppedByError, Attempts: attempts, Reason: ctx.Err().Error()}
				return
			}

			if frag.IsError() {
				errorDetected = true
				continue
			}
			if !frag.IsAssistant() {
				continue
			}

			text, decodeErr := frag.Content.Text()
			if decodeErr != nil {
				r.logger.Warn("run.fragment_decode_failed", "run_id", run.id, "error", decodeErr)
				continue
			}
			if m, ok := detectMarker(text); ok {
				// Later fragments repeat the full response text, so the
				// last detection decides.
				marker, markerFound = m, true
			}
		}

		if err, ok := <-errs; ok && err != nil {
			msg := fmt.Sprintf("model stream failed: %v", err)
			r.logger.Error("run.transport_error", "run_id", run.id, "attempt", attempts, "error", err)
			r.emit(ctx, run, core.NewErrorFragment(run.id, msg))
			run.outcome = Outcome{State: StateStoppedByError, Attempts: attempts, Reason: msg}
			return
		}

		if errorDetected {
			r.logger.Warn("run.error_detected", "run_id", run.id, "attempt", attempts)
			run.outcome = Outcome{State: StateStoppedByError, Attempts: attempts, Reason: "session reported an error"}
			return
		}
		if markerFound {
			r.logger.Info("run.marker_detected", "run_id", run.id, "attempt", attempts, "marker", string(marker))
			run.outcome = Outcome{State: StateStoppedByMarker, Marker: marker, Attempts: attempts}
			return
		}

		r.logger.Debug("run.continue", "run_id", run.id, "attempt", attempts)
	}
}

// emit forwards one fragment, giving up when ctx is done.
func (r *Runner) emit(ctx context.Context, run *Run, frag core.Fragment) bool {
	select {
	case run.frags <- frag:
		return true
	case <-ctx.Done():
		return false
	}
}
