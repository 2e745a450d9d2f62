// Package navvy provides a high-level façade over the agent runner, model
// sessions and stores. Most applications interact with this package by:
//  1. Creating a Navvy via New() (optionally overriding the default
//     in-memory stores, sandbox and capability set)
//  2. Registering one or more models (exact names, prefixes or a fallback)
//  3. Starting runs asynchronously (Run) or synchronously (RunSync)
//
// The façade wires the capability registry into a thread.Manager and the
// manager into an agent.Runner while keeping setup concise. All defaults
// are safe for local development and testing; production deployments
// typically supply a durable conversation store and a structured logger.
package navvy

import (
	"context"
	"fmt"

	"github.com/navvy-ai/navvy/agent"
	"github.com/navvy-ai/navvy/artifact"
	"github.com/navvy-ai/navvy/capabilities"
	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/conversation"
	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/logging"
	"github.com/navvy-ai/navvy/model"
	"github.com/navvy-ai/navvy/sandbox"
	"github.com/navvy-ai/navvy/thread"
)

// Options configures the Navvy instance.
type Options struct {
	// Store persists conversations. Defaults to in-memory.
	Store core.Store

	// Artifacts persists capability outputs such as plans and charts.
	// Defaults to in-memory.
	Artifacts core.ArtifactStore

	// Sandbox is the execution environment for shell-bound capabilities.
	// Nil leaves those capabilities registered but failing with a clear
	// message when called.
	Sandbox sandbox.Executor

	// Capabilities is the initial capability set. Nil registers the
	// standard set from the capabilities package.
	Capabilities []capability.Capability

	// Instruction overrides the default system prompt.
	Instruction thread.Instruction

	// Gate authorizes runs before the first model attempt. Nil skips
	// authorization.
	Gate agent.Gate

	// Policy controls capability execution and result injection.
	Policy core.ToolPolicy

	// MaxAttempts caps model attempts per run. Zero means unlimited.
	MaxAttempts int

	// DefaultModel is used when a run request names no model.
	DefaultModel string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Navvy is the high-level façade aggregating the runner and its services.
type Navvy struct {
	opts     Options
	resolver *model.StaticResolver
	registry *capability.Registry
	manager  *thread.Manager
	runner   *agent.Runner
}

// New creates a Navvy instance with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Navvy {
	opts := Options{
		Store:     conversation.NewInMemoryStore(),
		Artifacts: artifact.NewInMemoryStore(),
		Policy:    core.DefaultToolPolicy(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	resolver := model.NewStaticResolver()

	registry := capability.NewRegistry(func(o *capability.RegistryOptions) {
		o.Logger = opts.Logger
	})
	caps := opts.Capabilities
	if caps == nil {
		caps = capabilities.Default()
	}
	for _, c := range caps {
		if err := registry.Register(c); err != nil {
			opts.Logger.Warn("capability.register_failed", "capability", c.Name(), "error", err)
		}
	}

	manager := thread.NewManager(resolver, opts.Store, func(o *thread.ManagerOptions) {
		o.Registry = registry
		o.Artifacts = opts.Artifacts
		o.Sandbox = opts.Sandbox
		o.Logger = opts.Logger
		if !opts.Instruction.IsZero() {
			o.Instruction = opts.Instruction
		}
	})

	runner := agent.NewRunner(manager, func(o *agent.Options) {
		o.Gate = opts.Gate
		o.Policy = opts.Policy
		o.MaxAttempts = opts.MaxAttempts
		o.Logger = opts.Logger
	})

	return &Navvy{
		opts:     opts,
		resolver: resolver,
		registry: registry,
		manager:  manager,
		runner:   runner,
	}
}

// RegisterModel makes a model available under an exact name.
func (n *Navvy) RegisterModel(name string, m model.Model) { n.resolver.Register(name, m) }

// RegisterModelPrefix makes a model available for every name with the
// given prefix. Exact registrations win over prefixes.
func (n *Navvy) RegisterModelPrefix(prefix string, m model.Model) {
	n.resolver.RegisterPrefix(prefix, m)
}

// SetFallbackModel serves any name no registration matches.
func (n *Navvy) SetFallbackModel(m model.Model) { n.resolver.SetFallback(m) }

// RegisterCapability adds a capability to the registry.
func (n *Navvy) RegisterCapability(c capability.Capability) error {
	return n.registry.Register(c)
}

// Capabilities returns the registered capability names.
func (n *Navvy) Capabilities() []string { return n.registry.Names() }

// Store exposes the conversation store for inspection.
func (n *Navvy) Store() core.Store { return n.opts.Store }

// Run prepares the conversation and starts the attempt loop, returning
// immediately. Fragments stream on the returned handle.
func (n *Navvy) Run(ctx context.Context, req core.RunRequest) (*agent.Run, error) {
	if req.ModelName == "" {
		req.ModelName = n.opts.DefaultModel
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := n.manager.Prepare(ctx, req); err != nil {
		return nil, fmt.Errorf("prepare conversation: %w", err)
	}
	return n.runner.Run(ctx, req), nil
}

// RunSync is a synchronous helper that drains the fragment stream and
// returns everything the run emitted along with its outcome.
func (n *Navvy) RunSync(ctx context.Context, req core.RunRequest) ([]core.Fragment, agent.Outcome, error) {
	run, err := n.Run(ctx, req)
	if err != nil {
		return nil, agent.Outcome{}, err
	}

	var frags []core.Fragment
	for f := range run.Fragments() {
		frags = append(frags, f)
	}
	outcome, err := run.Wait(ctx)
	return frags, outcome, err
}
