package capability

import (
	"context"
	"errors"

	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/logging"
	"github.com/navvy-ai/navvy/sandbox"
)

// Scope carries the run-level collaborators shared by every capability call
// within one attempt. The model session builds one Scope per attempt and the
// invoker derives a per-call Context from it.
type Scope struct {
	Context        context.Context
	ConversationID string
	RunID          string
	SandboxID      string
	Store          core.Store
	Artifacts      core.ArtifactStore
	Sandbox        sandbox.Executor
	Logger         logging.Logger
}

// Context provides a constrained, auditable surface for capability
// implementations. It exposes the collaborators a thin wrapper needs to
// perform its one action and record it.
type Context struct {
	scope  Scope
	callID string

	*loggerHolder
}

// NewContext derives a per-call context from a scope and call identifier.
func NewContext(scope Scope, callID string) *Context {
	return &Context{
		scope:        scope,
		callID:       callID,
		loggerHolder: newLoggerHolder(scope.Logger),
	}
}

// Context returns the Go context associated with the call.
func (c *Context) Context() context.Context {
	if c.scope.Context == nil {
		return context.Background()
	}
	return c.scope.Context
}

// ConversationID returns the conversation the run appends to.
func (c *Context) ConversationID() string { return c.scope.ConversationID }

// RunID returns the run this call belongs to.
func (c *Context) RunID() string { return c.scope.RunID }

// CallID returns the identifier correlating the model's call request with
// this execution.
func (c *Context) CallID() string { return c.callID }

// SandboxID returns the execution environment identifier from the request.
func (c *Context) SandboxID() string { return c.scope.SandboxID }

// Sandbox returns the execution environment, or nil when none is configured.
func (c *Context) Sandbox() sandbox.Executor { return c.scope.Sandbox }

// Logger returns the logger associated with the call.
func (c *Context) Logger() logging.Logger { return c.loggerHolder.Logger() }

// RecordMessage appends a record to the conversation log on the capability's
// behalf. Model-visible records become part of the history the next attempt
// sees; out-of-band records are kept for the caller only.
func (c *Context) RecordMessage(msgType, role, content string, modelVisible bool) error {
	if c.scope.Store == nil {
		return errors.New("no conversation store configured")
	}
	msg := core.NewMessage(c.scope.ConversationID, msgType, role, content, modelVisible)
	return c.scope.Store.AppendMessage(c.Context(), msg)
}

// SaveArtifact stores a named blob scoped to the conversation and returns
// the new version.
func (c *Context) SaveArtifact(name string, data []byte) (int, error) {
	if c.scope.Artifacts == nil {
		return 0, errors.New("no artifact store configured")
	}
	return c.scope.Artifacts.Save(c.scope.ConversationID, name, data)
}

// LoadArtifact fetches a named blob; version 0 means latest.
func (c *Context) LoadArtifact(name string, version int) (core.Artifact, error) {
	if c.scope.Artifacts == nil {
		return core.Artifact{}, errors.New("no artifact store configured")
	}
	return c.scope.Artifacts.Load(c.scope.ConversationID, name, version)
}

// loggerHolder guarantees a non-nil logger and exposes convenience methods.
type loggerHolder struct {
	logger logging.Logger
}

func newLoggerHolder(l logging.Logger) *loggerHolder {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &loggerHolder{logger: l}
}

// Logger returns the underlying logger.
func (l *loggerHolder) Logger() logging.Logger { return l.logger }

// LogDebug logs a debug message.
func (l *loggerHolder) LogDebug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// LogInfo logs an info message.
func (l *loggerHolder) LogInfo(msg string, args ...any) { l.logger.Info(msg, args...) }

// LogWarn logs a warning message.
func (l *loggerHolder) LogWarn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// LogError logs an error message.
func (l *loggerHolder) LogError(msg string, args ...any) { l.logger.Error(msg, args...) }
