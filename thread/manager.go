package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/compaction"
	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/logging"
	"github.com/navvy-ai/navvy/model"
	"github.com/navvy-ai/navvy/sandbox"
)

// ManagerOptions configure a Manager instance.
//
// Use functional options with NewManager to override defaults.
type ManagerOptions struct {
	// Registry holds the capabilities declared to the model. Defaults to an
	// empty registry.
	Registry *capability.Registry

	// Invoker executes recognized capability calls. Defaults to an invoker
	// over the registry with order-preserving parallel batches.
	Invoker *capability.Invoker

	// Artifacts is the store capabilities save files to. Optional.
	Artifacts core.ArtifactStore

	// Sandbox is the execution environment shell-out capabilities run
	// against. Optional.
	Sandbox sandbox.Executor

	// Compactor trims old tool results from the history when the request
	// enables context compaction. Defaults to a compactor with standard
	// thresholds.
	Compactor *compaction.Compactor

	// Instruction is the default system prompt, used when the request does
	// not carry an override.
	Instruction Instruction

	// BufferSize is the fragment channel capacity per session.
	BufferSize int

	Logger logging.Logger
}

// Manager turns run requests into model sessions. One StartSession call is
// one model attempt: a single provider request whose stream is consumed to
// exhaustion, with capability calls executed along the way.
type Manager struct {
	resolver    model.Resolver
	store       core.Store
	registry    *capability.Registry
	invoker     *capability.Invoker
	artifacts   core.ArtifactStore
	sandbox     sandbox.Executor
	compactor   *compaction.Compactor
	instruction Instruction
	bufferSize  int
	logger      logging.Logger
}

// NewManager creates a Manager over a model resolver and a conversation
// store.
func NewManager(resolver model.Resolver, store core.Store, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		Instruction: NewInstructionFromText(defaultInstructionText),
		BufferSize:  100,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = capability.NewRegistry()
	}
	if opts.Invoker == nil {
		opts.Invoker = capability.NewInvoker(opts.Registry, func(o *capability.InvokerOptions) {
			o.Logger = opts.Logger
		})
	}
	if opts.Compactor == nil {
		opts.Compactor = compaction.NewCompactor(func(o *compaction.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Instruction.IsZero() {
		opts.Instruction = NewInstructionFromText(defaultInstructionText)
	}

	return &Manager{
		resolver:    resolver,
		store:       store,
		registry:    opts.Registry,
		invoker:     opts.Invoker,
		artifacts:   opts.Artifacts,
		sandbox:     opts.Sandbox,
		compactor:   opts.Compactor,
		instruction: opts.Instruction,
		bufferSize:  opts.BufferSize,
		logger:      opts.Logger,
	}
}

// Registry returns the capability registry sessions declare to the model.
func (m *Manager) Registry() *capability.Registry { return m.registry }

// Prepare makes the conversation ready for a run: it creates the
// conversation if it does not exist and appends the request's user message.
// Callers invoke it once per run, before the attempt loop; the attempts
// themselves never append user input, so re-running a session against the
// same request stays idempotent.
func (m *Manager) Prepare(ctx context.Context, req core.RunRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if _, err := m.store.GetConversation(ctx, req.ConversationID); err != nil {
		if !errors.Is(err, core.ErrConversationNotFound) {
			return fmt.Errorf("get conversation: %w", err)
		}

		conv := core.NewConversation(req.ConversationID, req.ProjectID)
		for k, v := range req.Metadata {
			conv.Metadata[k] = v
		}
		if err := m.store.CreateConversation(ctx, conv); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
	}

	return m.store.AppendMessage(ctx, core.NewUserMessage(req.ConversationID, req.Message))
}

// StartSession begins one model attempt and returns its fragment stream.
// A non-nil error means the session never started: nothing was generated
// and no fragment will be emitted. Otherwise the fragment channel delivers
// the attempt's output in order and is closed when the attempt ends; the
// error channel carries at most one terminal transport error and closes
// after the fragment channel.
func (m *Manager) StartSession(ctx context.Context, runID string, req core.RunRequest, policy core.ToolPolicy) (<-chan core.Fragment, <-chan error, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	mdl, err := m.resolver.Resolve(req.ModelName)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve model %q: %w", req.ModelName, err)
	}

	history, err := m.store.ModelHistory(ctx, req.ConversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load conversation history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("conversation %s has no model-visible messages", req.ConversationID)
	}
	if req.EnableContextCompaction && m.compactor != nil {
		history = m.compactor.Compact(history)
	}

	system, err := m.systemPrompt(req)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve instruction: %w", err)
	}

	s := &session{
		runID:     runID,
		req:       req,
		policy:    policy,
		model:     mdl,
		system:    system,
		history:   history,
		tools:     m.toolDefs(),
		specs:     m.registry.MarkupSpecs(),
		tagNames:  m.tagNames(),
		store:     m.store,
		artifacts: m.artifacts,
		sandbox:   m.sandbox,
		invoker:   m.invoker,
		logger:    m.logger,
		out:       make(chan core.Fragment, m.bufferSize),
		errs:      make(chan error, 1),
	}

	m.logger.Info("session.start",
		"run_id", runID,
		"conversation_id", req.ConversationID,
		"model", req.ModelName,
		"history", len(history),
		"on_stream", policy.ExecuteOnStream,
	)

	go s.run(ctx)

	return s.out, s.errs, nil
}

func (m *Manager) systemPrompt(req core.RunRequest) (string, error) {
	base := req.SystemPrompt
	if base == "" {
		resolved, err := m.instruction.Resolve(req)
		if err != nil {
			return "", err
		}
		base = resolved
	}

	return buildSystemPrompt(base, m.registry.MarkupSpecs(), includeSampleResponse(req.ModelName)), nil
}

func (m *Manager) toolDefs() []model.ToolDef {
	caps := m.registry.All()
	if len(caps) == 0 {
		return nil
	}

	defs := make([]model.ToolDef, 0, len(caps))
	for _, c := range caps {
		defs = append(defs, model.ToolDef{
			Name:        c.Name(),
			Description: c.Description(),
			Parameters:  c.Parameters(),
		})
	}
	return defs
}

// tagNames maps markup tags to the capability names that own them, so
// parsed markup calls resolve in the registry even when tag and name differ.
func (m *Manager) tagNames() map[string]string {
	names := map[string]string{}
	for _, c := range m.registry.All() {
		if spec := c.Markup(); spec != nil {
			names[spec.Tag] = c.Name()
		}
	}
	return names
}

// session drives one provider stream to exhaustion. All stream handling
// runs on the session goroutine; only capability batches fan out.
type session struct {
	runID     string
	req       core.RunRequest
	policy    core.ToolPolicy
	model     model.Model
	system    string
	history   []core.Message
	tools     []model.ToolDef
	specs     []*capability.MarkupSpec
	tagNames  map[string]string
	store     core.Store
	artifacts core.ArtifactStore
	sandbox   sandbox.Executor
	invoker   *capability.Invoker
	logger    logging.Logger

	out  chan core.Fragment
	errs chan error

	text         strings.Builder
	markupCursor int

	toolWG    sync.WaitGroup
	invMu     sync.Mutex
	completed []capability.Invocation
}

func (s *session) run(ctx context.Context) {
	defer func() {
		close(s.out)
		close(s.errs)
	}()

	s.emit(ctx, core.NewStatusFragment(s.runID, core.StatusStarted, "session started"))

	respCh, errCh := s.model.Generate(ctx, model.Request{
		System:          s.system,
		Messages:        s.history,
		Tools:           s.tools,
		Temperature:     s.req.Temperature,
		MaxTokens:       s.req.MaxTokens,
		Thinking:        s.req.EnableThinking,
		ReasoningEffort: s.req.ReasoningEffort,
		Stream:          true,
	})

	var final *model.Response
	for resp := range respCh {
		if resp.Partial {
			s.handleDelta(ctx, resp)
			continue
		}
		r := resp
		final = &r
	}

	// The provider closes the error channel after the response channel, so
	// this read returns promptly with the terminal error or nothing.
	if err, ok := <-errCh; ok && err != nil {
		s.toolWG.Wait()
		s.logger.Error("session.transport_error", "run_id", s.runID, "error", err.Error())
		s.errs <- err
		return
	}

	s.finish(ctx, final)
}

// handleDelta forwards one streamed chunk and, under an execute-on-stream
// policy, dispatches any markup calls the chunk completed.
func (s *session) handleDelta(ctx context.Context, resp model.Response) {
	if resp.Thinking != "" {
		s.emit(ctx, core.NewAssistantFragment(s.runID, core.DecodedEnvelope(map[string]any{
			"role":          "assistant",
			"thinking":      resp.Thinking,
			"stream_status": "chunk",
		})))
	}

	if resp.Text == "" {
		return
	}

	s.text.WriteString(resp.Text)
	s.emit(ctx, core.NewAssistantFragment(s.runID, core.DecodedEnvelope(map[string]any{
		"role":          "assistant",
		"content":       resp.Text,
		"stream_status": "chunk",
	})))

	if s.policy.ExecuteOnStream && len(s.specs) > 0 {
		if batch := s.markupCalls(s.text.String()); len(batch) > 0 {
			s.dispatch(ctx, batch, true)
		}
	}
}

// finish executes the turn's remaining calls, records the attempt and emits
// the closing fragments.
func (s *session) finish(ctx context.Context, final *model.Response) {
	fullText := s.text.String()
	if final != nil && final.Text != "" {
		fullText = final.Text
	}

	var batch []capability.Call
	if len(s.specs) > 0 {
		batch = s.markupCalls(fullText)
	}
	if final != nil {
		batch = append(batch, s.nativeCalls(final.ToolCalls)...)
	}
	if len(batch) > 0 {
		s.dispatch(ctx, batch, false)
	}
	s.toolWG.Wait()

	// Record the assistant turn first, then the capability outcomes in
	// emission order, so the next attempt reads a coherent history.
	if fullText != "" {
		if err := s.store.AppendMessage(ctx, core.NewAssistantMessage(s.req.ConversationID, fullText)); err != nil {
			s.fail(fmt.Errorf("append assistant message: %w", err))
			return
		}
	}
	if err := s.recordInvocations(ctx); err != nil {
		s.fail(err)
		return
	}

	s.emit(ctx, s.finalAssistantFragment(fullText, final))
	s.emit(ctx, core.NewStatusFragment(s.runID, core.StatusCompleted, "session completed"))

	s.logger.Info("session.completed",
		"run_id", s.runID,
		"conversation_id", s.req.ConversationID,
		"chars", len(fullText),
	)
}

func (s *session) fail(err error) {
	s.logger.Error("session.failed", "run_id", s.runID, "error", err.Error())
	s.errs <- err
}

// markupCalls returns calls whose closing tag arrived since the last scan.
// The cursor tracks byte extents in the accumulated text, which only grows,
// so completed occurrences are dispatched exactly once.
func (s *session) markupCalls(text string) []capability.Call {
	parsed := capability.ParseMarkupCalls(text, s.specs)

	var batch []capability.Call
	cursor := s.markupCursor
	for _, pc := range parsed {
		if pc.End <= s.markupCursor {
			continue
		}
		batch = append(batch, s.resolveCall(pc.Call))
		if pc.End > cursor {
			cursor = pc.End
		}
	}
	s.markupCursor = cursor
	return batch
}

func (s *session) nativeCalls(toolCalls []model.ToolCall) []capability.Call {
	var calls []capability.Call
	for _, tc := range toolCalls {
		args, err := capability.DecodeArgs(tc.Arguments)
		if err != nil {
			s.logger.Warn("session.tool_args.decode_failed",
				"run_id", s.runID,
				"capability", tc.Name,
				"error", err.Error(),
			)
			args = map[string]any{}
		}
		calls = append(calls, s.resolveCall(capability.Call{ID: tc.ID, Name: tc.Name, Args: args}))
	}
	return calls
}

// resolveCall maps a markup tag to its owning capability name and assigns a
// call ID when the source form carried none.
func (s *session) resolveCall(call capability.Call) capability.Call {
	if name, ok := s.tagNames[call.Name]; ok {
		call.Name = name
	}
	if call.ID == "" {
		call.ID = core.NewID()
	}
	return call
}

// dispatch executes one batch of calls under the session policy. Async
// batches run concurrently with the rest of the stream; the session waits
// for them before it records outcomes and closes.
func (s *session) dispatch(ctx context.Context, batch []capability.Call, async bool) {
	scope := capability.Scope{
		Context:        ctx,
		ConversationID: s.req.ConversationID,
		RunID:          s.runID,
		SandboxID:      s.req.SandboxID,
		Store:          s.store,
		Artifacts:      s.artifacts,
		Sandbox:        s.sandbox,
		Logger:         s.logger,
	}

	run := func() {
		s.invoker.InvokeAll(scope, batch, s.policy.Strategy, func(inv capability.Invocation) {
			s.emit(ctx, core.NewToolFragment(s.runID, inv.Call.Name, toolPayload(inv)))

			s.invMu.Lock()
			s.completed = append(s.completed, inv)
			s.invMu.Unlock()
		})
	}

	if async {
		s.toolWG.Add(1)
		go func() {
			defer s.toolWG.Done()
			run()
		}()
		return
	}
	run()
}

// recordInvocations appends one record per capability outcome, in emission
// order, with the role the injection policy selects. The records are
// model-visible: they are how results reach the next attempt's context.
func (s *session) recordInvocations(ctx context.Context) error {
	s.invMu.Lock()
	completed := s.completed
	s.completed = nil
	s.invMu.Unlock()

	role := "user"
	if s.policy.Injection == core.InjectAssistantMessage {
		role = "assistant"
	}

	for _, inv := range completed {
		msg := core.NewMessage(s.req.ConversationID, core.MessageTypeTool, role, formatInvocation(inv), true)
		if err := s.store.AppendMessage(ctx, msg); err != nil {
			return fmt.Errorf("append tool result: %w", err)
		}
	}
	return nil
}

func (s *session) finalAssistantFragment(fullText string, final *model.Response) core.Fragment {
	content := map[string]any{
		"role":          "assistant",
		"content":       fullText,
		"stream_status": "complete",
	}
	if final != nil {
		if final.FinishReason != "" {
			content["finish_reason"] = final.FinishReason
		}
		if final.Usage != nil {
			content["usage"] = map[string]any{
				"input_tokens":  final.Usage.InputTokens,
				"output_tokens": final.Usage.OutputTokens,
			}
		}
	}
	return core.NewAssistantFragment(s.runID, core.DecodedEnvelope(content))
}

func (s *session) emit(ctx context.Context, frag core.Fragment) {
	select {
	case s.out <- frag:
	case <-ctx.Done():
	}
}

func toolPayload(inv capability.Invocation) map[string]any {
	payload := inv.Result.Payload()
	payload["call_id"] = inv.Call.ID
	payload["duration_ms"] = inv.Duration.Milliseconds()
	return payload
}

// formatInvocation renders one capability outcome in the wrapped form the
// model reads back on the next attempt.
func formatInvocation(inv capability.Invocation) string {
	if inv.Result.OK() {
		return fmt.Sprintf("<tool_result name=%q>\n%s\n</tool_result>", inv.Call.Name, inv.Result.Output)
	}
	return fmt.Sprintf("<tool_result name=%q status=\"error\">\n%s\n</tool_result>", inv.Call.Name, inv.Result.Error)
}
