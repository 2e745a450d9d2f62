// Package compaction reduces the model-visible conversation history when it
// approaches the context window. Old tool results are trimmed in two
// passes: a soft trim keeps the head and tail of long results, a hard
// clear replaces entire results with a placeholder. The persisted message
// log is never modified; compaction only shapes what a single model call
// sees.
package compaction

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/navvy-ai/navvy/core"
	"github.com/navvy-ai/navvy/logging"
)

const (
	defaultContextWindow        = 128000
	defaultKeepLastAssistants   = 3
	defaultSoftTrimRatio        = 0.3
	defaultHardClearRatio       = 0.5
	defaultMinPrunableToolChars = 50000
	defaultSoftTrimMaxChars     = 4000
	defaultSoftTrimHeadChars    = 1500
	defaultSoftTrimTailChars    = 1500
	defaultPlaceholder          = "[Old tool result content cleared]"
)

// TokenCounter counts tokens with the cl100k_base encoding, falling back
// to a character-based estimate when the encoding is unavailable (for
// example, offline environments that cannot fetch the BPE ranks).
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter returns a counter; the encoding loads lazily on first use.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// Count returns the token count of text.
func (c *TokenCounter) Count(text string) int {
	c.once.Do(func() {
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			c.enc = enc
		}
	})

	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}

	// Rough estimate: ASCII ~4 chars/token, non-ASCII (e.g. CJK) ~2 tokens/char.
	ascii, nonASCII := 0, 0
	for _, r := range text {
		if r <= 127 {
			ascii++
		} else {
			nonASCII++
		}
	}
	return ascii/4 + nonASCII*2
}

// CountMessages sums the token counts of all message contents, adding a
// small per-message overhead for role framing.
func (c *TokenCounter) CountMessages(msgs []core.Message) int {
	total := 0
	for _, msg := range msgs {
		total += c.Count(msg.Content) + 4
	}
	return total
}

// Options configure the compactor. Zero values take the defaults.
type Options struct {
	// ContextWindow is the model's context size in tokens.
	ContextWindow int
	// KeepLastAssistants protects tool results at or after the Nth-from-last
	// assistant message.
	KeepLastAssistants int
	// SoftTrimRatio is the usage ratio above which soft trimming starts.
	SoftTrimRatio float64
	// HardClearRatio is the usage ratio above which whole results are
	// replaced by the placeholder.
	HardClearRatio float64
	// MinPrunableToolChars gates hard clearing: below this many prunable
	// characters it is not worth destroying results.
	MinPrunableToolChars int
	// SoftTrimMaxChars is the per-result length above which soft trim
	// applies.
	SoftTrimMaxChars  int
	SoftTrimHeadChars int
	SoftTrimTailChars int
	// HardClearDisabled turns off the second pass.
	HardClearDisabled bool
	// Placeholder replaces hard-cleared tool results.
	Placeholder string

	Logger logging.Logger
}

// Compactor applies the two-pass prune to a message history.
type Compactor struct {
	opts    Options
	counter *TokenCounter
	logger  logging.Logger
}

// NewCompactor builds a compactor with defaults overridable through
// functional options.
func NewCompactor(optFns ...func(o *Options)) *Compactor {
	opts := Options{
		ContextWindow:        defaultContextWindow,
		KeepLastAssistants:   defaultKeepLastAssistants,
		SoftTrimRatio:        defaultSoftTrimRatio,
		HardClearRatio:       defaultHardClearRatio,
		MinPrunableToolChars: defaultMinPrunableToolChars,
		SoftTrimMaxChars:     defaultSoftTrimMaxChars,
		SoftTrimHeadChars:    defaultSoftTrimHeadChars,
		SoftTrimTailChars:    defaultSoftTrimTailChars,
		Placeholder:          defaultPlaceholder,
		Logger:               logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Compactor{
		opts:    opts,
		counter: NewTokenCounter(),
		logger:  opts.Logger,
	}
}

// Counter exposes the underlying token counter.
func (c *Compactor) Counter() *TokenCounter { return c.counter }

// Compact trims old tool results so the history fits the context window.
// Only tool records older than the protected window are eligible. Returns
// a new slice if any changes were made, otherwise the original.
func (c *Compactor) Compact(msgs []core.Message) []core.Message {
	if c.opts.ContextWindow <= 0 || len(msgs) == 0 {
		return msgs
	}

	// Protect the last N assistant messages and everything after them.
	cutoff := assistantCutoff(msgs, c.opts.KeepLastAssistants)
	if cutoff < 0 {
		return msgs
	}

	// Never prune before the first user message.
	pruneStart := len(msgs)
	for i, msg := range msgs {
		if msg.Type == core.MessageTypeUser {
			pruneStart = i
			break
		}
	}

	totalTokens := c.counter.CountMessages(msgs)
	ratio := float64(totalTokens) / float64(c.opts.ContextWindow)
	if ratio < c.opts.SoftTrimRatio {
		return msgs
	}

	var prunable []int
	for i := pruneStart; i < cutoff; i++ {
		if msgs[i].Type == core.MessageTypeTool && msgs[i].Content != "" {
			prunable = append(prunable, i)
		}
	}
	if len(prunable) == 0 {
		return msgs
	}

	// Pass 1: soft trim long tool results.
	var result []core.Message
	softTrimmed := 0
	for _, idx := range prunable {
		msg := msgs[idx]
		runes := utf8.RuneCountInString(msg.Content)
		if runes <= c.opts.SoftTrimMaxChars {
			continue
		}

		if result == nil {
			result = make([]core.Message, len(msgs))
			copy(result, msgs)
		}

		trimmed := fmt.Sprintf("%s\n...\n%s\n\n[Tool result trimmed: kept first %d chars and last %d chars of %d chars.]",
			takeHead(msg.Content, c.opts.SoftTrimHeadChars),
			takeTail(msg.Content, c.opts.SoftTrimTailChars),
			c.opts.SoftTrimHeadChars, c.opts.SoftTrimTailChars, runes)

		totalTokens += c.counter.Count(trimmed) - c.counter.Count(msg.Content)
		result[idx].Content = trimmed
		softTrimmed++
	}

	output := msgs
	if result != nil {
		output = result
	}

	ratio = float64(totalTokens) / float64(c.opts.ContextWindow)
	if ratio < c.opts.HardClearRatio || c.opts.HardClearDisabled {
		c.logCompaction(softTrimmed, 0, totalTokens)
		return output
	}

	prunableChars := 0
	for _, idx := range prunable {
		prunableChars += utf8.RuneCountInString(output[idx].Content)
	}
	if prunableChars < c.opts.MinPrunableToolChars {
		c.logCompaction(softTrimmed, 0, totalTokens)
		return output
	}

	// Pass 2: hard clear, oldest first, until usage drops below the ratio.
	if result == nil {
		result = make([]core.Message, len(msgs))
		copy(result, msgs)
		output = result
	}

	hardCleared := 0
	for _, idx := range prunable {
		if ratio < c.opts.HardClearRatio {
			break
		}
		totalTokens += c.counter.Count(c.opts.Placeholder) - c.counter.Count(output[idx].Content)
		output[idx].Content = c.opts.Placeholder
		hardCleared++
		ratio = float64(totalTokens) / float64(c.opts.ContextWindow)
	}

	c.logCompaction(softTrimmed, hardCleared, totalTokens)
	return output
}

func (c *Compactor) logCompaction(softTrimmed, hardCleared, tokens int) {
	if softTrimmed == 0 && hardCleared == 0 {
		return
	}
	c.logger.Info("compaction.applied",
		"soft_trimmed", softTrimmed,
		"hard_cleared", hardCleared,
		"tokens_after", tokens,
	)
}

// assistantCutoff returns the index of the Nth-from-last assistant message.
// Records at or after this index are protected. Returns -1 if fewer than
// keepLast assistant messages exist.
func assistantCutoff(msgs []core.Message, keepLast int) int {
	if keepLast <= 0 {
		return len(msgs)
	}

	remaining := keepLast
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == core.MessageTypeAssistant {
			remaining--
			if remaining == 0 {
				return i
			}
		}
	}
	return -1
}

func takeHead(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func takeTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
