package capabilities

import (
	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/model"
)

// Options configures the default capability set.
type Options struct {
	// Completions powers create_chat_completion. Nil omits the capability.
	Completions model.Model
}

// Default returns the standard capability set: signals, planning, sandbox
// execution, media extraction, charting, system info, git and the browser
// verbs.
func Default(optFns ...func(o *Options)) []capability.Capability {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	caps := []capability.Capability{
		Ask(),
		Complete(),
		BrowserTakeover(),
		CreatePlan(),
		UpdatePlanStep(),
		GetPlan(),
		ExecuteCommand(),
		ExecutePython(),
		ExtractTextFromImage(),
		TranscribeAudio(),
		ExtractDocumentData(),
		CreateChart(),
		GetSystemInfo(),
		GitCommand(),
	}
	caps = append(caps, Browser()...)

	if opts.Completions != nil {
		caps = append(caps, CreateChatCompletion(opts.Completions))
	}
	return caps
}
