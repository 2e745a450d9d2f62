package thread

import (
	"strings"

	"github.com/navvy-ai/navvy/capability"
)

// defaultInstructionText is the system prompt used when neither the request
// nor the Manager supplies one.
const defaultInstructionText = `You are Navvy, an autonomous assistant that works toward the user's goal in
discrete steps.

Use the capabilities declared to you whenever they move the task forward,
and narrate briefly what you are doing. When you need input from the user,
ask for it and stop. When the task is finished, signal completion. If you
neither ask nor signal completion, you will be prompted to continue working.`

// sampleResponse is a worked example of the markup calling form, appended to
// the system prompt for models that do not reliably follow the declared tag
// forms from the descriptions alone.
const sampleResponse = `

## Sample response

The following response demonstrates the expected style:

  I'll inspect the working directory first to understand the layout.

  <execute-command command="ls -la"/>

  The listing shows a standard Go module with a cmd directory. That answers
  the question, so I'm done.

  <complete>The repository is a standard Go module; details above.</complete>`

// includeSampleResponse reports whether the worked example belongs in the
// prompt for the named model. Anthropic models follow the declared markup
// forms without it; everything else gets the sample.
func includeSampleResponse(modelName string) bool {
	return !strings.Contains(strings.ToLower(modelName), "anthropic")
}

// buildSystemPrompt composes the final system prompt: the base instruction,
// the markup forms of every registered capability, and optionally the worked
// sample response.
func buildSystemPrompt(base string, specs []*capability.MarkupSpec, withSample bool) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))

	if block := capability.MarkupExamples(specs); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}

	if withSample {
		b.WriteString(sampleResponse)
	}

	return b.String()
}
