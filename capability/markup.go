package capability

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Mapping sources name where a parameter's value lives in the markup form.
const (
	// SourceAttribute reads the value from a tag attribute.
	SourceAttribute = "attribute"
	// SourceElement reads the value from a child element's text.
	SourceElement = "element"
	// SourceContent reads the value from the tag body.
	SourceContent = "content"
)

// Mapping binds one capability parameter to part of the markup form.
type Mapping struct {
	// Param is the parameter name the extracted value is assigned to.
	Param string
	// Source is attribute, element or content.
	Source string
	// Node is the attribute or element name; empty means Param.
	Node string
}

// MarkupSpec declares the structured-markup calling form of a capability:
// the tag a model may emit instead of a native tool call, and how tag
// attributes and nested content map onto parameters.
type MarkupSpec struct {
	Tag      string
	Mappings []Mapping
	Example  string
}

func (m Mapping) node() string {
	if m.Node != "" {
		return m.Node
	}
	return m.Param
}

// ParsedCall is a markup call recognized in assistant text together with its
// byte extent, so streaming consumers can track which occurrences they have
// already executed.
type ParsedCall struct {
	Call
	Start int
	End   int
}

// ParseMarkupCalls scans text for complete occurrences of the given markup
// forms and extracts one Call per occurrence, ordered by position. Partial
// tags still streaming in are ignored until their closing tag arrives.
// Values are extracted as strings; the invoker coerces them against the
// capability's declared schema.
func ParseMarkupCalls(text string, specs []*MarkupSpec) []ParsedCall {
	var calls []ParsedCall

	for _, spec := range specs {
		tag := regexp.QuoteMeta(spec.Tag)
		full := regexp.MustCompile(`(?s)<` + tag + `(\s[^>]*?)?>(.*?)</` + tag + `>`)
		selfClosing := regexp.MustCompile(`<` + tag + `(\s[^>]*?)?/>`)

		for _, idx := range full.FindAllStringSubmatchIndex(text, -1) {
			attrs := submatch(text, idx, 1)
			body := submatch(text, idx, 2)
			calls = append(calls, ParsedCall{
				Call:  Call{Name: spec.Tag, Args: extractArgs(spec, attrs, body)},
				Start: idx[0],
				End:   idx[1],
			})
		}
		for _, idx := range selfClosing.FindAllStringSubmatchIndex(text, -1) {
			attrs := submatch(text, idx, 1)
			calls = append(calls, ParsedCall{
				Call:  Call{Name: spec.Tag, Args: extractArgs(spec, attrs, "")},
				Start: idx[0],
				End:   idx[1],
			})
		}
	}

	sort.Slice(calls, func(i, j int) bool { return calls[i].Start < calls[j].Start })
	return calls
}

func submatch(text string, idx []int, n int) string {
	if len(idx) <= 2*n+1 || idx[2*n] < 0 {
		return ""
	}
	return text[idx[2*n]:idx[2*n+1]]
}

var attrPattern = regexp.MustCompile(`([\w-]+)\s*=\s*"([^"]*)"`)

func extractArgs(spec *MarkupSpec, attrs, body string) map[string]any {
	attrValues := map[string]string{}
	for _, m := range attrPattern.FindAllStringSubmatch(attrs, -1) {
		attrValues[m[1]] = m[2]
	}

	args := map[string]any{}
	for _, mapping := range spec.Mappings {
		switch mapping.Source {
		case SourceAttribute:
			if v, ok := attrValues[mapping.node()]; ok {
				args[mapping.Param] = v
			}
		case SourceElement:
			node := regexp.QuoteMeta(mapping.node())
			re := regexp.MustCompile(`(?s)<` + node + `>(.*?)</` + node + `>`)
			if m := re.FindStringSubmatch(body); m != nil {
				args[mapping.Param] = strings.TrimSpace(m[1])
			}
		case SourceContent:
			args[mapping.Param] = strings.TrimSpace(body)
		}
	}
	return args
}

// CoerceArgs converts string argument values to the integer, number or
// boolean types a schema declares. Markup extraction is stringly typed;
// without coercion every non-string parameter would fail validation.
func CoerceArgs(args map[string]any, schema map[string]any) map[string]any {
	properties, _ := schema["properties"].(map[string]any)
	if properties == nil {
		return args
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
		s, isString := v.(string)
		if !isString {
			continue
		}
		prop, _ := properties[k].(map[string]any)
		if prop == nil {
			continue
		}
		switch prop["type"] {
		case "integer", "number":
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				out[k] = f
			}
		case "boolean":
			if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				out[k] = b
			}
		}
	}
	return out
}

// MarkupExamples renders the system prompt block describing every declared
// markup form, so models that cannot emit native tool calls know the tags.
func MarkupExamples(specs []*MarkupSpec) string {
	if len(specs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You may invoke capabilities by emitting XML-style tags in your response.\n")
	b.WriteString("Available markup forms:\n")
	for _, spec := range specs {
		b.WriteString("\n")
		if spec.Example != "" {
			b.WriteString(spec.Example)
			b.WriteString("\n")
			continue
		}
		b.WriteString(renderUsage(spec))
		b.WriteString("\n")
	}
	return b.String()
}

func renderUsage(spec *MarkupSpec) string {
	var attrs, elements []string
	content := false
	for _, m := range spec.Mappings {
		switch m.Source {
		case SourceAttribute:
			attrs = append(attrs, fmt.Sprintf(`%s="..."`, m.node()))
		case SourceElement:
			elements = append(elements, fmt.Sprintf("<%s>...</%s>", m.node(), m.node()))
		case SourceContent:
			content = true
		}
	}

	open := "<" + spec.Tag
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}

	switch {
	case len(elements) > 0:
		return open + ">" + strings.Join(elements, "") + "</" + spec.Tag + ">"
	case content:
		return open + ">...</" + spec.Tag + ">"
	default:
		return open + "/>"
	}
}
