package agent

import "strings"

// Marker identifies the signal capability that stopped a run.
type Marker string

const (
	// MarkerAsk means the assistant asked the user a question and is
	// waiting for input.
	MarkerAsk Marker = "ask"

	// MarkerComplete means the assistant declared the task finished.
	MarkerComplete Marker = "complete"

	// MarkerBrowserTakeover means the assistant requested manual control
	// of the browser.
	MarkerBrowserTakeover Marker = "web-browser-takeover"
)

// markerTags is ordered by precedence: when one response carries several
// closing tags, the earliest entry wins.
var markerTags = []struct {
	tag    string
	marker Marker
}{
	{"</ask>", MarkerAsk},
	{"</complete>", MarkerComplete},
	{"</web-browser-takeover>", MarkerBrowserTakeover},
}

// detectMarker scans assistant text for a stop marker. Only closing tags
// count, so a tag split across stream chunks is picked up once the chunk
// carrying the closing form arrives.
func detectMarker(text string) (Marker, bool) {
	if text == "" {
		return "", false
	}
	for _, mt := range markerTags {
		if strings.Contains(text, mt.tag) {
			return mt.marker, true
		}
	}
	return "", false
}
