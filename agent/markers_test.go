package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMarker(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		marker Marker
		found  bool
	}{
		{name: "empty", text: "", found: false},
		{name: "plain text", text: "still working on it", found: false},
		{name: "opening tag only", text: "let me <complete>", found: false},
		{name: "complete", text: "all done <complete>summary</complete>", marker: MarkerComplete, found: true},
		{name: "ask", text: "<ask>which env?</ask>", marker: MarkerAsk, found: true},
		{name: "browser takeover", text: "<web-browser-takeover>login needed</web-browser-takeover>", marker: MarkerBrowserTakeover, found: true},
		{name: "ask beats complete", text: "<complete>done</complete> but <ask>sure?</ask>", marker: MarkerAsk, found: true},
		{name: "complete beats takeover", text: "<web-browser-takeover>x</web-browser-takeover><complete>y</complete>", marker: MarkerComplete, found: true},
		{name: "closing tag alone", text: "fragment tail</ask>", marker: MarkerAsk, found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marker, found := detectMarker(tt.text)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.marker, marker)
		})
	}
}
