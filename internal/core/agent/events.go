package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// EventKind classifies a marker found in agent output.
type EventKind string

const (
	EventToolUse       EventKind = "tool_use"
	EventToolResult    EventKind = "tool_result"
	EventAssistantText EventKind = "assistant_text"
)

// Event is a structured marker emitted by the agent.
type Event struct {
	Kind      EventKind       `json:"kind"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Text      string          `json:"text,omitempty"`
}

var (
	toolUseRe       = regexp.MustCompile(`<tool_use>(.*?)</tool_use>`)
	toolResultRe    = regexp.MustCompile(`<tool_result>(.*?)</tool_result>`)
	assistantTextRe = regexp.MustCompile(`<assistant_text>(.*?)</assistant_text>`)
)

type toolMarker struct {
	ToolUseID string          `json:"toolUseId"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	Content   json.RawMessage `json:"content"`
}

// ParseEvents extracts markers line by line. Markers with malformed JSON are
// skipped.
func ParseEvents(output string) []Event {
	var events []Event
	for _, line := range strings.Split(output, "\n") {
		events = append(events, parseLine(line)...)
	}
	return events
}

func parseLine(line string) []Event {
	var events []Event

	for _, m := range toolUseRe.FindAllStringSubmatch(line, -1) {
		var tm toolMarker
		if json.Unmarshal([]byte(m[1]), &tm) != nil || tm.ToolUseID == "" || tm.Name == "" {
			continue
		}
		events = append(events, Event{Kind: EventToolUse, ToolUseID: tm.ToolUseID, ToolName: tm.Name, Payload: tm.Input})
	}

	for _, m := range toolResultRe.FindAllStringSubmatch(line, -1) {
		var tm toolMarker
		if json.Unmarshal([]byte(m[1]), &tm) != nil || tm.ToolUseID == "" {
			continue
		}
		events = append(events, Event{Kind: EventToolResult, ToolUseID: tm.ToolUseID, Payload: tm.Content})
	}

	for _, m := range assistantTextRe.FindAllStringSubmatch(line, -1) {
		events = append(events, Event{Kind: EventAssistantText, Text: m[1]})
	}

	return events
}
