// Package iojson reads command input and writes --json output for the CLI.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the payload written to stderr when a --json command fails.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// fallback is written when the real payload cannot be encoded. It is built
// from two marshaled strings so it is always valid JSON.
func fallback(msg string, cause error) string {
	m, _ := json.Marshal(msg)
	c, _ := json.Marshal(cause.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, m, c)
}

// WriteErrorTo writes an indented Error to w.
func WriteErrorTo(w io.Writer, msg string, data map[string]any) error {
	body, err := json.MarshalIndent(Error{Message: msg, Data: data}, "", "  ")
	if err != nil {
		_, werr := fmt.Fprintln(w, fallback(msg, err))
		return werr
	}
	_, err = fmt.Fprintln(w, string(body))
	return err
}

// WriteWith writes obj as indented JSON to w. Encoding failures are reported
// to ew in the Error shape instead.
func WriteWith(w, ew io.Writer, obj any) error {
	body, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, werr := fmt.Fprintln(ew, fallback("encode output", err))
		return werr
	}
	_, err = fmt.Fprintln(w, string(body))
	return err
}

// WriteLine writes obj as one compact JSON line, for streaming output.
func WriteLine(w io.Writer, obj any) error {
	return json.NewEncoder(w).Encode(obj)
}
