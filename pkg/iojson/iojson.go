// Package iojson writes command output as JSON for scripting.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the JSON shape of a failed command.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// WriteError writes msg and data to w as an Error. Data that cannot be
// encoded is replaced by the encoding failure so a scripted caller always
// receives an object.
func WriteError(w io.Writer, msg string, data map[string]any) error {
	if err := Write(w, Error{Message: msg, Data: data}); err != nil {
		return Write(w, Error{Message: msg, Data: map[string]any{"json_error": err.Error()}})
	}
	return nil
}

// Write writes obj to w as indented JSON followed by a newline.
func Write(w io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
