// Package sse reads Server-Sent Events as emitted by the chat completion APIs.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single data line; completion fragments are small but
// tool or error payloads can exceed bufio's 64KB default.
const maxLineSize = 1024 * 1024

// Event is one dispatched SSE event.
type Event struct {
	Name string
	Data string
}

// Reader splits an SSE body into events.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next returns the next event with a non-empty data or event field.
// It returns io.EOF when the body is exhausted.
func (r *Reader) Next() (*Event, error) {
	var name string
	var dataLines []string

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Empty line dispatches the event
		if line == "" {
			if name != "" || len(dataLines) > 0 {
				return &Event{Name: name, Data: strings.Join(dataLines, "\n")}, nil
			}
			continue
		}

		// Comments
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			name = value
		case "data":
			dataLines = append(dataLines, value)
		}
		// id and retry are not used by any provider we talk to
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Body ended without a trailing blank line
	if name != "" || len(dataLines) > 0 {
		return &Event{Name: name, Data: strings.Join(dataLines, "\n")}, nil
	}
	return nil, io.EOF
}
