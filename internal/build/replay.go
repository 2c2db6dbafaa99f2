package build

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// ReadEvents decodes build events from JSON lines, one object per line.
// Blank lines are skipped. Recognised fields: kind, message, code, file,
// line, column, project, succeeded, timestamp (RFC 3339).
func ReadEvents(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		evt, err := ParseEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, evt)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ParseEvent decodes a single JSON event object.
func ParseEvent(doc string) (Event, error) {
	if !gjson.Valid(doc) {
		return Event{}, ErrInvalidEvent
	}
	res := gjson.Parse(doc)
	if !res.IsObject() {
		return Event{}, ErrInvalidEvent
	}

	evt := Event{
		Kind:        ParseEventKind(res.Get("kind").String()),
		Message:     res.Get("message").String(),
		Code:        res.Get("code").String(),
		File:        res.Get("file").String(),
		Line:        int(res.Get("line").Int()),
		Column:      int(res.Get("column").Int()),
		ProjectFile: res.Get("project").String(),
		Succeeded:   res.Get("succeeded").Bool(),
	}
	if ts := res.Get("timestamp"); ts.Exists() {
		t := ts.Time()
		if t.IsZero() {
			return Event{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidEvent, ts.String())
		}
		evt.Timestamp = t
	}
	return evt, nil
}
