// File: format.go
// Title: Log Output Formats
// Description: Renders entries as text, logfmt or JSON lines. Fields are
//              written in sorted key order.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with multiple output formats
// - 2026-10-15 v0.2.0: Reduced to text, logfmt and JSON

package log

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format selects how entries are rendered
type Format int

const (
	FormatJSON Format = iota
	FormatText
	FormatLogfmt
)

var formatNames = [...]string{"json", "text", "logfmt"}

func (f Format) String() string {
	if f < FormatJSON || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// ParseFormat reads a format name. An empty string selects text.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return FormatText, nil
	}
	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// Formatter renders one entry as a complete line
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// GetFormatter returns the formatter for format. Unknown formats fall back
// to text.
func GetFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return jsonFormatter{}
	case FormatLogfmt:
		return lineFormatter{logfmt: true}
	default:
		return lineFormatter{}
	}
}

type jsonFormatter struct{}

func (jsonFormatter) Format(e *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(e.Fields)+6)
	for k, v := range e.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	data["timestamp"] = e.Timestamp.Format(time.RFC3339)
	data["level"] = e.Level.String()
	data["message"] = e.Message
	if e.Logger != "" {
		data["logger"] = e.Logger
	}
	if e.RequestID != "" {
		data["request_id"] = e.RequestID
	}
	if e.Error != nil {
		data["error"] = e.Error.Error()
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// lineFormatter writes one line per entry. Text puts the level, logger and
// message up front for reading on a terminal; logfmt keys every part and
// quotes string values.
type lineFormatter struct {
	logfmt bool
}

func (f lineFormatter) Format(e *Entry) ([]byte, error) {
	var b strings.Builder

	if f.logfmt {
		fmt.Fprintf(&b, "timestamp=%s level=%s message=%q", e.Timestamp.Format(time.RFC3339), e.Level, e.Message)
		if e.Logger != "" {
			fmt.Fprintf(&b, " logger=%s", e.Logger)
		}
		if e.RequestID != "" {
			fmt.Fprintf(&b, " request_id=%s", e.RequestID)
		}
	} else {
		fmt.Fprintf(&b, "%s %-5s", e.Timestamp.Format("15:04:05"), strings.ToUpper(e.Level.String()))
		if e.Logger != "" {
			fmt.Fprintf(&b, " %s:", e.Logger)
		}
		b.WriteString(" " + e.Message)
		if e.RequestID != "" {
			fmt.Fprintf(&b, " request_id=%s", e.RequestID)
		}
	}

	for _, k := range e.Fields.sortedKeys() {
		v := e.Fields[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		if s, ok := v.(string); ok && f.logfmt {
			fmt.Fprintf(&b, " %s=%q", k, s)
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	if e.Error != nil {
		fmt.Fprintf(&b, " error=%q", e.Error.Error())
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}
