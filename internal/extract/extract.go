// Package extract recovers structured values from free-form model output.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mode selects the JSON container the extractor looks for.
type Mode int

const (
	ObjectMode Mode = iota
	ArrayMode
)

func (m Mode) delimiters() (byte, byte) {
	if m == ArrayMode {
		return '[', ']'
	}
	return '{', '}'
}

// Result is a decoded value tagged with whether it came from the model or the fallback.
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

var errNoJSON = errors.New("no JSON value found")

// Decode parses the first JSON container of the given mode found in text.
// It tries, in order: the first balanced span, the body of a ```json fence, and
// the whole text. Parse failures are never returned; fallback is used instead.
func Decode[T any](text string, mode Mode, fallback T) Result[T] {
	var lastErr error = errNoJSON
	for _, candidate := range candidates(text, mode) {
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err != nil {
			lastErr = err
			continue
		}
		return Result[T]{Value: v}
	}
	return Result[T]{
		Value:    fallback,
		Degraded: true,
		Reason:   fmt.Sprintf("unparseable model output: %v", lastErr),
	}
}

func candidates(text string, mode Mode) []string {
	var out []string
	seen := make(map[string]struct{}, 3)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || s == "null" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if span, ok := Span(text, mode); ok {
		add(span)
	}
	if fenced, ok := Fenced(text); ok {
		add(fenced)
	}
	add(text)
	return out
}

// Span returns the first balanced object or array span in text. Brackets inside
// JSON string literals, including escaped quotes, do not affect nesting depth.
// Spans whose closing brackets do not match are skipped.
func Span(text string, mode Mode) (string, bool) {
	open, _ := mode.delimiters()
	for start := strings.IndexByte(text, open); start >= 0; {
		if end, ok := matchFrom(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchFrom scans from the opening bracket at start and returns the index of the
// bracket that closes it.
func matchFrom(text string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// Fenced returns the body of the first markdown code fence in text.
func Fenced(text string) (string, bool) {
	const fence = "```"
	start := strings.Index(text, fence)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(fence):]
	// Drop the info string ("json") on the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return "", false
	}
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
