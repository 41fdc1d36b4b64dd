// Package jsonrepair recovers a single JSON object from language model output.
//
// Models are asked for bare JSON but routinely wrap it in prose, spread it over several lines or leave stray
// commas behind. The repairs in this package are a fixed, finite set of textual patches for those defects. They are
// heuristics and not a JSON grammar recovery: some inputs still miss after repair, and the patches operate on raw
// text, so in principle they can also touch string content. Only the behaviour pinned by the package tests is
// guaranteed.
//
// All functions are pure and report a miss with a false second return value instead of an error.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// quoteWindow is how many bytes around a failing quote are inspected to guess whether it sits inside a string.
const quoteWindow = 50

//nolint:gochecknoglobals // compiled once, read-only.
var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	objectObject  = regexp.MustCompile(`\}\s*\{`)
	arrayArray    = regexp.MustCompile(`\]\s*\[`)
	objectArray   = regexp.MustCompile(`\}\s*\[`)
	arrayObject   = regexp.MustCompile(`\]\s*\{`)
	quotedRun     = regexp.MustCompile(`([^\\])"([^":,}\]]+)"([^:])`)
)

// Extract returns the JSON object embedded in the message content of a chat completion envelope.
func Extract(envelope []byte) (map[string]any, bool) {
	content, ok := MessageContent(envelope)
	if !ok {
		return nil, false
	}
	return Object(content)
}

// MessageContent returns choices[0].message.content of a chat completion response body.
// Any other envelope shape is a miss.
func MessageContent(envelope []byte) (string, bool) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(envelope, &resp); err != nil {
		return "", false
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", false
	}
	return *resp.Choices[0].Message.Content, true
}

// Object finds the span between the first '{' and the last '}' in text, repairs it and decodes it.
//
// When decoding fails with a syntax error, exactly one targeted patch keyed to the failing byte is attempted
// followed by a single retry.
func Object(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return nil, false
	}

	candidate := Normalize(text[start : end+1])
	obj, err := decode(candidate)
	if err == nil {
		return obj, true
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return nil, false
	}
	// SyntaxError.Offset counts the failing byte itself.
	patched, ok := PatchAt(candidate, int(syntaxErr.Offset)-1)
	if !ok {
		return nil, false
	}
	if obj, err = decode(patched); err != nil {
		return nil, false
	}
	return obj, true
}

// Normalize applies the fixed repair sequence: whitespace flattening, trailing comma removal, comma insertion between
// adjacent containers and the quote pass.
func Normalize(s string) string {
	s = strings.NewReplacer("\n", " ", "\t", " ").Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = trailingComma.ReplaceAllString(s, "$1")
	s = objectObject.ReplaceAllString(s, "},{")
	s = arrayArray.ReplaceAllString(s, "],[")
	s = objectArray.ReplaceAllString(s, "},[")
	s = arrayObject.ReplaceAllString(s, "],{")
	// The replacement re-emits every captured group, so well-formed quoting comes out unchanged.
	s = quotedRun.ReplaceAllString(s, `${1}"${2}"${3}`)
	return strings.TrimSpace(s)
}

// PatchAt returns s with one fix applied for a parse failure at byte pos, or false when no patch applies.
//
// The patches are tried in order:
//   - a quote or '{' following '}' or ']' gets a comma inserted before it,
//   - an unescaped quote with an odd number of quotes in the surrounding window is escaped,
//   - trailing commas are stripped if that changes s.
func PatchAt(s string, pos int) (string, bool) {
	if pos >= 0 && pos < len(s) {
		c := s[pos]
		var prev byte
		if pos > 0 {
			prev = s[pos-1]
		}

		if (c == '"' || c == '{') && (prev == '}' || prev == ']') {
			return s[:pos] + "," + s[pos:], true
		}

		if c == '"' && prev != '\\' {
			window := s[max(0, pos-quoteWindow):min(len(s), pos+quoteWindow)]
			if strings.Count(window, `"`)%2 == 1 {
				return s[:pos] + `\"` + s[pos+1:], true
			}
		}
	}

	if stripped := trailingComma.ReplaceAllString(s, "$1"); stripped != s {
		return stripped, true
	}
	return "", false
}

func decode(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err //nolint:wrapcheck // callers inspect the syntax error.
	}
	return obj, nil
}
