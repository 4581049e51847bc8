// Package normalize turns raw model output into validated test case records.
//
// The recovery ladder is: strip markdown fences, parse directly, and on failure cut the
// text from the first '[' through the last '}' and close it with ']'. The cut assumes the
// model emits whole objects before an output limit truncates it; truncation inside nested
// values is not recovered beyond that rule.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

const fence = "```"

// Response parses, repairs and validates the raw text returned by the generation call.
// On success every record has a non-empty ID and defaulted classification fields;
// Status is left empty for the caller to assign.
func Response(raw string) ([]models.TestCase, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	text := stripFences(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	payload, err := parse(raw, text)
	if err != nil {
		return nil, err
	}
	return validate(payload)
}

// stripFences removes a leading ```lang line and a trailing ``` when present.
// A missing closing fence (truncated output) is tolerated.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, fence) {
		return trimmed
	}

	if nl := strings.Index(trimmed, "\n"); nl != -1 {
		trimmed = trimmed[nl+1:]
	} else {
		// Single line: ```json [...] ```
		trimmed = strings.TrimPrefix(trimmed, fence)
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, fence)
	return strings.TrimSpace(trimmed)
}

func parse(raw, text string) (json.RawMessage, error) {
	var direct json.RawMessage
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		return direct, nil
	}

	first := strings.Index(text, "[")
	if first == -1 {
		return nil, ErrNotAnArray
	}
	last := strings.LastIndex(text, "}")
	if last < first {
		// Empty or merely opened array: nothing complete to recover.
		return json.RawMessage("[]"), nil
	}

	candidate := text[first:last+1] + "]"
	var repaired json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &repaired); err != nil {
		return nil, &RepairError{Raw: raw, Err: err}
	}
	return repaired, nil
}

func validate(payload json.RawMessage) ([]models.TestCase, error) {
	var elements []json.RawMessage
	switch firstByte(payload) {
	case '[':
		if err := json.Unmarshal(payload, &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotAnArray, err)
		}
	case '{':
		elements = []json.RawMessage{payload}
	default:
		return nil, ErrNotAnArray
	}

	cases := make([]models.TestCase, 0, len(elements))
	for i, elem := range elements {
		if firstByte(elem) != '{' {
			return nil, fmt.Errorf("%w: element %d", ErrInvalidRecord, i)
		}
		var tc models.TestCase
		if err := json.Unmarshal(elem, &tc); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidRecord, i, err)
		}
		if strings.TrimSpace(tc.ID) == "" {
			tc.ID = fmt.Sprintf("TC_%03d", i+1)
		}
		tc.ApplyDefaults()
		tc.Status = ""
		cases = append(cases, tc)
	}
	return cases, nil
}

func firstByte(msg json.RawMessage) byte {
	s := strings.TrimSpace(string(msg))
	if s == "" {
		return 0
	}
	return s[0]
}
