package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Priority of a generated test case.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// CaseType classifies the scenario as a happy path, a failure path or a boundary.
type CaseType string

const (
	TypePositive CaseType = "Positive"
	TypeNegative CaseType = "Negative"
	TypeEdge     CaseType = "Edge"
)

// Domain is the area of the product a case exercises.
type Domain string

const (
	DomainFunctional Domain = "Functional"
	DomainUIUX       Domain = "UI/UX"
)

// SuiteType names the suite a case belongs to.
type SuiteType string

const (
	SuiteSmoke      SuiteType = "Smoke"
	SuiteSanity     SuiteType = "Sanity"
	SuiteRegression SuiteType = "Regression"
)

// Status is the execution state of a case. It is assigned locally, never by the model.
type Status string

const (
	StatusUntested        Status = "Untested"
	StatusPass            Status = "Pass"
	StatusFail            Status = "Fail"
	StatusUnableToExecute Status = "UnableToExecute"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func (t CaseType) Valid() bool {
	switch t {
	case TypePositive, TypeNegative, TypeEdge:
		return true
	}
	return false
}

func (d Domain) Valid() bool {
	switch d {
	case DomainFunctional, DomainUIUX:
		return true
	}
	return false
}

func (s SuiteType) Valid() bool {
	switch s {
	case SuiteSmoke, SuiteSanity, SuiteRegression:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusUntested, StatusPass, StatusFail, StatusUnableToExecute:
		return true
	}
	return false
}

// NotApplicable is the sentinel the model uses for empty preconditions and test data.
const NotApplicable = "N/A"

// TestCase is one row of a generated suite.
type TestCase struct {
	ID             string    `json:"testCaseId"`
	Scenario       string    `json:"testScenario"`
	Preconditions  string    `json:"preConditions"`
	Steps          string    `json:"testSteps"` // Newline-joined, ordered
	TestData       string    `json:"testData"`
	ExpectedResult string    `json:"expectedResult"`
	Priority       Priority  `json:"priority"`
	Type           CaseType  `json:"type"`
	Domain         Domain    `json:"domain"`
	SuiteType      SuiteType `json:"suiteType"`
	Status         Status    `json:"status,omitempty"`
}

// UnmarshalJSON is lenient with model output. testSteps may be one string or an array
// of strings. A free-text or enum field holding a number, boolean, object or array keeps
// that value's compact JSON text instead of failing the record. Unknown enum values are
// kept verbatim.
func (tc *TestCase) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             json.RawMessage `json:"testCaseId"`
		Scenario       json.RawMessage `json:"testScenario"`
		Preconditions  json.RawMessage `json:"preConditions"`
		Steps          json.RawMessage `json:"testSteps"`
		TestData       json.RawMessage `json:"testData"`
		ExpectedResult json.RawMessage `json:"expectedResult"`
		Priority       json.RawMessage `json:"priority"`
		Type           json.RawMessage `json:"type"`
		Domain         json.RawMessage `json:"domain"`
		SuiteType      json.RawMessage `json:"suiteType"`
		Status         json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	steps, err := decodeSteps(raw.Steps)
	if err != nil {
		return fmt.Errorf("testSteps: %w", err)
	}
	*tc = TestCase{
		ID:             decodeText(raw.ID),
		Scenario:       decodeText(raw.Scenario),
		Preconditions:  decodeText(raw.Preconditions),
		Steps:          steps,
		TestData:       decodeText(raw.TestData),
		ExpectedResult: decodeText(raw.ExpectedResult),
		Priority:       Priority(decodeText(raw.Priority)),
		Type:           CaseType(decodeText(raw.Type)),
		Domain:         Domain(decodeText(raw.Domain)),
		SuiteType:      SuiteType(decodeText(raw.SuiteType)),
		Status:         Status(decodeText(raw.Status)),
	}
	return nil
}

// decodeText returns a JSON string's value, "" for null or absent fields, and the
// compact JSON text of any other value.
func decodeText(msg json.RawMessage) string {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func decodeSteps(msg json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return decodeText(trimmed), nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return "", err
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, decodeText(item))
	}
	return strings.Join(lines, "\n"), nil
}

// StepList returns the individual, non-blank steps in order.
func (tc TestCase) StepList() []string {
	lines := strings.Split(tc.Steps, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// ApplyDefaults fills classification fields missing from older or terse payloads.
func (tc *TestCase) ApplyDefaults() {
	if tc.Domain == "" {
		tc.Domain = DomainFunctional
	}
	if tc.SuiteType == "" {
		tc.SuiteType = SuiteRegression
	}
	if tc.Type == "" {
		tc.Type = TypePositive
	}
}
