package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCaseUnmarshalStepsString(t *testing.T) {
	var tc TestCase
	err := json.Unmarshal([]byte(`{"testCaseId":"TC_001","testSteps":"1. Open\n2. Click"}`), &tc)
	require.NoError(t, err)
	assert.Equal(t, "1. Open\n2. Click", tc.Steps)
	assert.Equal(t, []string{"1. Open", "2. Click"}, tc.StepList())
}

func TestTestCaseUnmarshalStepsArray(t *testing.T) {
	var tc TestCase
	err := json.Unmarshal([]byte(`{"testCaseId":"TC_001","testSteps":["1. Open","2. Click"],"priority":"High"}`), &tc)
	require.NoError(t, err)
	assert.Equal(t, "1. Open\n2. Click", tc.Steps)
	assert.Equal(t, PriorityHigh, tc.Priority)
	assert.Equal(t, "TC_001", tc.ID)
}

func TestTestCaseUnmarshalKeepsOddlyTypedFields(t *testing.T) {
	var tc TestCase
	err := json.Unmarshal([]byte(`{
		"testCaseId": 7,
		"testScenario": "Checkout",
		"preConditions": null,
		"testSteps": ["Open cart", 2, {"click": "Pay"}],
		"testData": {"card": "4111", "cvv": 123},
		"expectedResult": true,
		"priority": 1
	}`), &tc)
	require.NoError(t, err)
	assert.Equal(t, "7", tc.ID)
	assert.Equal(t, "Checkout", tc.Scenario)
	assert.Empty(t, tc.Preconditions)
	assert.Equal(t, "Open cart\n2\n{\"click\":\"Pay\"}", tc.Steps)
	assert.Equal(t, `{"card":"4111","cvv":123}`, tc.TestData)
	assert.Equal(t, "true", tc.ExpectedResult)
	assert.Equal(t, Priority("1"), tc.Priority)
	assert.False(t, tc.Priority.Valid())

	var numeric TestCase
	require.NoError(t, json.Unmarshal([]byte(`{"testSteps":42}`), &numeric))
	assert.Equal(t, "42", numeric.Steps)
}

func TestTestCaseKeepsUnknownEnumValues(t *testing.T) {
	var tc TestCase
	require.NoError(t, json.Unmarshal([]byte(`{"testCaseId":"TC_009","priority":"Critical","domain":"Security"}`), &tc))
	assert.Equal(t, Priority("Critical"), tc.Priority)
	assert.False(t, tc.Priority.Valid())
	assert.Equal(t, Domain("Security"), tc.Domain)
	assert.False(t, tc.Domain.Valid())
}

func TestApplyDefaults(t *testing.T) {
	tc := TestCase{ID: "TC_001"}
	tc.ApplyDefaults()
	assert.Equal(t, DomainFunctional, tc.Domain)
	assert.Equal(t, SuiteRegression, tc.SuiteType)
	assert.Equal(t, TypePositive, tc.Type)

	kept := TestCase{ID: "TC_002", Domain: DomainUIUX, SuiteType: SuiteSmoke, Type: TypeEdge}
	kept.ApplyDefaults()
	assert.Equal(t, DomainUIUX, kept.Domain)
	assert.Equal(t, SuiteSmoke, kept.SuiteType)
	assert.Equal(t, TypeEdge, kept.Type)
}

func TestGenerationRequestValidate(t *testing.T) {
	assert.ErrorIs(t, GenerationRequest{}.Validate(), ErrEmptyRequest)
	assert.ErrorIs(t, GenerationRequest{DocumentText: "   ", Focus: "login"}.Validate(), ErrEmptyRequest)
	assert.NoError(t, GenerationRequest{DocumentText: "Users can log in."}.Validate())
	assert.NoError(t, GenerationRequest{DesignLink: "https://figma.com/file/x"}.Validate())
	assert.NoError(t, GenerationRequest{Attachments: []Attachment{{Name: "a.png"}}}.Validate())
}

func TestNewHistoryEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req := GenerationRequest{DocumentText: "doc", Attachments: []Attachment{{Name: "a.png"}, {Name: "b.jpg"}}}
	entry := NewHistoryEntry(now, req, []TestCase{{ID: "TC_001"}})

	assert.Equal(t, now.UnixMilli(), entry.ID)
	assert.Equal(t, []string{"a.png", "b.jpg"}, entry.AttachmentNames)
	assert.Len(t, entry.TestCases, 1)
}

func TestEnumValid(t *testing.T) {
	assert.True(t, StatusUnableToExecute.Valid())
	assert.False(t, Status("Skipped").Valid())
	assert.True(t, SuiteSanity.Valid())
	assert.True(t, TypeNegative.Valid())
}
