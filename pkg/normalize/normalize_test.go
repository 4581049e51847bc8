package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

const passwordReset = `[{"testCaseId":"TC_001","testScenario":"Password reset with valid email","preConditions":"User has an account","testSteps":"1. Navigate to login\n2. Click Forgot Password\n3. Enter valid email","testData":"user@example.com","expectedResult":"Reset email is sent","priority":"High","type":"Positive"}]`

func TestResponseWellFormed(t *testing.T) {
	raw := `[
		{"testCaseId":"TC_001","testScenario":"a","priority":"High","type":"Positive","domain":"UI/UX","suiteType":"Smoke"},
		{"testCaseId":"TC_002","testScenario":"b","priority":"Low","type":"Negative","domain":"Functional","suiteType":"Sanity"},
		{"testCaseId":"TC_003","testScenario":"c","priority":"Medium","type":"Edge","domain":"Functional","suiteType":"Regression"}
	]`
	cases, err := Response(raw)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, "TC_002", cases[1].ID)
	assert.Equal(t, models.DomainUIUX, cases[0].Domain)
	assert.Equal(t, models.SuiteSanity, cases[1].SuiteType)
	assert.Equal(t, models.TypeEdge, cases[2].Type)
}

func TestResponseEndToEndExample(t *testing.T) {
	cases, err := Response(passwordReset)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	tc := cases[0]
	assert.Equal(t, "TC_001", tc.ID)
	assert.Equal(t, "Password reset with valid email", tc.Scenario)
	assert.Equal(t, "User has an account", tc.Preconditions)
	assert.Equal(t, []string{"1. Navigate to login", "2. Click Forgot Password", "3. Enter valid email"}, tc.StepList())
	assert.Equal(t, models.PriorityHigh, tc.Priority)
	assert.Equal(t, models.DomainFunctional, tc.Domain)
	assert.Equal(t, models.SuiteRegression, tc.SuiteType)
	assert.Empty(t, tc.Status)
}

func TestResponseFencedMatchesUnfenced(t *testing.T) {
	want, err := Response(passwordReset)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"json tag":      "```json\n" + passwordReset + "\n```",
		"no tag":        "```\n" + passwordReset + "\n```",
		"single line":   "```json " + passwordReset + "```",
		"padded":        "\n\n  ```json\n" + passwordReset + "\n```  \n",
		"unclosed tail": "```json\n" + passwordReset,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Response(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestResponseTruncatedMidObject(t *testing.T) {
	raw := `[{"testCaseId":"TC_001","testScenario":"a"},{"testCaseId":"TC_002","testSc`
	cases, err := Response(raw)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "TC_001", cases[0].ID)
	assert.Equal(t, "a", cases[0].Scenario)
}

func TestResponseTruncatedInsideFence(t *testing.T) {
	raw := "```json\n" + `[{"testCaseId":"TC_001","testScenario":"a"},{"testCaseId":"TC_002","testScenario":"b"},{"testCaseId":"TC_00`
	cases, err := Response(raw)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "TC_002", cases[1].ID)
}

func TestResponseTrailingProse(t *testing.T) {
	raw := `Here are your cases: [{"testCaseId":"TC_001","testScenario":"a"}] Let me know if you need more.`
	cases, err := Response(raw)
	require.NoError(t, err)
	require.Len(t, cases, 1)
}

func TestResponseNoArrayMarker(t *testing.T) {
	_, err := Response(`I could not generate test cases for this document.`)
	assert.ErrorIs(t, err, ErrNotAnArray)

	_, err = Response(`{"testCaseId": "TC_001", "testScenario": `)
	assert.ErrorIs(t, err, ErrNotAnArray)
}

func TestResponseScalarTopLevel(t *testing.T) {
	_, err := Response(`"just a string"`)
	assert.ErrorIs(t, err, ErrNotAnArray)

	_, err = Response(`42`)
	assert.ErrorIs(t, err, ErrNotAnArray)
}

func TestResponseEmptyArrays(t *testing.T) {
	for _, raw := range []string{"[]", "[", "[\n  ", "```json\n[\n"} {
		cases, err := Response(raw)
		require.NoError(t, err, raw)
		assert.NotNil(t, cases, raw)
		assert.Empty(t, cases, raw)
	}
}

func TestResponseEmpty(t *testing.T) {
	for _, raw := range []string{"", "   \n\t", "```json\n```"} {
		_, err := Response(raw)
		assert.ErrorIs(t, err, ErrEmptyResponse, "%q", raw)
	}
}

func TestResponseUnrecoverable(t *testing.T) {
	raw := `[{"testCaseId":"TC_001"}, {"testCaseId": }`
	_, err := Response(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedUnrecoverable)

	var repairErr *RepairError
	require.True(t, errors.As(err, &repairErr))
	assert.Equal(t, raw, repairErr.Raw)
	assert.Error(t, repairErr.Unwrap())
}

func TestResponseSingleObjectIsWrapped(t *testing.T) {
	cases, err := Response(`{"testCaseId":"TC_007","testScenario":"solo"}`)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "TC_007", cases[0].ID)
}

func TestResponseDefaultsAndLenientEnums(t *testing.T) {
	raw := `[{"testCaseId":"TC_001","priority":"Urgent","type":"Exploratory","extra":"ignored","status":"Pass"}]`
	cases, err := Response(raw)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, models.Priority("Urgent"), cases[0].Priority)
	assert.Equal(t, models.CaseType("Exploratory"), cases[0].Type)
	assert.Equal(t, models.DomainFunctional, cases[0].Domain)
	assert.Equal(t, models.SuiteRegression, cases[0].SuiteType)
	assert.Empty(t, cases[0].Status, "status is assigned by the caller")
}

func TestResponseMissingIDIsPositional(t *testing.T) {
	cases, err := Response(`[{"testCaseId":"TC_001"},{"testScenario":"no id"},{"testCaseId":"TC_001"}]`)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, "TC_002", cases[1].ID)
	assert.Equal(t, "TC_001", cases[2].ID, "duplicates are tolerated")
}

func TestResponseNonObjectElement(t *testing.T) {
	_, err := Response(`[{"testCaseId":"TC_001"}, "oops"]`)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = Response(`[{"testCaseId":"TC_001"}, null]`)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestResponseToleratesWrongFieldTypes(t *testing.T) {
	cases, err := Response(`[
		{"testCaseId":"TC_001","testScenario":"a","testData":"x"},
		{"testCaseId":"TC_002","testScenario":"b","testData":42,"testSteps":12},
		{"testCaseId":"TC_003","testScenario":"c","testData":{"user":"bob"},"expectedResult":["ok"]}
	]`)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, "x", cases[0].TestData)
	assert.Equal(t, "42", cases[1].TestData)
	assert.Equal(t, "12", cases[1].Steps)
	assert.Equal(t, `{"user":"bob"}`, cases[2].TestData)
	assert.Equal(t, `["ok"]`, cases[2].ExpectedResult)
}

func TestResponseEscapedQuotes(t *testing.T) {
	cases, err := Response(`[{"testCaseId":"TC_001","testScenario":"Click \"Save\" twice"}]`)
	require.NoError(t, err)
	assert.Equal(t, `Click "Save" twice`, cases[0].Scenario)
}
