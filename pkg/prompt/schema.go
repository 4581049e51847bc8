package prompt

import (
	"fmt"
	"strings"
)

// Field describes one property of a test case as the model must emit it.
type Field struct {
	Name        string
	Description string
	Enum        []string
	Required    bool
}

// SchemaContract is the versioned shape of the JSON array the model must return.
type SchemaContract struct {
	Version string
	Fields  []Field
}

// SchemaV3 is the current contract. Earlier versions lacked domain and suiteType;
// records stored under them are backfilled on load.
var SchemaV3 = SchemaContract{
	Version: "v3",
	Fields: []Field{
		{Name: "testCaseId", Description: "Unique identifier, sequential, formatted TC_001, TC_002, ...", Required: true},
		{Name: "testScenario", Description: "One-line summary of the behaviour under test", Required: true},
		{Name: "preConditions", Description: "State required before execution, or N/A", Required: true},
		{Name: "testSteps", Description: "Numbered steps joined with \\n, e.g. \"1. Open the page\\n2. Click Save\"", Required: true},
		{Name: "testData", Description: "Concrete input values, or N/A", Required: true},
		{Name: "expectedResult", Description: "Observable outcome that decides pass or fail", Required: true},
		{Name: "priority", Description: "Business priority", Enum: []string{"High", "Medium", "Low"}, Required: true},
		{Name: "type", Description: "Scenario classification", Enum: []string{"Positive", "Negative", "Edge"}, Required: true},
		{Name: "domain", Description: "Area under test", Enum: []string{"Functional", "UI/UX"}, Required: true},
		{Name: "suiteType", Description: "Suite the case belongs to", Enum: []string{"Smoke", "Sanity", "Regression"}, Required: true},
	},
}

// Required lists the names of required fields in contract order.
func (c SchemaContract) Required() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Render writes the contract as a compact, line-oriented description for the instruction text.
func (c SchemaContract) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema %s: a JSON array of objects, each with exactly these string fields:\n", c.Version)
	for _, f := range c.Fields {
		fmt.Fprintf(&b, "- %q: %s", f.Name, f.Description)
		if len(f.Enum) > 0 {
			fmt.Fprintf(&b, ". One of: %s", strings.Join(quoteAll(f.Enum), " | "))
		}
		if f.Required {
			b.WriteString(" (required)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
