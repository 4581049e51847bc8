// Package prompt renders the instruction document and content parts sent to the model.
//
// Build is pure: the same Input always yields byte-identical instruction text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

// NotProvided marks a material category the user left empty.
const NotProvided = "Not provided"

// Input is the material for one generation.
type Input struct {
	DocumentText string
	DesignLink   string
	Focus        string
	Attachments  []models.Attachment
}

// InputFromRequest maps a generation request onto builder input.
func InputFromRequest(req models.GenerationRequest) Input {
	return Input{
		DocumentText: req.DocumentText,
		DesignLink:   req.DesignLink,
		Focus:        req.Focus,
		Attachments:  req.Attachments,
	}
}

// Part is one ordered piece of content: either text or inline binary data.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// IsText reports whether the part carries text rather than binary data.
func (p Part) IsText() bool { return p.Data == nil }

// Prompt is the builder output handed to the generation call.
type Prompt struct {
	Instruction string
	Parts       []Part // Instruction first, then one part per attachment
	Schema      SchemaContract
}

// Build renders the instruction with the current schema contract.
func Build(in Input) Prompt {
	return BuildWithSchema(in, SchemaV3)
}

// BuildWithSchema renders the instruction against an explicit schema contract.
func BuildWithSchema(in Input, schema SchemaContract) Prompt {
	instruction := renderInstruction(in.DocumentText, in.DesignLink, in.Focus, len(in.Attachments), schema)

	parts := make([]Part, 0, 1+len(in.Attachments))
	parts = append(parts, Part{Text: instruction})
	for _, a := range in.Attachments {
		parts = append(parts, Part{Data: a.Data, MIMEType: a.MIMEType})
	}
	return Prompt{Instruction: instruction, Parts: parts, Schema: schema}
}

func renderInstruction(document, link, focus string, images int, schema SchemaContract) string {
	var b strings.Builder

	b.WriteString("You are a senior QA engineer. Write a comprehensive, executable suite of test cases ")
	b.WriteString("for the product described by the material below.\n")
	b.WriteString("The material always has three categories: a requirements document, a design reference and images. ")
	b.WriteString("A category the user did not supply is explicitly marked as such; it was left out on purpose and is not a truncation.\n\n")

	b.WriteString("## Requirements document\n")
	b.WriteString(orNotProvided(document))
	b.WriteString("\n\n")

	b.WriteString("## Design reference\n")
	b.WriteString(orNotProvided(link))
	b.WriteString("\n\n")

	b.WriteString("## Images\n")
	if images > 0 {
		fmt.Fprintf(&b, "%d image(s) follow this text in order. Derive UI/UX cases from what they show.", images)
	} else {
		b.WriteString(NotProvided)
	}
	b.WriteString("\n\n")

	b.WriteString("## Focus\n")
	if f := strings.TrimSpace(focus); f != "" {
		b.WriteString("Concentrate on: ")
		b.WriteString(f)
	} else {
		b.WriteString("No specific focus was requested. Cover the material broadly.")
	}
	b.WriteString("\n\n")

	b.WriteString("## Coverage\n")
	b.WriteString("- Include Positive, Negative and Edge scenarios for every feature.\n")
	b.WriteString("- Classify each case as Functional or UI/UX, and place it in a Smoke, Sanity or Regression suite.\n")
	b.WriteString("- Steps must be concrete and numbered; expected results must be observable.\n\n")

	b.WriteString("## Output format\n")
	b.WriteString(schema.Render())
	b.WriteString("\n")

	b.WriteString("## Rules\n")
	b.WriteString("1. Output ONLY a JSON array of objects. No prose, no explanations, no comments.\n")
	b.WriteString("2. Do not wrap the output in markdown code fences.\n")
	b.WriteString("3. Escape every double quote inside a string value as \\\".\n")
	b.WriteString("4. Assign testCaseId values sequentially starting at TC_001.\n")
	fmt.Fprintf(&b, "5. Use %q when preconditions or test data do not apply.\n", models.NotApplicable)

	return b.String()
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotProvided
	}
	return s
}
