package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

func TestBuildIsDeterministic(t *testing.T) {
	in := Input{
		DocumentText: "Users can reset their password via email.",
		DesignLink:   "https://figma.com/file/abc",
		Focus:        "security",
		Attachments:  []models.Attachment{{Name: "a.png", MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	}
	first := Build(in)
	second := Build(in)
	assert.Equal(t, first.Instruction, second.Instruction)
	assert.Equal(t, first.Parts, second.Parts)
}

func TestBuildMarksMissingMaterial(t *testing.T) {
	doc := "Users can reset their password via email."
	p := Build(Input{DocumentText: doc})

	assert.Equal(t, 2, strings.Count(p.Instruction, NotProvided))
	assert.Contains(t, p.Instruction, doc)
	assert.Contains(t, p.Instruction, "## Design reference\nNot provided")
	assert.Contains(t, p.Instruction, "## Images\nNot provided")
}

func TestBuildAllMissing(t *testing.T) {
	p := Build(Input{})
	assert.Equal(t, 3, strings.Count(p.Instruction, NotProvided))
	assert.Contains(t, p.Instruction, "No specific focus was requested")
}

func TestBuildMentionsEveryCategory(t *testing.T) {
	p := Build(Input{DocumentText: "doc", DesignLink: "https://example.com/design", Focus: "checkout"})
	for _, heading := range []string{"## Requirements document", "## Design reference", "## Images", "## Focus"} {
		assert.Contains(t, p.Instruction, heading)
	}
	assert.Contains(t, p.Instruction, "https://example.com/design")
	assert.Contains(t, p.Instruction, "Concentrate on: checkout")
	assert.Equal(t, 1, strings.Count(p.Instruction, NotProvided))
}

func TestBuildEmbedsSchemaAndRules(t *testing.T) {
	p := Build(Input{DocumentText: "doc"})
	for _, f := range SchemaV3.Fields {
		assert.Contains(t, p.Instruction, `"`+f.Name+`"`)
	}
	assert.Contains(t, p.Instruction, `"UI/UX"`)
	assert.Contains(t, p.Instruction, `"Regression"`)
	assert.Contains(t, p.Instruction, "Output ONLY a JSON array of objects")
	assert.Contains(t, p.Instruction, "markdown code fences")
	assert.Contains(t, p.Instruction, `as \".`)
	assert.Contains(t, p.Instruction, "starting at TC_001")
	assert.Equal(t, SchemaV3.Version, p.Schema.Version)
}

func TestBuildPartsOrder(t *testing.T) {
	in := Input{
		DocumentText: "doc",
		Attachments: []models.Attachment{
			{Name: "one.png", MIMEType: "image/png", Data: []byte("one")},
			{Name: "two.jpg", MIMEType: "image/jpeg", Data: []byte("two")},
		},
	}
	p := Build(in)
	require.Len(t, p.Parts, 3)
	assert.True(t, p.Parts[0].IsText())
	assert.Equal(t, p.Instruction, p.Parts[0].Text)
	assert.Equal(t, "image/png", p.Parts[1].MIMEType)
	assert.Equal(t, []byte("two"), p.Parts[2].Data)
	assert.Contains(t, p.Instruction, "2 image(s) follow this text")
	assert.NotContains(t, p.Instruction, "## Images\nNot provided")
}

func TestSchemaRequired(t *testing.T) {
	req := SchemaV3.Required()
	assert.Len(t, req, len(SchemaV3.Fields))
	assert.Equal(t, "testCaseId", req[0])
}
