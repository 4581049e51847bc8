package gemini

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/prompt"
)

func TestResponseSchemaMirrorsContract(t *testing.T) {
	s := ResponseSchema(prompt.SchemaV3)
	require.Equal(t, genai.TypeArray, s.Type)
	require.NotNil(t, s.Items)
	assert.Equal(t, genai.TypeObject, s.Items.Type)
	assert.Len(t, s.Items.Properties, len(prompt.SchemaV3.Fields))
	assert.Equal(t, prompt.SchemaV3.Required(), s.Items.Required)
	assert.Equal(t, "testCaseId", s.Items.PropertyOrdering[0])
	assert.Equal(t, []string{"Functional", "UI/UX"}, s.Items.Properties["domain"].Enum)
	assert.Empty(t, s.Items.Properties["testScenario"].Enum)
}

func TestToPartsKeepsOrder(t *testing.T) {
	p := prompt.Build(prompt.Input{
		DocumentText: "doc",
		Attachments:  []models.Attachment{{Name: "a.png", MIMEType: "image/png", Data: []byte("png-bytes")}},
	})
	parts := toParts(p.Parts)
	require.Len(t, parts, 2)
	assert.Equal(t, p.Instruction, parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("png-bytes"), parts[1].InlineData.Data)
}

func TestContentConfig(t *testing.T) {
	c := &Client{cfg: Config{Model: DefaultModel, Temperature: 0.3, MaxOutputTokens: 8192}}
	cfg := c.contentConfig(prompt.SchemaV3)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
	assert.Equal(t, int32(8192), cfg.MaxOutputTokens)

	bare := (&Client{cfg: Config{Model: DefaultModel}}).contentConfig(prompt.SchemaV3)
	assert.Nil(t, bare.Temperature)
	assert.Zero(t, bare.MaxOutputTokens)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
