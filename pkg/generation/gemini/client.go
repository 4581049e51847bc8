// Package gemini implements the generation call on Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/cgtestdeepak-cmd/QA/pkg/generation"
	"github.com/cgtestdeepak-cmd/QA/pkg/prompt"
)

const DefaultModel = "gemini-2.5-flash"

// Ensure Client implements generation.Generator interface at compile time
var _ generation.Generator = (*Client)(nil)

// Config holds the model call settings.
type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Client sends prompts to Gemini with the test case schema as the response shape.
type Client struct {
	client *genai.Client
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a Gemini client for the Gemini API backend.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	logger.Info("Gemini client initialized", slog.String("model", cfg.Model))
	return &Client{client: client, cfg: cfg, logger: logger}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// Generate issues one GenerateContent call. No retries: a failure surfaces immediately.
func (c *Client) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(toParts(p.Parts), genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, c.contentConfig(p.Schema))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		c.logger.Warn("Gemini response hit the output token limit; relying on truncation repair",
			slog.Int("max_output_tokens", int(c.cfg.MaxOutputTokens)))
	}
	return resp.Text(), nil
}

func (c *Client) contentConfig(schema prompt.SchemaContract) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(schema),
	}
	if c.cfg.Temperature > 0 {
		temp := c.cfg.Temperature
		cfg.Temperature = &temp
	}
	if c.cfg.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = c.cfg.MaxOutputTokens
	}
	return cfg
}

func toParts(parts []prompt.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsText() {
			out = append(out, genai.NewPartFromText(p.Text))
			continue
		}
		out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
	}
	return out
}

// ResponseSchema converts the schema contract into Gemini's response shape hint.
func ResponseSchema(contract prompt.SchemaContract) *genai.Schema {
	props := make(map[string]*genai.Schema, len(contract.Fields))
	order := make([]string, 0, len(contract.Fields))
	for _, f := range contract.Fields {
		props[f.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: f.Description,
			Enum:        f.Enum,
		}
		order = append(order, f.Name)
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type:             genai.TypeObject,
			Properties:       props,
			Required:         contract.Required(),
			PropertyOrdering: order,
		},
	}
}
