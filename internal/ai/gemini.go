package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiModel          = "gemini-2.0-flash"
	geminiEmbeddingModel = "text-embedding-004"
)

// GeminiProvider implements LLMProvider using Google's Gemini models.
type GeminiProvider struct {
	client    *genai.Client
	jsonModel *genai.GenerativeModel
	textModel *genai.GenerativeModel
	embedder  *genai.EmbeddingModel
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Use Gemini 2.0 Flash for low latency and cost efficiency.
	// The JSON model is forced to structured output at low temperature so
	// classification stays deterministic.
	jsonModel := client.GenerativeModel(geminiModel)
	jsonModel.ResponseMIMEType = "application/json"
	jsonModel.SetTemperature(0.1)

	textModel := client.GenerativeModel(geminiModel)
	textModel.SetTemperature(0.7)

	return &GeminiProvider{
		client:    client,
		jsonModel: jsonModel,
		textModel: textModel,
		embedder:  client.EmbeddingModel(geminiEmbeddingModel),
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	text, err := generate(ctx, p.jsonModel, prompt)
	if err != nil {
		return "", err
	}
	// Clean up potential markdown formatting (json mode should handle this,
	// safety first).
	return cleanJSONString(text), nil
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, p.textModel, prompt)
}

func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := p.embedder.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding error: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return res.Embedding.Values, nil
}

func generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("gemini returned empty text parts")
	}
	return out.String(), nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
