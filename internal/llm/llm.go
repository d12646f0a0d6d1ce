// Package llm wraps the Gemini client for text generation and embeddings,
// following this repo's convention of a thin Client around google.golang.org/genai.
package llm

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"impactscan/internal/config"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-flash-lite-latest"

// DefaultEmbeddingModel is the embedding model used when none is configured.
// gemini-embedding-001 supports a configurable output dimensionality, which
// the pipeline pins to DefaultEmbeddingDimensions.
const DefaultEmbeddingModel = "gemini-embedding-001"

// DefaultEmbeddingDimensions is the embedding dimensionality mandated by the
// pipeline's EmbeddingService.
const DefaultEmbeddingDimensions = int32(1536)

// Client wraps a genai client with the model names this pipeline uses.
type Client struct {
	apiKey         string
	modelName      string
	embeddingModel string
	dimensions     int32
	gClient        *genai.Client
}

// TextGenerationOptions configures a single GenerateText call.
type TextGenerationOptions struct {
	MaxTokens      int32
	Temperature    float32
	Model          string
	ResponseSchema *genai.Schema // non-nil triggers structured-output mode
}

// NewClient resolves an API key from the environment or configuration and
// constructs a genai-backed Client.
func NewClient(modelName string) (*Client, error) {
	apiKey := resolveAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("no Gemini API key found: set GEMINI_API_KEY or ai.gemini.api_key")
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	embeddingModel := DefaultEmbeddingModel
	dimensions := DefaultEmbeddingDimensions
	if cfg := config.Get(); cfg != nil {
		if cfg.AI.Gemini.EmbeddingModel != "" {
			embeddingModel = cfg.AI.Gemini.EmbeddingModel
		}
		if cfg.AI.Gemini.EmbeddingDimension > 0 {
			dimensions = int32(cfg.AI.Gemini.EmbeddingDimension)
		}
	}

	return &Client{
		apiKey:         apiKey,
		modelName:      modelName,
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
		gClient:        gClient,
	}, nil
}

func resolveAPIKey() string {
	for _, envKey := range []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY"} {
		if v := os.Getenv(envKey); v != "" {
			return v
		}
	}
	if cfg := config.Get(); cfg != nil {
		return cfg.AI.Gemini.APIKey
	}
	return ""
}

// Close releases any resources held by the underlying genai client.
func (c *Client) Close() error {
	return nil
}

// GenerateText issues a single generation call. When opts.ResponseSchema is
// set, the call uses structured-output mode and the returned string is the
// raw JSON payload the caller is expected to unmarshal.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts TextGenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.modelName
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: opts.MaxTokens,
	}
	if opts.ResponseSchema != nil {
		genConfig.ResponseMIMEType = "application/json"
		genConfig.ResponseSchema = opts.ResponseSchema
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate content: empty response")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateEmbeddings embeds a batch of texts in a single provider call,
// preserving input order. Callers are responsible for batching to the
// pipeline's configured batch size before calling this method.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(c.dimensions),
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed content: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float64, len(texts))
	for i, e := range resp.Embeddings {
		vec := make([]float64, len(e.Values))
		for j, v := range e.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

// ModelName returns the configured generation model name.
func (c *Client) ModelName() string { return c.modelName }

// EmbeddingModel returns the configured embedding model name.
func (c *Client) EmbeddingModel() string { return c.embeddingModel }
