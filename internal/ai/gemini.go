package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// ErrUnavailable marks a provider call that failed to complete, including
// deadline expiry, as opposed to a malformed request.
var ErrUnavailable = errors.New("ai provider unavailable")

const (
	taskTypeQuery    = "RETRIEVAL_QUERY"
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
)

// Client wraps the Gemini API for text generation and embeddings. Every call
// carries an explicit deadline.
type Client struct {
	genai           *genai.Client
	generativeModel string
	embeddingModel  string
	timeout         time.Duration
}

// New connects to the Gemini API and verifies the key with a tiny generation
// call, so a bad credential disables the feature at startup rather than on
// the first question.
func New(ctx context.Context, apiKey, generativeModel, embeddingModel string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	c := &Client{
		genai:           gc,
		generativeModel: generativeModel,
		embeddingModel:  embeddingModel,
		timeout:         timeout,
	}

	if _, err := c.Generate(ctx, "test"); err != nil {
		return nil, fmt.Errorf("gemini credential check failed: %w", err)
	}
	return c, nil
}

// Generate produces free-form text for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.genai.Models.GenerateContent(ctx, c.generativeModel, genai.Text(prompt), nil)
	if err != nil {
		return "", c.wrap("generate", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty generation response", ErrUnavailable)
	}
	return text, nil
}

// EmbedQuery embeds a question for similarity search.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskTypeQuery)
}

// EmbedDocument embeds a knowledge document for indexing. Query and document
// embeddings of the same text may legitimately differ.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskTypeDocument)
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.genai.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: taskType,
	})
	if err != nil {
		return nil, c.wrap("embed", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrUnavailable)
	}
	return resp.Embeddings[0].Values, nil
}

func (c *Client) wrap(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out after %s", ErrUnavailable, op, c.timeout)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
