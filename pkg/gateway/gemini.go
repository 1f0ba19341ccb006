package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Replier produces an assistant reply for a flattened prompt.
type Replier interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// GeminiReplier generates replies through the Gemini API.
type GeminiReplier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiReplier(ctx context.Context, apiKey, model string) (*GeminiReplier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &GeminiReplier{
		client: client,
		model:  client.GenerativeModel(model),
	}, nil
}

func (g *GeminiReplier) Close() error {
	return g.client.Close()
}

func (g *GeminiReplier) Reply(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	return sb.String(), nil
}
