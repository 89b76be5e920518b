package analyzer

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/ivlev/anicontrol/internal/anim"
)

const sequencePreamble = "This is a sequence of frames from an animation. "

// GeminiAnalyzer sends the stills to a hosted Gemini model.
type GeminiAnalyzer struct {
	APIKey string
	Model  string
}

func NewGeminiAnalyzer(apiKey, model string) *GeminiAnalyzer {
	return &GeminiAnalyzer{APIKey: apiKey, Model: model}
}

func (g *GeminiAnalyzer) Describe(ctx context.Context, stills []Still, prompt string) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("%w: gemini API key is not set", anim.ErrAnalysis)
	}
	if len(stills) == 0 {
		return "", fmt.Errorf("%w: no frames to describe", anim.ErrAnalysis)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", anim.ErrAnalysis, err)
	}

	parts := make([]*genai.Part, 0, len(stills)+1)
	for _, s := range stills {
		parts = append(parts, genai.NewPartFromBytes(s.PNG, "image/png"))
	}
	parts = append(parts, genai.NewPartFromText(sequencePreamble+prompt))

	resp, err := client.Models.GenerateContent(ctx, g.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", anim.ErrAnalysis, err)
	}
	return resp.Text(), nil
}
