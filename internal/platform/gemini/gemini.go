package gemini

import (
	"context"
	"fmt"

	"curator/internal/logger"

	"google.golang.org/genai"
)

// Config represents the configuration for the Gemini integration
type Config struct {
	APIKey string `json:"api_key"`
}

// Service wraps the Gemini client used for vision scoring
type Service struct {
	client *genai.Client
	log    *logger.Logger
}

func NewService(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Service{client: client, log: logger.New("Gemini")}, nil
}

// GenerateVision sends a prompt together with one inline media blob and
// returns the raw model text. No parsing happens here; callers own the
// response contract.
func (s *Service) GenerateVision(ctx context.Context, model, prompt string, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}

	resp, err := s.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	if resp.UsageMetadata != nil {
		s.log.LogDebugf("gemini call model=%s tokens in=%d out=%d", model,
			resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount)
	}

	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in gemini response")
	}
	return cand.Content.Parts[0].Text, nil
}
