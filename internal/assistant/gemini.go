package assistant

import (
	"context"
	"errors"
	"math"
	"time"

	"google.golang.org/genai"

	"github.com/helpdesk-hq/helpdesk/internal/config"
)

// GeminiGateway implements Gateway on the Google Gen AI SDK.
type GeminiGateway struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
	timeout         time.Duration
}

// NewGeminiGateway builds a Gemini-backed gateway from assistant config.
func NewGeminiGateway(ctx context.Context, cfg config.AssistantConfig) (*GeminiGateway, error) {
	if cfg.GoogleAPIKey == "" {
		return nil, errors.New("GOOGLE_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	maxTokens := int32(1000)
	if cfg.MaxOutputTokens > 0 && cfg.MaxOutputTokens <= math.MaxInt32 {
		maxTokens = int32(cfg.MaxOutputTokens)
	}

	return &GeminiGateway{
		client:          client,
		model:           cfg.Model,
		temperature:     float32(cfg.Temperature),
		maxOutputTokens: maxTokens,
		timeout:         cfg.RequestTimeout(),
	}, nil
}

// Generate sends the ordered message sequence and returns the reply text.
// Each call is bounded by the configured deadline.
func (g *GeminiGateway) Generate(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents, systemInstruction := buildContents(messages)

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxOutputTokens,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}
	if systemInstruction != nil {
		genCfg.SystemInstruction = systemInstruction
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return "", err
	}
	return extractText(resp)
}

// buildContents converts messages to Gen AI content format. A system message
// becomes the system instruction; assistant turns use the "model" role.
func buildContents(messages []Message) ([]*genai.Content, *genai.Content) {
	var systemInstruction *genai.Content
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		if m.Role == RoleSystem {
			systemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
			continue
		}

		role := m.Role
		if role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	return contents, systemInstruction
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	var text string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
	}
	if text == "" {
		return "", errors.New("empty response content")
	}
	return text, nil
}
