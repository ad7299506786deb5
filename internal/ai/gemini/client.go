package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-screener/internal/logger"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.2
	jsonMIMEType       = "application/json"
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide single-prompt interactions.
type Generator struct {
	apiKey      string
	modelName   string
	temperature float32
	logger      *zap.Logger

	models    contentModels
	newModels func(ctx context.Context, apiKey string) (contentModels, error)
}

// Options configures a Generator.
type Options struct {
	APIKey      string
	Model       string
	// Temperature is the sampling temperature; nil selects the default.
	Temperature *float32
	Logger      *zap.Logger
}

// NewGenerator creates a Generator for the Gemini API backend. The underlying
// client is created on the first call, so a missing API key is reported by
// GenerateContent rather than here.
func NewGenerator(opts Options) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	temperature := float32(defaultTemperature)
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	return &Generator{
		apiKey:      strings.TrimSpace(opts.APIKey),
		modelName:   model,
		temperature: temperature,
		logger:      logger.WithCommonFields(opts.Logger, "gemini", model),
		newModels:   newGenAIModels,
	}
}

func newGenAIModels(ctx context.Context, apiKey string) (contentModels, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return client.Models, nil
}

// GenerateContent sends the prompt to Gemini and returns the textual response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	if g.models == nil {
		models, err := g.newModels(ctx, g.apiKey)
		if err != nil {
			return "", err
		}
		g.models = models
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: jsonMIMEType,
	}

	g.logger.Debug("gemini generate content", zap.Float32("temperature", g.temperature))

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned nil response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
