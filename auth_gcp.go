package main

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	defaultRegion      = "europe-west1"
	defaultTextModel   = "gemini-2.5-flash"
	defaultImageModel  = "gemini-2.5-flash-image"
	defaultSpeechModel = "gemini-2.5-flash-preview-tts"
	defaultVoice       = "Kore"
)

// GeminiConfig selects the Gemini backend. An API key takes precedence;
// otherwise Vertex AI is used with Application Default Credentials.
type GeminiConfig struct {
	APIKey    string
	ProjectID string
	Region    string
}

// GeminiClient wraps the Google GenAI client.
type GeminiClient struct {
	client      *genai.Client
	textModel   string
	imageModel  string
	speechModel string
	voice       string
}

// NewGeminiClient creates a client for the Gemini API or Vertex AI.
// For Vertex AI, set GOOGLE_APPLICATION_CREDENTIALS to the service account key file path.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.ProjectID != "":
		region := cfg.Region
		if region == "" {
			region = defaultRegion
		}
		cc.Project = cfg.ProjectID
		cc.Location = region
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini: either an API key or a GCP project is required")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		textModel:   defaultTextModel,
		imageModel:  defaultImageModel,
		speechModel: defaultSpeechModel,
		voice:       defaultVoice,
	}, nil
}

// Close releases resources held by the client.
func (g *GeminiClient) Close() error {
	return nil
}
