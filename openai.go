package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const openAIPinyinPrompt = `Convert the following Chinese characters to Pinyin with tone marks.
Respond with a JSON object {"pairs": [{"char": "...", "pinyin": "..."}]}, one entry per character.
Characters: %s`

// OpenAIClient serves the three generative services from OpenAI.
type OpenAIClient struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

// NewOpenAIClient creates a client for the given API key.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		voice:  openai.VoiceNova,
	}, nil
}

// Transliterate asks a chat model for the pinyin of each character.
func (o *OpenAIClient) Transliterate(ctx context.Context, chars []string) ([]Pair, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(openAIPinyinPrompt, strings.Join(chars, ", ")),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no pinyin returned")
	}

	var out struct {
		Pairs []Pair `json:"pairs"`
	}
	text := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("parse pinyin JSON: %w\nraw response: %s", err, text)
	}
	return out.Pairs, nil
}

// GenerateImage draws one figure with DALL-E and returns it as a data URL.
func (o *OpenAIClient) GenerateImage(ctx context.Context, theme Theme, style string) (string, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         figurePrompt(style, nil),
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI image %s: %w", theme, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", ErrNoImage
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// Synthesize reads text aloud. The pcm response format is 24 kHz 16-bit mono.
func (o *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          0.9,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read OpenAI speech: %w", err)
	}
	return pcm, nil
}
