package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const pinyinPrompt = `Convert the following Chinese characters to Pinyin with tone marks.
Return a JSON array where each object has "char" and "pinyin" properties.
Characters: %s`

var pinyinSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"char":   {Type: genai.TypeString},
			"pinyin": {Type: genai.TypeString},
		},
		Required: []string{"char", "pinyin"},
	},
}

// Transliterate asks Gemini Flash for the pinyin of each character.
func (g *GeminiClient) Transliterate(ctx context.Context, chars []string) ([]Pair, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel,
		genai.Text(fmt.Sprintf(pinyinPrompt, strings.Join(chars, ", "))),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.1)),
			ResponseMIMEType: "application/json",
			ResponseSchema:   pinyinSchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	var pairs []Pair
	if err := json.Unmarshal([]byte(text), &pairs); err != nil {
		return nil, fmt.Errorf("parse pinyin JSON: %w\nraw response: %s", err, text)
	}
	return pairs, nil
}

// GenerateImage draws one square blind-box figure and returns it as a data URL.
func (g *GeminiClient) GenerateImage(ctx context.Context, theme Theme, style string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel,
		genai.Text(figurePrompt(style, nil)),
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: "1:1"},
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini image %s: %w", theme, err)
	}

	if part := firstInlinePart(resp); part != nil {
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return dataURL(mime, part.InlineData.Data), nil
	}
	return "", ErrNoImage
}

// Synthesize reads text with the prebuilt voice. Gemini answers with raw PCM.
func (g *GeminiClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.speechModel,
		genai.Text(text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityAudio)},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini speech: %w", err)
	}

	part := firstInlinePart(resp)
	if part == nil || len(part.InlineData.Data) == 0 {
		return nil, fmt.Errorf("gemini speech: no audio in response")
	}
	return part.InlineData.Data, nil
}

func firstInlinePart(resp *genai.GenerateContentResponse) *genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			return part
		}
	}
	return nil
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
