package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider implements Provider on Google's Gemini models. Audio is
// sent inline, so transcription needs no separate speech model.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiProvider creates a Gemini client. Close releases it.
func NewGeminiProvider(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model, logger: logger.Named("gemini")}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) jsonModel(instruction string) *genai.GenerativeModel {
	m := p.client.GenerativeModel(p.model)
	m.SetTemperature(0.1)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}
	return m
}

func (p *GeminiProvider) ParseScopeText(ctx context.Context, text string) ([]ScopeItem, error) {
	resp, err := p.jsonModel(scopeInstruction).GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}
	content, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	items, err := decodeScopeItems(content)
	if err != nil {
		p.logger.Warn("unusable scope response", zap.Error(err), zap.Int("content_length", len(content)))
		return nil, err
	}
	return items, nil
}

func (p *GeminiProvider) Categorize(ctx context.Context, description string) (string, error) {
	resp, err := p.jsonModel(categoryInstruction).GenerateContent(ctx, genai.Text(description))
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}
	content, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return decodeCategory(content)
}

func (p *GeminiProvider) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	m := p.client.GenerativeModel(p.model)
	m.SetTemperature(0)
	resp, err := m.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text("Transcribe this voice note verbatim. Respond with the transcript only."),
	)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("Gemini returned no text")
	}
	return b.String(), nil
}
