package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider implements Provider with chat completions and Whisper
type OpenAIProvider struct {
	client             *openai.Client
	model              string
	transcriptionModel string
	logger             *zap.Logger
}

// NewOpenAIProvider creates a provider using the public OpenAI endpoint
func NewOpenAIProvider(apiKey, model, transcriptionModel string, logger *zap.Logger) *OpenAIProvider {
	return newOpenAIProvider(openai.NewClient(apiKey), model, transcriptionModel, logger)
}

// NewOpenAIProviderWithBaseURL points the client at a compatible endpoint
func NewOpenAIProviderWithBaseURL(apiKey, baseURL, model, transcriptionModel string, logger *zap.Logger) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newOpenAIProvider(openai.NewClientWithConfig(cfg), model, transcriptionModel, logger)
}

func newOpenAIProvider(client *openai.Client, model, transcriptionModel string, logger *zap.Logger) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	if transcriptionModel == "" {
		transcriptionModel = openai.Whisper1
	}
	return &OpenAIProvider{
		client:             client,
		model:              model,
		transcriptionModel: transcriptionModel,
		logger:             logger.Named("openai"),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) ParseScopeText(ctx context.Context, text string) ([]ScopeItem, error) {
	content, err := p.complete(ctx, scopeInstruction, text)
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

func (p *OpenAIProvider) Categorize(ctx context.Context, description string) (string, error) {
	content, err := p.complete(ctx, categoryInstruction, description)
	if err != nil {
		return "", err
	}
	return decodeCategory(content)
}

func (p *OpenAIProvider) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.transcriptionModel,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("transcription returned no text")
	}
	return text, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
