package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"go.uber.org/zap"
)

// ErrDisabled is returned by every call when no provider is configured
var ErrDisabled = errors.New("ai provider disabled")

// ScopeItem is a line item extracted from scope text
type ScopeItem struct {
	Description string  `json:"description"`
	Area        string  `json:"area"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
}

// ScopeParser turns free text (site notes, transcripts) into line items
type ScopeParser interface {
	ParseScopeText(ctx context.Context, text string) ([]ScopeItem, error)
}

// Transcriber converts recorded audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Categorizer assigns a trade category to an item description
type Categorizer interface {
	Categorize(ctx context.Context, description string) (string, error)
}

// Provider bundles the AI capabilities used by the services
type Provider interface {
	ScopeParser
	Transcriber
	Categorizer
	Name() string
}

// NewFromConfig builds the provider selected by cfg.Provider
func NewFromConfig(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ai provider openai requires an API key")
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.TranscriptionModel, logger), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ai provider gemini requires an API key")
		}
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, logger)
	case "none", "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

// Disabled is the provider used when AI is switched off
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) ParseScopeText(ctx context.Context, text string) ([]ScopeItem, error) {
	return nil, ErrDisabled
}

func (Disabled) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return "", ErrDisabled
}

func (Disabled) Categorize(ctx context.Context, description string) (string, error) {
	return "", ErrDisabled
}

const scopeInstruction = `You extract maintenance and building work line items from site notes written by a contractor.
Respond with JSON only, in the form {"items":[{"description":string,"area":string,"quantity":number,"unit":string,"category":string}]}.
Rules:
- One item per distinct task. Keep the contractor's wording for the description.
- area is the room or location the task applies to, empty if not stated.
- quantity defaults to 1 when not stated. unit is a short unit such as m2, m, each, hours, or empty.
- category is one of: ` + categoryList + `.`

const categoryInstruction = `Classify the maintenance task into exactly one category from this list: ` + categoryList + `.
Respond with JSON only: {"category":string}.`

type scopeResponse struct {
	Items []ScopeItem `json:"items"`
}

type categoryResponse struct {
	Category string `json:"category"`
}

// decodeScopeItems parses a model reply into items, dropping empty lines
func decodeScopeItems(content string) ([]ScopeItem, error) {
	var resp scopeResponse
	if err := json.Unmarshal([]byte(extractJSON(content)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse scope response: %w", err)
	}

	items := make([]ScopeItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			continue
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.Category = NormalizeCategory(item.Category)
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, errors.New("model returned no items")
	}
	return items, nil
}

func decodeCategory(content string) (string, error) {
	var resp categoryResponse
	if err := json.Unmarshal([]byte(extractJSON(content)), &resp); err != nil {
		return "", fmt.Errorf("failed to parse category response: %w", err)
	}
	return NormalizeCategory(resp.Category), nil
}

// extractJSON strips markdown code fences and surrounding prose from a model
// reply, returning the outermost JSON object
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
