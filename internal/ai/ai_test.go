package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"items":[]}`, `{"items":[]}`},
		{"fenced", "```json\n{\"items\":[]}\n```", `{"items":[]}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go: {\"a\":1} hope that helps", `{"a":1}`},
		{"no object", "nothing", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestDecodeScopeItems(t *testing.T) {
	items, err := decodeScopeItems(`{"items":[
		{"description":" Paint lounge walls ","area":"Lounge","quantity":40,"unit":"m2","category":"Painting"},
		{"description":"Fix leaking tap","quantity":0,"category":"something odd"},
		{"description":"   "}
	]}`)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Paint lounge walls", items[0].Description)
	assert.Equal(t, CategoryPainting, items[0].Category)
	assert.Equal(t, 1.0, items[1].Quantity)
	assert.Equal(t, CategoryGeneral, items[1].Category)

	_, err = decodeScopeItems(`{"items":[]}`)
	assert.Error(t, err)
	_, err = decodeScopeItems(`not json`)
	assert.Error(t, err)
}

func TestKeywordCategory(t *testing.T) {
	assert.Equal(t, CategoryPlumbing, KeywordCategory("Replace geyser valve"))
	assert.Equal(t, CategoryTiling, KeywordCategory("Re-grout bathroom"))
	assert.Equal(t, CategoryRoofing, KeywordCategory("Clean gutters"))
	assert.Equal(t, CategoryGeneral, KeywordCategory("Site clean-up"))
}

func TestDisabledProvider(t *testing.T) {
	p, err := NewFromConfig(context.Background(), &config.AIConfig{Provider: "none"}, zap.NewNop())
	require.NoError(t, err)

	_, err = p.ParseScopeText(context.Background(), "paint walls")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = p.Transcribe(context.Background(), "a.webm", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewFromConfig(context.Background(), &config.AIConfig{Provider: "openai"}, zap.NewNop())
	assert.Error(t, err)
}

func chatReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAIProvider_ParseScopeText(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatReply("```json\n{\"items\":[{\"description\":\"Paint ceiling\",\"area\":\"Kitchen\",\"quantity\":12,\"unit\":\"m2\",\"category\":\"painting\"}]}\n```"))
	}))
	defer server.Close()

	p := NewOpenAIProviderWithBaseURL("sk-test", server.URL+"/v1", "", "", zap.NewNop())
	items, err := p.ParseScopeText(context.Background(), "kitchen ceiling needs paint, about 12 square metres")

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gotModel)
	require.Len(t, items, 1)
	assert.Equal(t, "Paint ceiling", items[0].Description)
	assert.Equal(t, 12.0, items[0].Quantity)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProviderWithBaseURL("sk-test", server.URL+"/v1", "", "", zap.NewNop())
	_, err := p.ParseScopeText(context.Background(), "anything")
	assert.Error(t, err)
}

func TestOpenAIProvider_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Replace the bathroom tap "}`))
	}))
	defer server.Close()

	p := NewOpenAIProviderWithBaseURL("sk-test", server.URL+"/v1", "", "", zap.NewNop())
	text, err := p.Transcribe(context.Background(), "note.webm", strings.NewReader("fake-audio"))

	require.NoError(t, err)
	assert.Equal(t, "Replace the bathroom tap", text)
}

func TestOpenAIProvider_Categorize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatReply(`{"category":"Electrical"}`))
	}))
	defer server.Close()

	p := NewOpenAIProviderWithBaseURL("sk-test", server.URL+"/v1", "", "", zap.NewNop())
	category, err := p.Categorize(context.Background(), "Install new plug point")

	require.NoError(t, err)
	assert.Equal(t, CategoryElectrical, category)
}
