package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no OpenAI API key is configured
var ErrNoAPIKey = errors.New("OpenAI API key not found. Set OPENAI_API_KEY or openai.api_key in .cardsheet.yaml")

// Catalog groups model IDs by what cardsheet can use them for
type Catalog struct {
	Chat  []string // Translation and hints
	Other []string
}

// Lister handles listing available OpenAI models
type Lister struct {
	client *openai.Client
}

// NewLister creates a new model lister; baseURL may be empty
func NewLister(apiKey, baseURL string) (*Lister, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Lister{client: openai.NewClientWithConfig(cfg)}, nil
}

// List fetches and categorizes the models available to the API key
func (l *Lister) List(ctx context.Context) (Catalog, error) {
	resp, err := l.client.ListModels(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to list models: %w", err)
	}

	var c Catalog
	for _, model := range resp.Models {
		if IsChatModel(model.ID) {
			c.Chat = append(c.Chat, model.ID)
		} else {
			c.Other = append(c.Other, model.ID)
		}
	}
	sort.Strings(c.Chat)
	sort.Strings(c.Other)
	return c, nil
}

// IsChatModel reports whether a model ID names a chat completion model
func IsChatModel(id string) bool {
	if strings.Contains(id, "tts") || strings.Contains(id, "audio") ||
		strings.Contains(id, "realtime") || strings.Contains(id, "transcribe") {
		return false
	}
	return strings.Contains(id, "gpt") || strings.Contains(id, "chat") ||
		strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3") || strings.HasPrefix(id, "o4")
}

// Print writes the catalog in the command's output format
func (c Catalog) Print(w io.Writer) {
	fmt.Fprintln(w, "Chat models (usable for translate and hints):")
	if len(c.Chat) == 0 {
		fmt.Fprintln(w, "  No chat models found")
	}
	for _, id := range c.Chat {
		fmt.Fprintf(w, "  %s\n", id)
	}
	if len(c.Other) > 0 {
		fmt.Fprintf(w, "\n%d other models not usable by cardsheet\n", len(c.Other))
	}
}
