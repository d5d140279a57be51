package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no OpenAI API key is configured
var ErrNoAPIKey = errors.New("OpenAI API key not found")

// Config configures the translator
type Config struct {
	APIKey  string
	BaseURL string // Optional API endpoint override
	Model   string // Defaults to gpt-4o-mini
	From    string // Source language of the Front side
	To      string // Target language of the Back side
}

// Translator translates card fronts with an OpenAI chat model
type Translator struct {
	cfg    Config
	client *openai.Client
	cache  *Cache
}

// NewTranslator creates a new translator instance
func NewTranslator(cfg Config) (*Translator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.From == "" {
		cfg.From = "the source language"
	}
	if cfg.To == "" {
		cfg.To = "English"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Translator{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		cache:  NewCache(),
	}, nil
}

// Translate translates text, reusing earlier answers for identical text
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if cached, ok := t.cache.Get(text); ok {
		return cached, nil
	}

	req := openai.ChatCompletionRequest{
		Model: t.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the %s text '%s' to %s. Respond with only the translation, nothing else.",
					t.cfg.From, text, t.cfg.To),
			},
		},
		MaxTokens:   100,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	t.cache.Add(text, translation)
	return translation, nil
}

// Cache stores translations in memory for batch operations
type Cache struct {
	mu           sync.RWMutex
	translations map[string]string
}

// NewCache creates a new translation cache
func NewCache() *Cache {
	return &Cache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (c *Cache) Add(text, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.translations[text] = translation
}

// Get retrieves a translation from the cache
func (c *Cache) Get(text string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	translation, ok := c.translations[text]
	return translation, ok
}

// Len returns the number of cached translations
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.translations)
}
