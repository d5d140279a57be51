package phonetic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no OpenAI API key is configured
var ErrNoAPIKey = errors.New("OpenAI API key not found")

// Config configures the fetcher
type Config struct {
	APIKey   string
	BaseURL  string // Optional API endpoint override
	Model    string // Defaults to gpt-4o-mini
	Language string // Language of the words, used in the prompt
}

// Fetcher asks an OpenAI chat model for the IPA transcription of a word
type Fetcher struct {
	cfg    Config
	client *openai.Client
}

// NewFetcher creates a new phonetic information fetcher
func NewFetcher(cfg Config) (*Fetcher, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Language == "" {
		cfg.Language = "foreign"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Fetcher{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}, nil
}

// Fetch returns the transcription of word in square brackets with the
// stress mark, e.g. [ˈjabəlkə]
func (f *Fetcher) Fetch(ctx context.Context, word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", nil
	}

	req := openai.ChatCompletionRequest{
		Model: f.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a %s language expert helping language learners with pronunciation.", f.cfg.Language),
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Give the IPA transcription of the %s text '%s' including stress marks. "+
					"Respond with only the transcription in square brackets, nothing else.", f.cfg.Language, word),
			},
		},
		Temperature: 0.3,
		MaxTokens:   60,
	}

	resp, err := f.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return Normalize(resp.Choices[0].Message.Content), nil
}

// Normalize trims a model answer to a single bracketed transcription
func Normalize(answer string) string {
	s := strings.TrimSpace(answer)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, "/[]` ")
	return "[" + s + "]"
}
