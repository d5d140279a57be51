package testutil

import (
	"context"
	"fmt"
	"sync"
)

// StaticSource is a clipboard source returning fixed text
type StaticSource struct {
	Text string
	Err  error
}

// ReadText returns the configured text
func (s StaticSource) ReadText(ctx context.Context) (string, error) {
	return s.Text, s.Err
}

// RecordingSink records progress messages
type RecordingSink struct {
	mu       sync.Mutex
	Messages []string
}

// Report records a message
func (s *RecordingSink) Report(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
}

// Last returns the last recorded message
func (s *RecordingSink) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

// MockTranslator mocks translation service
type MockTranslator struct {
	Translations map[string]string
	Errors       map[string]error
	Calls        []string
}

// Translate mocks translating text
func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("Translate: %s", text))

	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}
	return fmt.Sprintf("mock translation of %s", text), nil
}
