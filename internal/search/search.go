package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout = 30 * time.Second

	// consecutive transport or server failures before lookups short-circuit
	breakerTrip = 5
)

// ErrUnsupportedDomain is returned when the configured endpoint's hostname
// matches no known provider
var ErrUnsupportedDomain = errors.New("unsupported image search domain")

// Result is the ranked list of candidate image URLs for a query
type Result struct {
	Candidates []string // Best first
	NoMatch    bool     // Set when the provider had nothing usable
}

// Best returns the first candidate
func (r Result) Best() (string, bool) {
	if r.NoMatch || len(r.Candidates) == 0 {
		return "", false
	}
	return r.Candidates[0], true
}

func noMatch() Result {
	return Result{NoMatch: true}
}

// SearchError represents a failed request to an image search provider
type SearchError struct {
	Provider string
	Code     int
	Message  string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Code, e.Message)
}

// Config configures the image searcher
type Config struct {
	ImageURL string        // Endpoint template; the encoded query is appended
	Timeout  time.Duration // Request timeout, default 30s
}

// Option customizes a Searcher
type Option func(*Searcher)

// WithClient replaces the HTTP client
func WithClient(client *resty.Client) Option {
	return func(s *Searcher) {
		s.client = client
	}
}

// Searcher resolves card text to image URLs with the provider selected by
// the endpoint's hostname
type Searcher struct {
	endpoint string
	provider provider
	client   *resty.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewSearcher creates a searcher for the configured endpoint template
func NewSearcher(cfg Config, opts ...Option) (*Searcher, error) {
	p, err := providerFor(cfg.ImageURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := &Searcher{
		endpoint: cfg.ImageURL,
		provider: p,
		client:   resty.New().SetTimeout(timeout),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    p.Name(),
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Default().Warn("image search circuit changed state",
				slog.String("provider", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return s, nil
}

// Provider returns the name of the selected provider
func (s *Searcher) Provider() string {
	return s.provider.Name()
}

// FindImages searches images for the markup-stripped text. Network and
// response failures yield a no-match result instead of an error.
func (s *Searcher) FindImages(ctx context.Context, text string) (Result, error) {
	if s.provider == nil {
		return Result{}, ErrUnsupportedDomain
	}

	query := StripMarkup(text)
	reqURL := s.endpoint + EncodeComponent(query)
	logger := slog.Default().With(slog.String("provider", s.provider.Name()), slog.String("query", query))

	body, err := s.fetch(ctx, reqURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		logger.Warn("image search failed", slog.Any("error", err))
		return noMatch(), nil
	}

	candidates, err := s.provider.Parse(body)
	if err != nil {
		logger.Warn("image search response not understood", slog.Any("error", err))
		return noMatch(), nil
	}
	if len(candidates) == 0 {
		logger.Debug("image search had no hits")
		return noMatch(), nil
	}
	return Result{Candidates: candidates}, nil
}

func (s *Searcher) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		res, err := s.client.R().SetContext(ctx).Get(reqURL)
		if err != nil {
			return nil, fmt.Errorf("failed to query image search: %w", err)
		}
		// Server errors count against the breaker, client errors do not.
		if res.StatusCode() >= http.StatusInternalServerError {
			return nil, &SearchError{Provider: s.provider.Name(), Code: res.StatusCode(), Message: res.String()}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	res := out.(*resty.Response)
	if res.StatusCode() != http.StatusOK {
		return nil, &SearchError{Provider: s.provider.Name(), Code: res.StatusCode(), Message: res.String()}
	}
	return res.Body(), nil
}

// provider turns a successful response body into candidate URLs
type provider interface {
	Name() string
	Parse(body []byte) ([]string, error)
}

var providers = map[string]provider{
	pixabayHost: pixabay{},
	googleHost:  google{},
}

func providerFor(endpoint string) (provider, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("image endpoint %q: %w", endpoint, ErrUnsupportedDomain)
	}
	p, ok := providers[u.Hostname()]
	if !ok {
		return nil, fmt.Errorf("image endpoint host %q: %w", u.Hostname(), ErrUnsupportedDomain)
	}
	return p, nil
}
