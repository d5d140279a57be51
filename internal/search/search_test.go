package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirect sends every request to the test server while keeping path and query
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.target.Scheme
	out.URL.Host = r.target.Host
	out.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func newTestSearcher(t *testing.T, endpoint string, handler http.HandlerFunc) *Searcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	client := resty.New().SetTransport(redirect{target: target})
	s, err := NewSearcher(Config{ImageURL: endpoint}, WithClient(client))
	require.NoError(t, err)
	return s
}

func TestNewSearcherSelectsProvider(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://pixabay.com/api/?key=k&q=", "pixabay"},
		{"https://www.googleapis.com/customsearch/v1?key=k&cx=c&searchType=image&q=", "google"},
	}
	for _, tt := range tests {
		s, err := NewSearcher(Config{ImageURL: tt.endpoint})
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.Provider())
	}
}

func TestNewSearcherUnsupportedDomain(t *testing.T) {
	for _, endpoint := range []string{"https://example.com/?q=", "", "not a url"} {
		_, err := NewSearcher(Config{ImageURL: endpoint})
		assert.ErrorIs(t, err, ErrUnsupportedDomain, endpoint)
	}
}

func TestFindImagesPixabay(t *testing.T) {
	var gotQuery string
	s := newTestSearcher(t, "https://pixabay.com/api/?key=k&q=", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":2,"totalHits":2,"hits":[{"previewURL":"https://cdn.pixabay.com/a.jpg"},{"previewURL":"https://cdn.pixabay.com/b.jpg"}]}`))
	})

	res, err := s.FindImages(context.Background(), "<b>red</b> apple")
	require.NoError(t, err)
	assert.False(t, res.NoMatch)
	assert.Equal(t, []string{"https://cdn.pixabay.com/a.jpg", "https://cdn.pixabay.com/b.jpg"}, res.Candidates)
	assert.Equal(t, "key=k&q=red%20apple", gotQuery)

	best, ok := res.Best()
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.pixabay.com/a.jpg", best)
}

func TestFindImagesGoogleThumbnailFallback(t *testing.T) {
	s := newTestSearcher(t, "https://www.googleapis.com/customsearch/v1?q=", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[
			{"link":"https://example.com/page","image":{"thumbnailLink":"https://thumb/1"}},
			{"link":"https://example.com/cat.PNG?x=1","image":{"thumbnailLink":"https://thumb/2"}}
		]}`))
	})

	res, err := s.FindImages(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://thumb/1", "https://example.com/cat.PNG?x=1"}, res.Candidates)
}

func TestFindImagesNoMatch(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty hits", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"total":0,"hits":[]}`))
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSearcher(t, "https://pixabay.com/api/?q=", tt.handler)
			res, err := s.FindImages(context.Background(), "x")
			require.NoError(t, err)
			assert.True(t, res.NoMatch)
			_, ok := res.Best()
			assert.False(t, ok)
		})
	}
}

func TestFindImagesBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	s := newTestSearcher(t, "https://pixabay.com/api/?q=", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < breakerTrip+3; i++ {
		res, err := s.FindImages(context.Background(), "x")
		require.NoError(t, err)
		assert.True(t, res.NoMatch)
	}
	assert.Equal(t, int32(breakerTrip), calls.Load())
}

func TestFindImagesCanceled(t *testing.T) {
	s := newTestSearcher(t, "https://pixabay.com/api/?q=", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":[{"previewURL":"u"}]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.FindImages(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
