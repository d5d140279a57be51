package search

import (
	"encoding/json"
	"fmt"
)

const pixabayHost = "pixabay.com"

// pixabayResponse represents the API response structure
type pixabayResponse struct {
	Total     int            `json:"total"`
	TotalHits int            `json:"totalHits"`
	Hits      []pixabayImage `json:"hits"`
}

// pixabayImage represents a single image in the response
type pixabayImage struct {
	ID           int    `json:"id"`
	PageURL      string `json:"pageURL"`
	Tags         string `json:"tags"`
	PreviewURL   string `json:"previewURL"`
	WebformatURL string `json:"webformatURL"`
	User         string `json:"user"`
}

type pixabay struct{}

func (pixabay) Name() string {
	return "pixabay"
}

// Parse maps each hit to its preview URL
func (pixabay) Parse(body []byte) ([]string, error) {
	var resp pixabayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	urls := make([]string, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		urls = append(urls, hit.PreviewURL)
	}
	return urls, nil
}
