package search

import (
	"encoding/json"
	"fmt"
	"regexp"
)

const googleHost = "www.googleapis.com"

var imageExtension = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|bmp|webp)`)

// googleResponse is the Custom Search JSON API response with searchType=image
type googleResponse struct {
	Kind  string       `json:"kind"`
	Items []googleItem `json:"items"`
}

type googleItem struct {
	Link  string `json:"link"`
	Image struct {
		ThumbnailLink string `json:"thumbnailLink"`
	} `json:"image"`
}

type google struct{}

func (google) Name() string {
	return "google"
}

// Parse prefers the direct link when it looks like an image file and falls
// back to the thumbnail otherwise
func (google) Parse(body []byte) ([]string, error) {
	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	urls := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if HasImageExtension(item.Link) {
			urls = append(urls, item.Link)
		} else {
			urls = append(urls, item.Image.ThumbnailLink)
		}
	}
	return urls, nil
}

// HasImageExtension reports whether the URL mentions a known image file
// extension
func HasImageExtension(link string) bool {
	return imageExtension.MatchString(link)
}
