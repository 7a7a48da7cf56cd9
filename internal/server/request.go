package server

import (
	"encoding/json"
	"fmt"

	"github.com/kapu/gamegen-go/internal/input"
)

// urlInput accepts either the raw multi-line text or a JSON array of URLs.
type urlInput []string

func (u *urlInput) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*u = input.SplitLines(text)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("urls must be a string or an array of strings")
	}
	*u = list
	return nil
}

type generateRequest struct {
	URLs urlInput `json:"urls"`
}

// urls normalizes the request and rejects an empty list.
func (r generateRequest) urls() ([]string, error) {
	return input.RequireURLs(r.URLs)
}

type iframeRequest struct {
	URL string `json:"url"`
}
