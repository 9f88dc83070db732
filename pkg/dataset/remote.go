package dataset

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var (
	apiClient = resty.New()
)

// FetchCSV downloads a csv dataset over http and parses it with ReadCSV.
func FetchCSV(ctx context.Context, url string, label string, classifier Classifier) (*Frame, error) {
	if resp, err := apiClient.R().SetContext(ctx).Get(url); err != nil {
		return nil, err
	} else if resp.IsError() {
		return nil, fmt.Errorf("error response fetching %s: %v", url, resp.Status())
	} else {
		return ReadCSV(bytes.NewReader(resp.Body()), label, classifier)
	}
}
