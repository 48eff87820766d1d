package rcache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/sashell/go-libsap/apierror"
)

type httpSource struct {
	url    *url.URL
	client *http.Client
}

// NewHTTPSource creates a Source that fetches a JSON array of raw records
// from srcURL. If client is nil, a client that retries transient failures
// with backoff is used.
func NewHTTPSource(srcURL string, client *http.Client) (Source, error) {
	u, err := url.Parse(srcURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url must have http or https scheme: %s", srcURL)
	}

	if client == nil {
		rclient := &retryablehttp.Client{
			RetryWaitMin: time.Second,
			RetryWaitMax: 10 * time.Second,
			RetryMax:     3,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
		}
		client = rclient.StandardClient()
	}

	return &httpSource{
		url:    u,
		client: client,
	}, nil
}

func (s *httpSource) Fetch(ctx context.Context) ([]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apierror.FromResponse(resp.StatusCode, body)
	}

	var records []any
	err = json.Unmarshal(body, &records)
	if err != nil {
		return nil, fmt.Errorf("cannot decode records: %w", err)
	}
	return records, nil
}

func (s *httpSource) String() string {
	return s.url.String()
}
