package codes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrCodeService is returned for any unusable answer from the code service.
var ErrCodeService = errors.New("code service request failed")

// maxCodeBody bounds how much of the response body is read.
const maxCodeBody = 4 << 10

// Client fetches codes from a peer instance's /codes/next endpoint. It makes
// exactly one request per call: no retries, no circuit breaking.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a Client for url. A zero timeout keeps the http.Client
// default.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// AssignCode implements patient.CodeAssigner.
func (c *Client) AssignCode(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrCodeService, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCodeService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCodeBody))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrCodeService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrCodeService, resp.StatusCode)
	}

	code := strings.TrimSpace(strings.ReplaceAll(string(body), `"`, ""))
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrCodeService)
	}
	return code, nil
}
