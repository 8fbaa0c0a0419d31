package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrTransport covers an unreachable source or a non-2xx reply.
	ErrTransport = errors.New("telemetry transport failure")
	// ErrDecode covers malformed or incomplete documents.
	ErrDecode = errors.New("telemetry decode failure")
)

const maxBody = 4 << 20

type Client struct {
	url  string
	http *http.Client
}

// NewClient targets http://addr/. The timeout bounds a single fetch and
// should not exceed one tick period.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		url:  "http://" + addr + "/",
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d from %s", ErrTransport, resp.StatusCode, c.url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return body, nil
}

// Decode parses a sniffer document. A missing gameStage is not an error
// here; callers decide what an absent stage means.
func Decode(data []byte) (*Readout, error) {
	var r Readout
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if r.Memory == nil {
		return nil, fmt.Errorf("%w: missing memoryReadout", ErrDecode)
	}
	return &r, nil
}

// FetchReadout is Fetch followed by Decode.
func (c *Client) FetchReadout(ctx context.Context) (*Readout, error) {
	data, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
