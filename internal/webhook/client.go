package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a reply is read into memory.
const maxBodyBytes = 1 << 20

// Request is the body every agent webhook receives.
type Request struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// TruncatedMarker is appended to the content of a reply cut at maxBodyBytes.
const TruncatedMarker = "\n\n[response truncated]"

// Reply is a fully-read webhook response. The body is read exactly once.
type Reply struct {
	StatusCode int
	Body       []byte
	Truncated  bool
}

func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Content is the text shown to the user for this reply: the normalized body on success,
// otherwise the server's error text or a synthesized "status N".
func (r *Reply) Content() string {
	var msg string
	switch {
	case !r.OK():
		msg = strings.TrimSpace(string(r.Body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", r.StatusCode)
		}
	case len(bytes.TrimSpace(r.Body)) == 0:
		msg = fmt.Sprintf("empty response (status %d)", r.StatusCode)
	default:
		msg = Normalize(r.Body)
	}
	if r.Truncated {
		msg += TruncatedMarker
	}
	return msg
}

// FailureContent names a transport-level failure (no response at all).
func FailureContent(err error) string {
	return fmt.Sprintf("request failed: %v", err)
}

type Client struct {
	HTTP *http.Client
}

// NewClient builds a webhook client. timeout <= 0 leaves the call bounded only by ctx.
func NewClient(timeout time.Duration) *Client {
	if timeout < 0 {
		timeout = 0
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

// Post sends one JSON request to endpoint. A non-2xx status is not an error; only
// transport failures (and request construction failures) are.
func (c *Client) Post(ctx context.Context, endpoint string, in Request) (*Reply, error) {
	if c.HTTP == nil {
		return nil, errors.New("webhook: http client is nil")
	}

	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// one byte past the cap tells a full-size reply from a cut one
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("webhook: read body: %w", err)
	}
	reply := &Reply{StatusCode: resp.StatusCode, Body: body}
	if len(body) > maxBodyBytes {
		reply.Body = body[:maxBodyBytes]
		reply.Truncated = true
		log.Printf("[Webhook] reply truncated endpoint=%s status=%d limit=%d", endpoint, resp.StatusCode, maxBodyBytes)
	}
	return reply, nil
}
