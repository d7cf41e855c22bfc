package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

// WireMessage is the transcript entry shape sent to the completion gateway.
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the gateway request body: the full transcript plus the
// conversation stage computed from the user's latest message.
type GenerateRequest struct {
	Messages []WireMessage `json:"messages"`
	Stage    Stage         `json:"stage"`
}

// StreamResult is the outcome of a completed stream.
type StreamResult struct {
	Text   string
	Deltas int
}

// GatewayConfig configures the completion gateway client.
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GatewayClient talks to the completion gateway (reached through the chat
// proxy) and assembles its streamed response.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewGatewayClient creates a gateway client.
func NewGatewayClient(cfg GatewayConfig, logger *logging.Logger) (*GatewayClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("chat: gateway base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GatewayClient{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Stream posts the transcript and stage to the gateway and feeds the chunked
// response through an Assembler. onDelta, if non-nil, fires per content
// delta. The read loop drains the body past the [DONE] sentinel until the
// stream itself ends.
func (c *GatewayClient) Stream(ctx context.Context, req GenerateRequest, onDelta func(delta string)) (StreamResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return StreamResult{}, fmt.Errorf("chat: marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return StreamResult{}, fmt.Errorf("chat: build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return StreamResult{}, fmt.Errorf("chat: gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StreamResult{}, fmt.Errorf("chat: gateway returned status %d: %s", resp.StatusCode, readUpstreamError(resp.Body))
	}

	assembler := NewAssembler(onDelta)
	chunk := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			assembler.Feed(chunk[:n])
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return StreamResult{}, fmt.Errorf("chat: gateway stream read: %w", readErr)
		}
	}

	return StreamResult{Text: assembler.Text(), Deltas: assembler.Deltas()}, nil
}

func readUpstreamError(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
