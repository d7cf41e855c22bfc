package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/dmorgan-dev/consulting-site/internal/chat"
)

type config struct {
	upstreamURL     string
	upstreamAPIKey  string
	upstreamModel   string
	upstreamTimeout time.Duration
}

func loadConfig() (config, error) {
	upstream := strings.TrimSpace(os.Getenv("UPSTREAM_URL"))
	if upstream == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	apiKey := strings.TrimSpace(os.Getenv("UPSTREAM_API_KEY"))
	if apiKey == "" {
		return config{}, errors.New("UPSTREAM_API_KEY is required")
	}

	timeout := 90 * time.Second
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return config{
		upstreamURL:     strings.TrimRight(upstream, "/"),
		upstreamAPIKey:  apiKey,
		upstreamModel:   strings.TrimSpace(os.Getenv("UPSTREAM_MODEL")),
		upstreamTimeout: timeout,
	}, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	client := &http.Client{Timeout: cfg.upstreamTimeout}
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, cfg, client, evt)
	})
}

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

type proxyRequest struct {
	Messages []chat.WireMessage `json:"messages"`
	Stage    chat.Stage         `json:"stage"`
}

func handle(ctx context.Context, cfg config, client *http.Client, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))

	if method == http.MethodOptions {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNoContent, Headers: corsHeaders}, nil
	}
	if method != http.MethodPost {
		return errorResponse(http.StatusMethodNotAllowed, "method not allowed"), nil
	}

	var req proxyRequest
	if err := json.Unmarshal([]byte(evt.Body), &req); err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body"), nil
	}
	if len(req.Messages) == 0 {
		return errorResponse(http.StatusBadRequest, "messages are required"), nil
	}
	if req.Stage < chat.StageGreet || req.Stage > chat.StageClosure {
		req.Stage = chat.StageGreet
	}

	body, err := json.Marshal(upstreamBody(cfg, req))
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "failed to build upstream request"), nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.upstreamTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.upstreamURL, bytes.NewReader(body))
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "failed to build upstream request"), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.upstreamAPIKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "upstream request failed"), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapUpstreamFailure(resp), nil
	}

	streamed, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "upstream stream read failed"), nil
	}

	headers := map[string]string{"Content-Type": "text/event-stream"}
	for k, v := range corsHeaders {
		headers[k] = v
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(streamed),
	}, nil
}

// upstreamBody shapes the completion request: system prompt derived from the
// conversation stage, then the transcript, streaming enabled.
func upstreamBody(cfg config, req proxyRequest) map[string]any {
	messages := make([]chat.WireMessage, 0, len(req.Messages)+1)
	messages = append(messages, chat.WireMessage{Role: "system", Content: stagePrompt(req.Stage)})
	messages = append(messages, req.Messages...)

	body := map[string]any{
		"messages": messages,
		"stream":   true,
	}
	if cfg.upstreamModel != "" {
		body["model"] = cfg.upstreamModel
	}
	return body
}

func stagePrompt(stage chat.Stage) string {
	base := "You are the assistant on Morgan Consulting's website. Keep replies short, concrete, and friendly. "
	switch stage {
	case chat.StageGreet:
		return base + "Greet the visitor and ask what brings them here."
	case chat.StageGather:
		return base + "Ask follow-up questions to understand the visitor's situation and goals."
	case chat.StageSolutions:
		return base + "Suggest how the consultancy could help with the problems described so far."
	case chat.StageOffer:
		return base + "Offer to schedule a consultation and point the visitor at the booking form."
	default:
		return base + "Wrap up warmly and remind the visitor they can book a consultation any time."
	}
}

// mapUpstreamFailure translates gateway failures for the widget: rate limit
// and payment/availability pass through, everything else is a 500.
func mapUpstreamFailure(resp *http.Response) events.APIGatewayV2HTTPResponse {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := "upstream error"
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return errorResponse(http.StatusTooManyRequests, "rate limited, try again shortly")
	case http.StatusPaymentRequired:
		return errorResponse(http.StatusPaymentRequired, "assistant is temporarily unavailable")
	default:
		return errorResponse(http.StatusInternalServerError, message)
	}
}

func errorResponse(status int, message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range corsHeaders {
		headers[k] = v
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}
