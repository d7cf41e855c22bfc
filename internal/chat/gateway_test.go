package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGatewayClientStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode gateway request: %v", err)
		}
		if req.Stage != StageGather {
			t.Errorf("expected stage %d on the wire, got %d", StageGather, req.Stage)
		}
		if len(req.Messages) != 2 {
			t.Errorf("expected 2 wire messages, got %d", len(req.Messages))
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hello \"}}]}\n",
			": keep-alive\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n",
			"data: [DONE]\n",
		} {
			_, _ = w.Write([]byte(line))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client, err := NewGatewayClient(GatewayConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewGatewayClient: %v", err)
	}

	var deltas []string
	result, err := client.Stream(context.Background(), GenerateRequest{
		Messages: []WireMessage{
			{Role: RoleAssistant, Content: Greeting},
			{Role: RoleUser, Content: "hi"},
		},
		Stage: StageGather,
	}, func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if result.Text != "Hello world" {
		t.Errorf("unexpected text: %q", result.Text)
	}
	if result.Deltas != 2 || len(deltas) != 2 {
		t.Errorf("expected 2 deltas, got %d/%d", result.Deltas, len(deltas))
	}
}

func TestGatewayClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	client, err := NewGatewayClient(GatewayConfig{BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("NewGatewayClient: %v", err)
	}

	_, err = client.Stream(context.Background(), GenerateRequest{Stage: StageGreet}, nil)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry status and upstream detail: %v", err)
	}
}

func TestGatewayClientRequiresBaseURL(t *testing.T) {
	if _, err := NewGatewayClient(GatewayConfig{}, nil); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
