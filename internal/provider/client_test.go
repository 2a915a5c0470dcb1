package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Complete_Success(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/completions" {
			t.Errorf("expected /v1/completions, got %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "cmpl-123",
			"model": "text-davinci-003",
			"choices": []map[string]any{
				{"text": " The answer is 42.", "index": 0, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "text-davinci-003")

	resp, err := client.Complete(context.Background(), "Hello there", 50)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.FirstChoiceText() != " The answer is 42." {
		t.Errorf("unexpected answer: %q", resp.FirstChoiceText())
	}
	if resp.Usage.TotalTokens != 12 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer credential, got %q", gotAuth)
	}
	if gotBody["model"] != "text-davinci-003" {
		t.Errorf("unexpected model: %v", gotBody["model"])
	}
	if gotBody["prompt"] != "Hello there" {
		t.Errorf("unexpected prompt: %v", gotBody["prompt"])
	}
	if gotBody["max_tokens"] != float64(50) {
		t.Errorf("unexpected max_tokens: %v", gotBody["max_tokens"])
	}
	if gotBody["temperature"] != float64(0) {
		t.Errorf("expected temperature 0, got %v", gotBody["temperature"])
	}
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-456","model":"text-davinci-003","choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "text-davinci-003")

	_, err := client.Complete(context.Background(), "Hello there", 50)
	if !errors.Is(err, ErrEmptyChoices) {
		t.Fatalf("expected ErrEmptyChoices, got: %v", err)
	}
}

func TestClient_Complete_MissingChoicesField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-789"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "text-davinci-003")

	_, err := client.Complete(context.Background(), "Hello there", 50)
	if !errors.Is(err, ErrEmptyChoices) {
		t.Fatalf("expected ErrEmptyChoices, got: %v", err)
	}
}

func TestClient_Complete_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-bad", "text-davinci-003")

	_, err := client.Complete(context.Background(), "Hello there", 50)
	if !errors.Is(err, ErrProviderStatus) {
		t.Fatalf("expected ErrProviderStatus, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("error should carry provider detail, got: %v", err)
	}
}

func TestClient_Complete_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "text-davinci-003")

	_, err := client.Complete(context.Background(), "Hello there", 50)
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

func TestClient_Complete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "text-davinci-003")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, "Hello there", 50)
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestClient_TrimsBaseURL(t *testing.T) {
	client := NewClient("https://api.example.com/", "sk-test", "text-davinci-003")
	if client.baseURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", client.baseURL)
	}
}
