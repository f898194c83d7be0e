package summarizer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/consonance/internal/integration/summarizer"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method %s", r.Method)
		}

		var req summarizer.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		if req.Features["score"] != 72.0 {
			t.Errorf("features not forwarded: %v", req.Features)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":"Solid mix.","score":78,"recommendations":["a","b"]}`))
	}))
	defer server.Close()

	client := summarizer.New(server.URL, time.Second)

	resp, err := client.Summarize(context.Background(), &summarizer.Request{
		Prompt:   "critique",
		Features: map[string]any{"score": 72.0},
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Summary != "Solid mix." || resp.Score != 78 || len(resp.Recommendations) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSummarizeStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := summarizer.New(server.URL, time.Second).Summarize(context.Background(), &summarizer.Request{})
	if !errors.Is(err, summarizer.ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestSummarizeInvalidJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := summarizer.New(server.URL, time.Second).Summarize(context.Background(), &summarizer.Request{})
	if !errors.Is(err, fault.ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestSummarizeTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := summarizer.New(server.URL, 50*time.Millisecond).Summarize(context.Background(), &summarizer.Request{})
	if !errors.Is(err, fault.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestSummarizeCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := summarizer.New(server.URL, time.Minute).Summarize(ctx, &summarizer.Request{})
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}

	if errors.Is(err, fault.ErrTimeout) {
		t.Errorf("cancellation reported as timeout: %v", err)
	}
}
