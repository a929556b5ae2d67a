package netease

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientRetry(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"result":{"songs":[{"id":123,"name":"Test Song","artists":[{"name":"Test Artist"}]}]}}`))
	}))
	defer server.Close()

	client := &Client{
		httpClient:     &http.Client{Timeout: 1 * time.Second},
		maxRetries:     3,
		requestTimeout: 2 * time.Second,
	}

	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := client.doRequestWithRetry(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if requestCount != 3 {
		t.Errorf("expected 3 attempts, got %d", requestCount)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &Client{
		httpClient:     &http.Client{Timeout: 1 * time.Second},
		maxRetries:     1,
		requestTimeout: 1 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = client.doRequestWithRetry(req); err == nil {
		t.Error("expected timeout error, got success")
	}
}

func TestSearchSongPicksArtistMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"result":{"songs":[
			{"id":1,"name":"Test Song","artists":[{"name":"Cover Band"}]},
			{"id":2,"name":"Test Song","artists":[{"name":"Real Artist"}]}
		]}}`))
	}))
	defer server.Close()

	var searchResp SearchResponse
	client := NewClient()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", server.URL, nil)
	resp, err := client.doRequestWithRetry(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if got := client.findBestMatch(searchResp, "Real Artist", "Test Song"); got != 2 {
		t.Errorf("expected song 2, got %d", got)
	}
	// Unknown artist falls back to the first title match.
	if got := client.findBestMatch(searchResp, "Nobody", "Test Song"); got != 1 {
		t.Errorf("expected fallback to song 1, got %d", got)
	}
}
