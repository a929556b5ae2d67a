package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the lrclib.net open lyrics database.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
	maxRetries     int
}

// Response is one lrclib search result.
type Response struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	Duration     int    `json:"duration"`
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// SearchResponse is the search endpoint's list payload.
type SearchResponse []Response

// NewClient creates an lrclib client with default timeouts.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:        "https://lrclib.net/api",
		requestTimeout: 5 * time.Second,
		maxRetries:     3,
	}
}

// GetProviderName returns the backend name.
func (c *Client) GetProviderName() string {
	return "LRCLib"
}

// SearchSong returns a synthetic song ID; lrclib searches by metadata
// directly, so no separate search round-trip is needed.
func (c *Client) SearchSong(ctx context.Context, title, artist string) (string, error) {
	return fmt.Sprintf("%s|%s", title, artist), nil
}

// GetLyrics fetches lyrics for a synthetic "title|artist" song ID.
func (c *Client) GetLyrics(ctx context.Context, songID string) (string, error) {
	parts := strings.Split(songID, "|")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid song ID format: %s", songID)
	}
	return c.getLyricsByInfo(ctx, parts[0], parts[1], 0)
}

// GetLyricsByInfo fetches lyrics directly from track metadata, using the
// duration to pick between same-named results.
func (c *Client) GetLyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error) {
	return c.getLyricsByInfo(ctx, title, artist, int(duration))
}

func (c *Client) getLyricsByInfo(ctx context.Context, title, artist string, duration int) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)

	searchURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("INFO: [LRCLib] Retrying request (attempt %d/%d)", attempt, c.maxRetries)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
		}

		req, reqErr := http.NewRequestWithContext(timeoutCtx, "GET", searchURL, nil)
		if reqErr != nil {
			return "", fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("User-Agent", "lyricsync/1.0")

		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if err != nil {
			log.Printf("WARN: [LRCLib] Request failed: %v (attempt %d/%d)", err, attempt+1, c.maxRetries)
		} else {
			log.Printf("WARN: [LRCLib] Request returned status %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries)
			resp.Body.Close()
		}

		if attempt == c.maxRetries {
			if err != nil {
				return "", fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
			}
			return "", fmt.Errorf("request failed after %d attempts with status %d", attempt+1, resp.StatusCode)
		}
	}

	defer resp.Body.Close()

	var results SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	log.Printf("INFO: [LRCLib] Found %d results for '%s - %s'", len(results), title, artist)

	if len(results) == 0 {
		return "", fmt.Errorf("no lyrics found for '%s - %s'", title, artist)
	}

	best := c.findBestMatch(results, title, artist, duration)

	// Synced lyrics drive the highlighting engine; plain text is the
	// degraded fallback.
	if best.SyncedLyrics != "" {
		log.Printf("INFO: [LRCLib] Selected synced lyrics for '%s - %s' (duration: %ds, target: %ds)",
			best.TrackName, best.ArtistName, best.Duration, duration)
		return best.SyncedLyrics, nil
	}

	if best.PlainLyrics != "" {
		log.Printf("INFO: [LRCLib] Selected plain lyrics for '%s - %s' (duration: %ds, target: %ds)",
			best.TrackName, best.ArtistName, best.Duration, duration)
		return best.PlainLyrics, nil
	}

	return "", fmt.Errorf("selected result has no lyrics for '%s - %s'", title, artist)
}

// findBestMatch picks the result closest to the requested track: exact
// title+artist matches first, then title matches, tie-broken by duration.
func (c *Client) findBestMatch(results SearchResponse, targetTitle, targetArtist string, targetDuration int) *Response {
	if len(results) == 0 {
		return nil
	}

	var exactMatches []*Response
	var titleMatches []*Response

	for i := range results {
		r := &results[i]
		if containsIgnoreCase(r.TrackName, targetTitle) && containsIgnoreCase(r.ArtistName, targetArtist) {
			exactMatches = append(exactMatches, r)
		} else if containsIgnoreCase(r.TrackName, targetTitle) {
			titleMatches = append(titleMatches, r)
		}
	}

	pool := exactMatches
	if len(pool) == 0 {
		pool = titleMatches
	}
	if len(pool) == 0 {
		pool = make([]*Response, len(results))
		for i := range results {
			pool[i] = &results[i]
		}
	}

	if targetDuration > 0 {
		const maxDurationDiff = 3 // seconds of tolerated mismatch
		best := pool[0]
		minDiff := abs(best.Duration - targetDuration)

		for _, m := range pool {
			diff := abs(m.Duration - targetDuration)
			if diff < minDiff {
				minDiff = diff
				best = m
			}
			if diff <= maxDurationDiff {
				return m
			}
		}
		log.Printf("INFO: [LRCLib] Using best duration match with %ds difference", minDiff)
		return best
	}

	return pool[0]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
