package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// SearchResponse is the NetEase search API payload.
type SearchResponse struct {
	Result struct {
		Songs []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"songs"`
	} `json:"result"`
}

// LyricResponse is the NetEase lyric API payload.
type LyricResponse struct {
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	Klyric struct {
		Lyric string `json:"lyric"`
	} `json:"klyric"`
}

// Client is a NetEase Cloud Music lyrics client.
type Client struct {
	httpClient     *http.Client
	cookie         string
	maxRetries     int
	requestTimeout time.Duration
}

// NewClient creates a NetEase client. An optional NETEASE_COOKIE
// environment variable is attached to requests.
func NewClient() *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		cookie:         os.Getenv("NETEASE_COOKIE"),
		maxRetries:     3,
		requestTimeout: 5 * time.Second,
	}
}

// GetProviderName returns the backend name.
func (c *Client) GetProviderName() string {
	return "NetEase Cloud Music"
}

// SearchSong searches for a song and returns its numeric ID.
func (c *Client) SearchSong(ctx context.Context, title, artist string) (string, error) {
	searchURL := fmt.Sprintf("https://music.163.com/api/search/get/web?csrf_token=hlpretag&hlposttag=&s=%s&type=1&limit=100", url.QueryEscape(title))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create search request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(searchResp.Result.Songs) == 0 {
		return "", fmt.Errorf("no songs found for '%s'", title)
	}

	songID := c.findBestMatch(searchResp, artist, title)
	if songID == 0 {
		return "", fmt.Errorf("no matching song found for '%s' by '%s'", title, artist)
	}

	return strconv.Itoa(songID), nil
}

// GetLyrics fetches the LRC text for a song ID.
func (c *Client) GetLyrics(ctx context.Context, songID string) (string, error) {
	lyricURL := fmt.Sprintf("http://music.163.com/api/song/lyric?os=pc&id=%s&lv=-1&kv=-1&tv=-1", songID)

	req, err := http.NewRequestWithContext(ctx, "GET", lyricURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create lyric request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return "", fmt.Errorf("lyric request failed: %w", err)
	}
	defer resp.Body.Close()

	var lyricResp LyricResponse
	if err := json.NewDecoder(resp.Body).Decode(&lyricResp); err != nil {
		return "", fmt.Errorf("failed to decode lyric response: %w", err)
	}

	// klyric carries word timestamps when available; the line-level lrc
	// is the common case.
	if lyricResp.Klyric.Lyric != "" {
		return lyricResp.Klyric.Lyric, nil
	}
	return lyricResp.Lrc.Lyric, nil
}

// doRequestWithRetry executes the request, retrying transient failures
// and 5xx responses with a short backoff.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("INFO: [NetEase] Retrying request (attempt %d/%d)", attempt+1, c.maxRetries)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			log.Printf("WARN: [NetEase] Request failed: %v (attempt %d/%d)", err, attempt+1, c.maxRetries)
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			log.Printf("WARN: [NetEase] Request returned status %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries)
			resp.Body.Close()
			err = fmt.Errorf("server returned status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, err)
	}
	return nil, fmt.Errorf("request failed after %d attempts", c.maxRetries)
}

// findBestMatch picks a song whose name and artist both match; failing
// that, the first result whose name matches.
func (c *Client) findBestMatch(resp SearchResponse, targetArtist, targetTitle string) int {
	for _, song := range resp.Result.Songs {
		if !containsIgnoreCase(song.Name, targetTitle) {
			continue
		}
		for _, artist := range song.Artists {
			if containsIgnoreCase(artist.Name, targetArtist) {
				log.Printf("INFO: [NetEase] Found matching song: %s by %s (ID: %d)", song.Name, artist.Name, song.ID)
				return song.ID
			}
		}
	}

	if len(resp.Result.Songs) > 0 && containsIgnoreCase(resp.Result.Songs[0].Name, targetTitle) {
		log.Printf("INFO: [NetEase] Using first matching song: %s (ID: %d)", resp.Result.Songs[0].Name, resp.Result.Songs[0].ID)
		return resp.Result.Songs[0].ID
	}

	return 0
}

// normalizeString lowers case and strips spaces so CJK and Latin titles
// compare loosely.
func normalizeString(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

func containsIgnoreCase(s1, s2 string) bool {
	norm1, norm2 := normalizeString(s1), normalizeString(s2)
	return strings.Contains(norm1, norm2) || strings.Contains(norm2, norm1)
}
