// Package lyrics resolves a raw player title into a parsed lyrics timeline.
//
// The pipeline is: normalize the title (AI when configured, heuristic split
// otherwise), then try redis, then the on-disk cache, then the remote
// sources. Fetched lyrics are written back to both cache tiers.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"lyricsync/internal/config"
	"lyricsync/internal/timeline"
	"lyricsync/pkg/ai"
	"lyricsync/pkg/ai/gemini"
	"lyricsync/pkg/ai/openai"
	"lyricsync/pkg/fileutil"
	"lyricsync/pkg/redis"
	"lyricsync/pkg/source"
)

// ErrNotSong reports that the player title does not describe a song, e.g. a
// podcast or a random video. Callers should show the no-lyrics state instead
// of retrying.
var ErrNotSong = errors.New("media title is not a song")

const redisKeyTTL = 30 * 24 * time.Hour

type Provider struct {
	cacheDir      string
	aiClient      ai.Client
	cache         *redis.Client
	sourceManager *source.Manager
}

func formatQuerySong(title string) string {
	return fmt.Sprintf(`Extract song information from a media title and answer strictly in this JSON format: {"is_song": true, "title": "song title", "artist": "artist name"}. If the title does not contain a song, answer {"is_song": false}. "title" and "artist" must be exact, no markdown, no extra text. The media title is: %s`, title)
}

// NewProvider wires the AI backend, the redis cache and the lyrics sources.
// Both the AI backend and redis are optional; the provider degrades to the
// heuristic title split and the file cache when they are unavailable.
func NewProvider(cacheDir string, aiCfg config.AIConfig, redisCfg config.RedisConfig, sources []string) (*Provider, error) {
	names := make([]source.Name, 0, len(sources))
	for _, s := range sources {
		names = append(names, source.Name(s))
	}
	sourceManager, err := source.CreateManager(names...)
	if err != nil {
		return nil, fmt.Errorf("failed to create source manager: %w", err)
	}

	var aiClient ai.Client
	if aiCfg.APIKey != "" {
		if aiCfg.ModuleName == "gemini" || aiCfg.ModuleName == "" {
			aiClient = gemini.NewGemini(aiCfg.APIKey, "")
		} else {
			aiClient = openai.NewOpenAi(aiCfg.APIKey, aiCfg.ModuleName, aiCfg.BaseURL)
		}
	}

	cache, err := redis.NewClient(redisCfg.Addr, redisCfg.Password, redisCfg.DB)
	if err != nil {
		log.Printf("WARN: Redis unavailable (%v), falling back to file cache only", err)
		cache = nil
	}

	return &Provider{
		cacheDir:      cacheDir,
		aiClient:      aiClient,
		cache:         cache,
		sourceManager: sourceManager,
	}, nil
}

// GetTimeline resolves the raw title and returns a parsed timeline for it.
// duration is the track length in seconds and may be 0 when unknown.
func (p *Provider) GetTimeline(ctx context.Context, songIdentifier string, duration float64) (*timeline.Timeline, error) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	info, err := p.resolveTrackInfo(songIdentifier)
	if err != nil {
		return nil, err
	}
	info.Duration = duration

	cacheKey := sanitizeFilename(info.Title + "-" + info.Artist)

	if lrc := p.readCache(ctx, cacheKey); lrc != "" {
		return p.parse(lrc)
	}
	log.Printf("INFO: Cache MISS for '%s - %s'. Fetching from sources.", info.Artist, info.Title)

	lrc, err := p.sourceManager.GetLyricsByInfo(ctx, info.Title, info.Artist, info.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to get lyrics for '%s - %s': %w", info.Artist, info.Title, err)
	}
	if strings.TrimSpace(lrc) == "" {
		return nil, fmt.Errorf("sources returned empty lyrics for '%s - %s'", info.Artist, info.Title)
	}

	p.writeCache(ctx, cacheKey, lrc)

	return p.parse(lrc)
}

// resolveTrackInfo turns the raw player title into structured track info.
// The AI path retries a few times and falls back to the heuristic split so
// a flaky backend never blocks lyrics entirely.
func (p *Provider) resolveTrackInfo(songIdentifier string) (source.TrackInfo, error) {
	if p.aiClient == nil {
		return splitIdentifier(songIdentifier), nil
	}

	var rawSongInfo string
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		rawSongInfo, err = p.aiClient.HandleText(formatQuerySong(songIdentifier))
		if err == nil {
			break
		}
		log.Printf("WARN: AI query failed (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		log.Printf("WARN: AI unavailable after %d attempts, using heuristic title split", maxRetries)
		return splitIdentifier(songIdentifier), nil
	}

	var info source.TrackInfo
	if unmarshalErr := json.Unmarshal([]byte(rawSongInfo), &info); unmarshalErr != nil {
		log.Printf("WARN: Failed to parse AI response, using heuristic title split: %v", unmarshalErr)
		return splitIdentifier(songIdentifier), nil
	}

	if !info.IsSong {
		return source.TrackInfo{}, fmt.Errorf("%w: %s", ErrNotSong, songIdentifier)
	}

	log.Printf("INFO: AI normalized title to '%s - %s'", info.Artist, info.Title)
	return info, nil
}

// splitIdentifier parses the common "Artist - Title" player format. When the
// separator is missing the whole string is treated as the title.
func splitIdentifier(songIdentifier string) source.TrackInfo {
	parts := strings.SplitN(songIdentifier, " - ", 2)
	if len(parts) == 2 {
		return source.TrackInfo{
			Title:  strings.TrimSpace(parts[1]),
			Artist: strings.TrimSpace(parts[0]),
			IsSong: true,
		}
	}
	return source.TrackInfo{
		Title:  strings.TrimSpace(songIdentifier),
		IsSong: true,
	}
}

func (p *Provider) readCache(ctx context.Context, cacheKey string) string {
	if p.cache != nil {
		if lrc, err := p.cache.Get(ctx, "lyrics:"+cacheKey); err == nil && lrc != "" {
			log.Printf("INFO: Redis cache HIT for %s", cacheKey)
			return lrc
		}
	}

	cacheFilepath := filepath.Join(p.cacheDir, cacheKey+".lrc")
	if cachedLyrics, err := os.ReadFile(cacheFilepath); err == nil {
		log.Printf("INFO: File cache HIT. Loading lyrics from %s", cacheFilepath)
		if p.cache != nil {
			if err := p.cache.SetWithExpiration(ctx, "lyrics:"+cacheKey, string(cachedLyrics), redisKeyTTL); err != nil {
				log.Printf("WARN: Failed to backfill redis cache: %v", err)
			}
		}
		return string(cachedLyrics)
	}

	return ""
}

func (p *Provider) writeCache(ctx context.Context, cacheKey, lrc string) {
	cacheFilepath := filepath.Join(p.cacheDir, cacheKey+".lrc")
	log.Printf("INFO: Saving new lyrics to cache file: %s", cacheFilepath)
	if err := fileutil.WriteFileOverwrite(cacheFilepath, []byte(lrc), 0644); err != nil {
		log.Printf("ERROR: Failed to write cache file %s: %v", cacheFilepath, err)
	}

	if p.cache != nil {
		if err := p.cache.SetWithExpiration(ctx, "lyrics:"+cacheKey, lrc, redisKeyTTL); err != nil {
			log.Printf("WARN: Failed to write redis cache: %v", err)
		}
	}
}

func (p *Provider) parse(lrc string) (*timeline.Timeline, error) {
	tl := timeline.ParseLRC(lrc)
	if len(tl.Lines) == 0 {
		return nil, fmt.Errorf("lyrics contained no usable lines")
	}
	return tl, nil
}

// Close releases the redis connection if one was established.
func (p *Provider) Close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			log.Printf("WARN: Failed to close redis client: %v", err)
		}
	}
}

func sanitizeFilename(name string) string {
	re := regexp.MustCompile(`[\\/:*?"<>|]`)
	return re.ReplaceAllString(name, "-")
}
