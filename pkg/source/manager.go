package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "source-manager").Logger()

// Manager tries each configured lyrics source in order until one
// succeeds. The first source is primary; the rest are fallbacks.
type Manager struct {
	sources []LyricsSource
	primary LyricsSource
}

// NewManager creates a manager over the given sources.
func NewManager(sources []LyricsSource) *Manager {
	if len(sources) == 0 {
		logger.Warn().Msg("No lyrics sources configured")
		return &Manager{}
	}

	primary := sources[0]
	logger.Info().
		Int("source_count", len(sources)).
		Str("primary_source", primary.GetProviderName()).
		Msg("Lyrics source manager initialized")

	return &Manager{
		sources: sources,
		primary: primary,
	}
}

// GetLyricsByInfo fetches raw lyrics text for a track, falling back
// across sources. Sources that support one-shot info lookup are queried
// that way; the rest go through search-then-fetch.
func (m *Manager) GetLyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error) {
	if len(m.sources) == 0 {
		return "", fmt.Errorf("no lyrics sources available")
	}

	var lastErr error
	for i, src := range m.sources {
		logger.Info().
			Str("title", title).
			Str("artist", artist).
			Str("source", src.GetProviderName()).
			Int("attempt", i+1).
			Int("total_sources", len(m.sources)).
			Msg("Trying to get lyrics")

		if infoSrc, ok := src.(InfoSource); ok && duration > 0 {
			lyrics, err := infoSrc.GetLyricsByInfo(ctx, title, artist, duration)
			if err == nil {
				logger.Info().Str("source", src.GetProviderName()).Msg("Got lyrics using duration match")
				return lyrics, nil
			}
			logger.Warn().Str("source", src.GetProviderName()).Err(err).Msg("Info lookup failed")
			lastErr = err
			continue
		}

		songID, err := src.SearchSong(ctx, title, artist)
		if err != nil {
			logger.Warn().Str("source", src.GetProviderName()).Err(err).Msg("Source search failed")
			lastErr = err
			continue
		}

		lyrics, err := src.GetLyrics(ctx, songID)
		if err != nil {
			logger.Warn().
				Str("source", src.GetProviderName()).
				Str("song_id", songID).
				Err(err).
				Msg("Source get lyrics failed")
			lastErr = err
			continue
		}

		logger.Info().
			Str("title", title).
			Str("artist", artist).
			Str("source", src.GetProviderName()).
			Msg("Successfully got lyrics")
		return lyrics, nil
	}

	return "", fmt.Errorf("all sources failed to get lyrics for '%s - %s', last error: %w", title, artist, lastErr)
}

// GetProviderName implements LyricsSource for nesting managers in logs.
func (m *Manager) GetProviderName() string {
	if m.primary != nil {
		return fmt.Sprintf("Manager[Primary: %s]", m.primary.GetProviderName())
	}
	return "Manager[No Sources]"
}

// SearchSong delegates to the first source that answers.
func (m *Manager) SearchSong(ctx context.Context, title, artist string) (string, error) {
	if len(m.sources) == 0 {
		return "", fmt.Errorf("no lyrics sources available")
	}
	var lastErr error
	for _, src := range m.sources {
		songID, err := src.SearchSong(ctx, title, artist)
		if err == nil {
			return songID, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all sources failed, last error: %w", lastErr)
}

// GetLyrics delegates to the first source that answers.
func (m *Manager) GetLyrics(ctx context.Context, songID string) (string, error) {
	if len(m.sources) == 0 {
		return "", fmt.Errorf("no lyrics sources available")
	}
	var lastErr error
	for _, src := range m.sources {
		lyrics, err := src.GetLyrics(ctx, songID)
		if err == nil {
			return lyrics, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all sources failed, last error: %w", lastErr)
}

// GetSourceCount returns the number of configured sources.
func (m *Manager) GetSourceCount() int {
	return len(m.sources)
}
