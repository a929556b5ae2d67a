package source

import "context"

// LyricsSource is the common surface of a lyrics backend.
type LyricsSource interface {
	// SearchSong resolves a track to a provider-specific song ID.
	SearchSong(ctx context.Context, title, artist string) (string, error)

	// GetLyrics fetches the raw LRC text for a song ID.
	GetLyrics(ctx context.Context, songID string) (string, error)

	// GetProviderName names the backend for logs.
	GetProviderName() string
}

// InfoSource is an optional extension for backends that can resolve
// lyrics in one call from track metadata, skipping the search step.
type InfoSource interface {
	GetLyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error)
}

// TrackInfo is the normalized track metadata used for lookups.
type TrackInfo struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Duration float64 `json:"duration"`
	IsSong   bool    `json:"is_song"`
}
