package source

import (
	"fmt"

	"lyricsync/pkg/lrclib"
	"lyricsync/pkg/netease"
)

// Name identifies a lyrics backend in configuration.
type Name string

const (
	// NameLRCLib is the lrclib.net open lyrics database.
	NameLRCLib Name = "lrclib"
	// NameNetEase is NetEase Cloud Music.
	NameNetEase Name = "netease"
)

// Create instantiates a single backend by name.
func Create(name Name) (LyricsSource, error) {
	switch name {
	case NameLRCLib:
		return lrclib.NewClient(), nil
	case NameNetEase:
		return netease.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown lyrics source: %s", name)
	}
}

// CreateManager builds a manager over the named backends, skipping the
// ones that fail to construct. With no names it uses the default order:
// lrclib first (it serves word-synced lyrics), NetEase as fallback.
func CreateManager(names ...Name) (*Manager, error) {
	if len(names) == 0 {
		names = []Name{NameLRCLib, NameNetEase}
	}

	var sources []LyricsSource
	for _, name := range names {
		src, err := Create(name)
		if err != nil {
			logger.Warn().Str("source", string(name)).Err(err).Msg("Failed to create lyrics source")
			continue
		}
		sources = append(sources, src)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no lyrics sources available")
	}
	return NewManager(sources), nil
}
