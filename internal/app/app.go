// Package app wires the daemon together: the player poll loop, the lyrics
// provider, the sync engine and the IPC server, all driven from a single
// tick goroutine.
package app

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyricsync/internal/config"
	"lyricsync/internal/engine"
	"lyricsync/internal/ipc"
	"lyricsync/internal/lyrics"
	"lyricsync/internal/player"
	"lyricsync/internal/timeline"
)

type delivery struct {
	trackID string
	tl      *timeline.Timeline
}

// timelineMessage is the IPC envelope payload for a new timeline.
type timelineMessage struct {
	TrackID  string             `json:"trackId"`
	Timeline *timeline.Timeline `json:"timeline"`
}

type App struct {
	cfg            *config.Config
	ipcServer      *ipc.Server
	lyricsProvider *lyrics.Provider
	playerClock    *player.Playerctl
	surface        *ipcSurface
	engine         *engine.Engine

	currentSong string
	fetchCancel context.CancelFunc
	deliveries  chan delivery
}

func New(cfg *config.Config) *App {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lyricsProvider, err := lyrics.NewProvider(cfg.App.CacheDir, cfg.AI, cfg.Redis, cfg.Provider.Sources)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create lyrics provider")
	}

	playerClock := player.New()
	surface := newIPCSurface(cfg.Engine.LineHeight)

	return &App{
		cfg:            cfg,
		ipcServer:      ipc.NewServer(cfg.App.SocketPath),
		lyricsProvider: lyricsProvider,
		playerClock:    playerClock,
		surface:        surface,
		engine:         engine.New(cfg.Engine, playerClock, surface, log.Logger),
		deliveries:     make(chan delivery, 1),
	}
}

// Run starts the IPC server and enters the main loop. Every engine call
// happens on this goroutine; fetches run concurrently but hand their
// results back through the deliveries channel.
func (a *App) Run() {
	if err := os.MkdirAll(a.cfg.App.CacheDir, 0755); err != nil {
		log.Fatal().Err(err).Str("cache_dir", a.cfg.App.CacheDir).Msg("Failed to create cache directory")
	}
	log.Info().Str("cache_dir", a.cfg.App.CacheDir).Msg("Lyrics cache directory")

	if err := a.ipcServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start IPC server")
	}
	defer a.ipcServer.Close()
	defer a.lyricsProvider.Close()

	ticker := time.NewTicker(a.cfg.App.TickInterval)
	defer ticker.Stop()
	poll := time.NewTicker(a.cfg.App.PollInterval)
	defer poll.Stop()

	log.Info().
		Dur("tick_interval", a.cfg.App.TickInterval).
		Dur("poll_interval", a.cfg.App.PollInterval).
		Msg("Starting sync loop")

	for {
		select {
		case now := <-ticker.C:
			snap := a.engine.Tick(now)
			a.ipcServer.PublishSnapshot(snap)

		case <-poll.C:
			a.checkTrackChange()

		case d := <-a.deliveries:
			a.engine.DeliverTimeline(d.trackID, d.tl)
			if d.tl != nil {
				a.ipcServer.PublishTimeline(timelineMessage{TrackID: d.trackID, Timeline: d.tl})
			}

		case event := <-a.ipcServer.Events():
			a.handleClientEvent(event)
		}
	}
}

// checkTrackChange polls the player and restarts the lyrics fetch when the
// song changed. An in-flight fetch for the old song is cancelled; even if
// it races the cancel, the engine discards deliveries for stale tracks.
func (a *App) checkTrackChange() {
	songIdentifier, err := a.playerClock.GetCurrentSong()
	if err != nil {
		songIdentifier = ""
	}
	if songIdentifier == a.currentSong {
		return
	}

	log.Info().Msg("-----------------------------------------------------")
	log.Info().Str("song", songIdentifier).Msg("New song detected")
	a.currentSong = songIdentifier

	if a.fetchCancel != nil {
		a.fetchCancel()
		a.fetchCancel = nil
	}

	a.engine.BeginTrack(songIdentifier)
	if songIdentifier == "" {
		a.engine.Unavailable(songIdentifier)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.fetchCancel = cancel
	duration := float64(a.playerClock.GetTrackLength())

	go func() {
		tl, err := a.lyricsProvider.GetTimeline(ctx, songIdentifier, duration)
		if err != nil {
			if errors.Is(err, lyrics.ErrNotSong) {
				log.Info().Str("song", songIdentifier).Msg("Not a song, skipping lyrics")
			} else {
				log.Error().Err(err).Str("song", songIdentifier).Msg("Failed to get lyrics")
			}
			tl = nil
		}
		select {
		case a.deliveries <- delivery{trackID: songIdentifier, tl: tl}:
		case <-ctx.Done():
		}
	}()
}

func (a *App) handleClientEvent(event ipc.ClientEvent) {
	switch event.Op {
	case "scroll":
		a.surface.noteClientOffset(event.Offset)
		a.engine.OnUserScroll(event.Tag, time.Now())
	case "seek":
		if err := a.engine.RequestSeek(event.Time); err != nil {
			log.Warn().Err(err).Float64("time", event.Time).Msg("Seek failed")
		}
	case "line":
		if err := a.engine.SeekToLine(event.Line); err != nil {
			log.Warn().Err(err).Int("line", event.Line).Msg("Seek to line failed")
		}
	default:
		log.Warn().Str("op", event.Op).Msg("Unknown client event")
	}
}
