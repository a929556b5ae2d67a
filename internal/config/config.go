package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"lyricsync/internal/engine"
)

const (
	DefaultSocketPath   = "/tmp/lyricsync.sock"
	DefaultTickInterval = 16 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

func getDefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lyricsync")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lyricsync_cache"
	}

	return filepath.Join(homeDir, ".cache", "lyricsync")
}

// TomlConfig mirrors the config file layout.
type TomlConfig struct {
	App struct {
		SocketPath   string `toml:"socket_path"`
		TickInterval string `toml:"tick_interval"`
		PollInterval string `toml:"poll_interval"`
		CacheDir     string `toml:"cache_dir"`
	} `toml:"app"`

	Engine struct {
		SeekThreshold    float64 `toml:"seek_threshold"`
		MinPause         float64 `toml:"min_pause"`
		InhaleDuration   float64 `toml:"inhale_duration"`
		LatencyShift     float64 `toml:"latency_shift"`
		DefaultWordSpan  float64 `toml:"default_word_span"`
		OverrideReturnMs int     `toml:"override_return_ms"`
		TagValidityMs    int     `toml:"tag_validity_ms"`
		ScrollSlop       float64 `toml:"scroll_slop"`
		AnchorOffset     float64 `toml:"anchor_offset"`
		LineHeight       float64 `toml:"line_height"`
		DotStyle         string  `toml:"dot_style"`
	} `toml:"engine"`

	AI struct {
		ModuleName string `toml:"module_name"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI-compatible endpoints
	} `toml:"ai"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	Provider struct {
		Sources []string `toml:"sources"`
	} `toml:"provider"`
}

// AppConfig holds the daemon-level settings.
type AppConfig struct {
	SocketPath   string
	TickInterval time.Duration
	PollInterval time.Duration
	CacheDir     string
}

// AIConfig selects the optional title-normalization backend.
type AIConfig struct {
	ModuleName string
	APIKey     string
	BaseURL    string
}

// RedisConfig points at the shared lyrics cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProviderConfig orders the lyrics sources.
type ProviderConfig struct {
	Sources []string
}

// Config is the assembled application configuration.
type Config struct {
	App      AppConfig
	Engine   engine.Config
	AI       AIConfig
	Redis    RedisConfig
	Provider ProviderConfig
}

func getConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyricsync", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("WARN: Cannot get user home directory: %v", err)
		return "config.toml"
	}

	return filepath.Join(homeDir, ".config", "lyricsync", "config.toml")
}

func loadTomlConfig() (*TomlConfig, error) {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("INFO: Config file not found at %s, using defaults", configPath)
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Printf("INFO: Loaded config from %s", configPath)
	return &config, nil
}

// Load reads the config file and applies it over the defaults. The engine
// durations are tuned UI constants; the file can override them but the
// defaults are the values the panels shipped with.
func Load() *Config {
	tomlConfig, err := loadTomlConfig()
	if err != nil {
		log.Printf("ERROR: Failed to load config file: %v", err)
		log.Printf("INFO: Using default configuration")
		tomlConfig = &TomlConfig{}
	}

	config := &Config{
		App: AppConfig{
			SocketPath:   DefaultSocketPath,
			TickInterval: DefaultTickInterval,
			PollInterval: DefaultPollInterval,
			CacheDir:     getDefaultCacheDir(),
		},
		Engine: engine.DefaultConfig(),
		AI: AIConfig{
			ModuleName: "",
			APIKey:     "",
			BaseURL:    "",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Provider: ProviderConfig{
			Sources: []string{"lrclib", "netease"},
		},
	}

	if tomlConfig.App.SocketPath != "" {
		config.App.SocketPath = tomlConfig.App.SocketPath
	}

	if tomlConfig.App.TickInterval != "" {
		if duration, err := time.ParseDuration(tomlConfig.App.TickInterval); err == nil {
			config.App.TickInterval = duration
		} else {
			log.Printf("WARN: Invalid tick_interval format '%s', using default", tomlConfig.App.TickInterval)
		}
	}

	if tomlConfig.App.PollInterval != "" {
		if duration, err := time.ParseDuration(tomlConfig.App.PollInterval); err == nil {
			config.App.PollInterval = duration
		} else {
			log.Printf("WARN: Invalid poll_interval format '%s', using default", tomlConfig.App.PollInterval)
		}
	}

	if tomlConfig.App.CacheDir != "" {
		config.App.CacheDir = tomlConfig.App.CacheDir
	}

	applyEngineOverrides(&config.Engine, tomlConfig)

	if tomlConfig.AI.ModuleName != "" {
		config.AI.ModuleName = tomlConfig.AI.ModuleName
	}

	if tomlConfig.AI.BaseURL != "" {
		config.AI.BaseURL = tomlConfig.AI.BaseURL
	}

	if tomlConfig.AI.APIKey != "" {
		config.AI.APIKey = tomlConfig.AI.APIKey
	}

	if tomlConfig.Redis.Addr != "" {
		config.Redis.Addr = tomlConfig.Redis.Addr
	}

	if tomlConfig.Redis.Password != "" {
		config.Redis.Password = tomlConfig.Redis.Password
	}

	if tomlConfig.Redis.DB != 0 {
		config.Redis.DB = tomlConfig.Redis.DB
	}

	if len(tomlConfig.Provider.Sources) > 0 {
		config.Provider.Sources = tomlConfig.Provider.Sources
	}

	return config
}

func applyEngineOverrides(cfg *engine.Config, tomlConfig *TomlConfig) {
	e := tomlConfig.Engine

	if e.SeekThreshold > 0 {
		cfg.SeekThreshold = e.SeekThreshold
	}
	if e.MinPause > 0 {
		cfg.MinPause = e.MinPause
	}
	if e.InhaleDuration > 0 {
		cfg.InhaleDuration = e.InhaleDuration
	}
	if e.LatencyShift != 0 {
		cfg.LatencyShift = e.LatencyShift
	}
	if e.DefaultWordSpan > 0 {
		cfg.DefaultWordSpan = e.DefaultWordSpan
	}
	if e.OverrideReturnMs > 0 {
		cfg.OverrideReturn = time.Duration(e.OverrideReturnMs) * time.Millisecond
	}
	if e.TagValidityMs > 0 {
		cfg.TagValidity = time.Duration(e.TagValidityMs) * time.Millisecond
	}
	if e.ScrollSlop > 0 {
		cfg.ScrollSlop = e.ScrollSlop
	}
	if e.AnchorOffset > 0 {
		cfg.AnchorOffset = e.AnchorOffset
	}
	if e.LineHeight > 0 {
		cfg.LineHeight = e.LineHeight
	}
	switch engine.DotStyle(e.DotStyle) {
	case engine.DotStyleLegacy, engine.DotStylePhased:
		cfg.DotStyle = engine.DotStyle(e.DotStyle)
	case "":
	default:
		log.Printf("WARN: Unknown dot_style '%s', using default", e.DotStyle)
	}
}
