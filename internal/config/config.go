// Package config holds the mediabot configuration: the shared core settings
// plus the media, scratch, dialogue, health and history sections.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/mediabot/core/config"
	coredatabase "github.com/m3rciful/mediabot/core/database"
	"github.com/m3rciful/mediabot/internal/i18n"
	"github.com/m3rciful/mediabot/internal/media"
)

// MediaConfig controls the external downloader.
type MediaConfig struct {
	YTDLPPath           string        `yaml:"ytdlp_path" envconfig:"YTDLP_PATH"`
	FFmpegPath          string        `yaml:"ffmpeg_path" envconfig:"FFMPEG_PATH"`
	AudioCodec          string        `yaml:"audio_codec" envconfig:"MEDIA_AUDIO_CODEC"`
	AudioBitrate        string        `yaml:"audio_bitrate" envconfig:"MEDIA_AUDIO_BITRATE"`
	VideoContainer      string        `yaml:"video_container" envconfig:"MEDIA_VIDEO_CONTAINER"`
	ConcurrentFragments int           `yaml:"concurrent_fragments" envconfig:"MEDIA_CONCURRENT_FRAGMENTS"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout" envconfig:"MEDIA_FETCH_TIMEOUT"`
	MaxConcurrent       int64         `yaml:"max_concurrent" envconfig:"MEDIA_MAX_CONCURRENT"`
}

// ScratchConfig places per-request workspaces.
type ScratchConfig struct {
	Dir string `yaml:"dir" envconfig:"SCRATCH_DIR"`
	// StaleAfter is the age at which leftover workspaces are swept on start; 0 disables.
	StaleAfter time.Duration `yaml:"stale_after" envconfig:"SCRATCH_STALE_AFTER"`
}

// DialogueConfig tunes the conversation layer.
type DialogueConfig struct {
	DefaultLanguage  string        `yaml:"default_language" envconfig:"DIALOGUE_DEFAULT_LANGUAGE"`
	DefaultMode      string        `yaml:"default_mode" envconfig:"DIALOGUE_DEFAULT_MODE"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" envconfig:"DIALOGUE_IDLE_TIMEOUT"`
	PresenceInterval time.Duration `yaml:"presence_interval" envconfig:"DIALOGUE_PRESENCE_INTERVAL"`
}

// HealthConfig exposes /healthz and /metrics.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"HEALTH_ENABLED"`
	Listen  string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port    int    `yaml:"port" envconfig:"HEALTH_PORT"`
}

// Addr returns the listen address.
func (h HealthConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Listen, h.Port)
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Media    MediaConfig         `yaml:"media"`
	Scratch  ScratchConfig       `yaml:"scratch"`
	Dialogue DialogueConfig      `yaml:"dialogue"`
	Health   HealthConfig        `yaml:"health"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Language returns the configured default reply language.
func (c *Config) Language() i18n.Lang {
	l, _ := i18n.ParseLang(c.Dialogue.DefaultLanguage)
	return l
}

// Mode returns the configured default media kind.
func (c *Config) Mode() media.Mode {
	m, _ := media.ParseMode(c.Dialogue.DefaultMode)
	return m
}

// Load reads path (may be empty) and the environment, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLocal is Load without the Telegram section checks, for CLI commands
// that never talk to Telegram.
func LoadLocal(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults for the application sections and validates them.
func (c *Config) Normalize() error {
	m := &c.Media
	if strings.TrimSpace(m.YTDLPPath) == "" {
		m.YTDLPPath = "yt-dlp"
	}
	m.FFmpegPath = strings.TrimSpace(m.FFmpegPath)
	if m.AudioCodec == "" {
		m.AudioCodec = "mp3"
	}
	if m.AudioBitrate == "" {
		m.AudioBitrate = "192K"
	}
	if m.VideoContainer == "" {
		m.VideoContainer = "mp4"
	}
	if m.ConcurrentFragments <= 0 {
		m.ConcurrentFragments = 4
	}
	if m.FetchTimeout < 0 {
		return fmt.Errorf("media.fetch_timeout must be >= 0")
	}
	if m.MaxConcurrent < 0 {
		return fmt.Errorf("media.max_concurrent must be >= 0")
	}

	if strings.TrimSpace(c.Scratch.Dir) == "" {
		c.Scratch.Dir = filepath.Join(os.TempDir(), "mediabot")
	}
	if c.Scratch.StaleAfter < 0 {
		return fmt.Errorf("scratch.stale_after must be >= 0")
	}

	d := &c.Dialogue
	if d.DefaultLanguage == "" {
		d.DefaultLanguage = string(i18n.English)
	}
	if _, ok := i18n.ParseLang(d.DefaultLanguage); !ok {
		return fmt.Errorf("invalid dialogue.default_language %q", d.DefaultLanguage)
	}
	if d.DefaultMode == "" {
		d.DefaultMode = string(media.Audio)
	}
	if _, ok := media.ParseMode(d.DefaultMode); !ok {
		return fmt.Errorf("invalid dialogue.default_mode %q; allowed: audio, video", d.DefaultMode)
	}
	if d.IdleTimeout < 0 {
		return fmt.Errorf("dialogue.idle_timeout must be >= 0")
	}
	if d.PresenceInterval <= 0 {
		d.PresenceInterval = 4 * time.Second
	}

	if c.Health.Enabled {
		if c.Health.Port <= 0 {
			c.Health.Port = 8081
		}
		if strings.TrimSpace(c.Health.Listen) == "" {
			c.Health.Listen = "0.0.0.0"
		}
	}

	return c.Database.Normalize()
}
