package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/mediabot/internal/i18n"
	"github.com/m3rciful/mediabot/internal/media"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, "yt-dlp", cfg.Media.YTDLPPath)
	assert.Equal(t, "mp3", cfg.Media.AudioCodec)
	assert.Equal(t, "192K", cfg.Media.AudioBitrate)
	assert.Equal(t, "mp4", cfg.Media.VideoContainer)
	assert.Equal(t, 4, cfg.Media.ConcurrentFragments)
	assert.NotEmpty(t, cfg.Scratch.Dir)
	assert.Equal(t, i18n.English, cfg.Language())
	assert.Equal(t, media.Audio, cfg.Mode())
	assert.Equal(t, 4*time.Second, cfg.Dialogue.PresenceInterval)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadReadsSections(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
media:
  fetch_timeout: 10m
  max_concurrent: 3
scratch:
  dir: /var/tmp/mb
  stale_after: 1h
dialogue:
  default_language: uz
  default_mode: video
  idle_timeout: 24h
health:
  enabled: true
database:
  enabled: true
  driver: sqlite
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Media.FetchTimeout)
	assert.EqualValues(t, 3, cfg.Media.MaxConcurrent)
	assert.Equal(t, "/var/tmp/mb", cfg.Scratch.Dir)
	assert.Equal(t, time.Hour, cfg.Scratch.StaleAfter)
	assert.Equal(t, i18n.Uzbek, cfg.Language())
	assert.Equal(t, media.Video, cfg.Mode())
	assert.Equal(t, 24*time.Hour, cfg.Dialogue.IdleTimeout)
	assert.Equal(t, "0.0.0.0:8081", cfg.Health.Addr())
	assert.Equal(t, "mediabot.db", cfg.Database.Path)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "from-file"
media:
  ytdlp_path: /usr/bin/yt-dlp
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("YTDLP_PATH", "/opt/yt-dlp")
	t.Setenv("SCRATCH_DIR", "/srv/scratch")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "/opt/yt-dlp", cfg.Media.YTDLPPath)
	assert.Equal(t, "/srv/scratch", cfg.Scratch.Dir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing token":    "media: {}\n",
		"bad language":     "telegram: {token: x}\ndialogue: {default_language: fr}\n",
		"bad mode":         "telegram: {token: x}\ndialogue: {default_mode: gif}\n",
		"negative timeout": "telegram: {token: x}\nmedia: {fetch_timeout: -1s}\n",
		"bad driver":       "telegram: {token: x}\ndatabase: {enabled: true, driver: mysql}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadLocalSkipsTelegramChecks(t *testing.T) {
	cfg, err := LoadLocal(writeConfig(t, "scratch: {dir: /tmp/x}\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", cfg.Scratch.Dir)
}
