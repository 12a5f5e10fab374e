package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/mediabot/core/config"
	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/internal/config"
)

func testConfig(t *testing.T, adminID int64) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Config: coreconfig.Config{
			Telegram: coreconfig.TelegramConfig{Token: "123:abc", AdminID: adminID},
		},
	}
	cfg.Scratch.Dir = t.TempDir()
	require.NoError(t, coreconfig.Normalize(&cfg.Config))
	require.NoError(t, cfg.Normalize())
	return cfg
}

func routeEndpoints(routes []tg.Route) []any {
	out := make([]any, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.Endpoint)
	}
	return out
}

func TestTelegramRunOptions(t *testing.T) {
	app, err := NewApp(testConfig(t, 0), nil)
	require.NoError(t, err)

	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)

	assert.Equal(t, []string{"lang", "mode"}, opts.Registry.Callbacks())
	endpoints := routeEndpoints(opts.Routes)
	assert.Contains(t, endpoints, "/start")
	assert.Contains(t, endpoints, "/cancel")
	assert.NotContains(t, endpoints, "/stats")
	assert.NotEmpty(t, opts.Middlewares)
	assert.NotNil(t, opts.OnStart)
	assert.NotNil(t, opts.OnStop)
}

func TestStatsRegisteredForAdmin(t *testing.T) {
	app, err := NewApp(testConfig(t, 42), nil)
	require.NoError(t, err)

	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)
	_, cmd, ok := opts.Registry.LookupCommand("/stats")
	require.True(t, ok)
	assert.True(t, cmd.AdminOnly)
	assert.True(t, cmd.Hidden)
}

func TestStartLocksScratchRoot(t *testing.T) {
	cfg := testConfig(t, 0)
	first, err := NewApp(cfg, nil)
	require.NoError(t, err)
	second, err := NewApp(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, first.start(ctx, tg.Runtime{}))
	assert.Error(t, second.start(ctx, tg.Runtime{}))
	require.NoError(t, first.stop(ctx, tg.Runtime{}))

	require.NoError(t, second.start(ctx, tg.Runtime{}))
	require.NoError(t, second.stop(ctx, tg.Runtime{}))
}
