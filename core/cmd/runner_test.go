package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/mediabot/core/config"
	coretelegram "github.com/m3rciful/mediabot/core/telegram"
)

type carrier struct{ core *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.core }

type app struct {
	started, stopped *bool
}

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { *a.started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { *a.stopped = true; return nil },
	}, nil
}

func TestRunWiresHooks(t *testing.T) {
	var started, stopped, flushed bool
	var loadedPath string
	err := Run(Options{
		ConfigPath: "/etc/mediabot.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			return carrier{core: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return app{started: &started, stopped: &stopped}, nil
		},
		ShutdownLogger: func() error { flushed = true; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
		Context: context.Background(),
	})
	require.NoError(t, err)
	assert.Equal(t, "/etc/mediabot.yaml", loadedPath)
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, flushed)
}

func TestRunErrors(t *testing.T) {
	assert.Error(t, Run(Options{}))

	boom := errors.New("boom")
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorIs(t, err, boom)

	err = Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorContains(t, err, "missing core configuration")
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv("MEDIABOT_CONFIG", "/from/env.yaml")
	o := Options{ConfigEnvVar: "MEDIABOT_CONFIG", DefaultConfigPath: "config.yaml"}
	assert.Equal(t, "/from/env.yaml", o.configPath())

	o.ConfigPath = "/explicit.yaml"
	assert.Equal(t, "/explicit.yaml", o.configPath())

	t.Setenv("MEDIABOT_CONFIG", "")
	assert.Equal(t, "config.yaml", Options{ConfigEnvVar: "MEDIABOT_CONFIG", DefaultConfigPath: "config.yaml"}.configPath())
}
