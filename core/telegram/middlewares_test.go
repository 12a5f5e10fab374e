package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/mediabot/core/config"
)

func middlewareNames(mws []Middleware) []string {
	names := make([]string, 0, len(mws))
	for _, mw := range mws {
		names = append(names, mw.Name)
	}
	return names
}

func TestDefaultMiddlewares(t *testing.T) {
	assert.Equal(t, []string{"recover", "logger", "metrics"}, middlewareNames(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{}
	cfg.RateLimit.IntervalMS = 500
	cfg.RateLimit.Burst = 3
	cfg.RateLimit.ExcludeUpdates = []string{"Callback"}
	assert.Equal(t, []string{"recover", "rate_limit", "logger", "metrics"}, middlewareNames(DefaultMiddlewares(cfg, nil)))
}
