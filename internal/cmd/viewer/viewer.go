// Package viewer parses viewer command flags and starts the viewer runtime.
package viewer

import (
	"context"
	"flag"

	entrypoint "github.com/arbourlane/vigil/internal/platform/cmd"
	"github.com/arbourlane/vigil/internal/viewer/app"
)

// Config holds viewer command configuration.
type Config struct {
	Addr         string `env:"VIGIL_VIEWER_ADDR" envDefault:"127.0.0.1:8090"`
	EngineURL    string `env:"VIGIL_ENGINE_URL" envDefault:"ws://127.0.0.1:8091/ws"`
	EngineOrigin string `env:"VIGIL_ENGINE_ORIGIN" envDefault:"http://127.0.0.1:8090"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The viewer HTTP listen address")
	fs.StringVar(&cfg.EngineURL, "engine-url", cfg.EngineURL, "The engine websocket URL")
	fs.StringVar(&cfg.EngineOrigin, "engine-origin", cfg.EngineOrigin, "The origin header sent on the engine dial")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the viewer service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceViewer, func(ctx context.Context) error {
		return app.Run(ctx, app.Config{
			Addr:         cfg.Addr,
			EngineURL:    cfg.EngineURL,
			EngineOrigin: cfg.EngineOrigin,
		})
	})
}
