package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/editorctl/editorctl/internal/config"
	"github.com/editorctl/editorctl/internal/logging"
	"github.com/editorctl/editorctl/internal/observability"
	"github.com/editorctl/editorctl/internal/registry"
	"github.com/editorctl/editorctl/internal/server"
)

func main() {
	configPath := flag.String("config", "editorctl.toml", "path to bridge config")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := config.LoadBridgeConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "editorctl: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "editorctl: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.BridgeConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observability.InitLogger(cfg.Name)

	reg := registry.New(cfg.RegistryConfig())
	defer reg.Close()
	reg.Start(ctx)

	reg.Events().Subscribe(registry.EventConnectionError, func(evt registry.Event) {
		log.Warn().Str("target", evt.Target).Any("detail", evt.Data).Msg("connection degraded")
	})

	srv := server.New(cfg.Name, cfg.Addr, cfg.CorsOrigins, reg)
	return srv.Run(ctx)
}
