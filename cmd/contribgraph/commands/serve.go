package commands

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/charmbracelet/log"
	"github.com/dpolishuk/contribgraph/internal/api"
	"github.com/dpolishuk/contribgraph/internal/config"
	"github.com/dpolishuk/contribgraph/internal/logging"
	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCommand(v *viper.Viper, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated page and data over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			logger := logging.New(stderr, cfg.Debug)

			ln, err := net.Listen("tcp", ":"+cfg.Port)
			if err != nil {
				return fmt.Errorf("failed to listen on port %s: %w", cfg.Port, err)
			}

			logger.Info("serving", "addr", ln.Addr().String(), "dir", cfg.OutputDir)
			return serve(cmd.Context(), newApp(cfg), ln, logger)
		},
	}

	cmd.Flags().String(config.KeyPort, "3001", "HTTP port")
	bindFlags(v, cmd.Flags(), config.KeyPort)
	return cmd
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "contribgraph",
	})
	api.SetupRoutes(app, api.NewHandler(cfg))
	return app
}

// serve runs app on ln until ctx is cancelled or the server stops on its
// own. The shutdown goroutine exits in both cases.
func serve(ctx context.Context, app *fiber.App, ln net.Listener, logger *log.Logger) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			if err := app.Shutdown(); err != nil {
				logger.Error("shutdown failed", "error", err)
			}
		case <-done:
		}
	}()

	if err := app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
