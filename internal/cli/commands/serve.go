package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/annokit/annokit/internal/web/server"
)

var serveTimeout time.Duration

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry over a read-only HTTP API",
		Long: `Start the inspection server. Types, mapping graphs, declarations, and
merged-annotation resolution are exposed as JSON endpoints under /api.`,
		RunE: runServe,
	}

	cmd.Flags().DurationVar(&serveTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := server.DefaultConfig(ws.registry)
	cfg.Address = ws.config.Address()
	cfg.Document = ws.document
	cfg.Filter = ws.config.Filter()
	cfg.Logger = logger

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	return server.NewGracefulShutdown(srv, serveTimeout).Start()
}
