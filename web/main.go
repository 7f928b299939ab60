package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/df07/go-nearfield-flow/internal/logging"
	"github.com/df07/go-nearfield-flow/web/server"
)

func main() {
	var (
		port      int
		configDir string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "nearfield-web",
		Short: "Serve field maps and power-flow lines over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logging.Level(verbose))
			webServer := server.NewServer(port, configDir, logger)
			logger.Info("near-field web server", "url", fmt.Sprintf("http://localhost:%d/api/presets", port))
			return webServer.Start(cmd.Context())
		},
		SilenceUsage: true,
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to serve on")
	cmd.Flags().StringVar(&configDir, "configs", "configs", "Directory of additional YAML configurations")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
