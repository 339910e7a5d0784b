package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/veristream/veristream/internal/server"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live verification server",
	Long: `Serve starts the HTTP and WebSocket ingress for live transcripts.

Feed utterances and audio energy samples in; verification results stream
back per session, and corrections for false claims are spoken at the
next conversational pause.

Example:
  veristream serve
  veristream serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := setupLogger(cfg.Log)

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, a.deps, a.monitor, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		return srv.Start(ctx)
	})

	err = g.Wait()

	// Let scheduled corrections drain before exit
	a.scheduler.Wait()
	return err
}
