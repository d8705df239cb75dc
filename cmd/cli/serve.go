package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/reconkit/internal/api"
	apihandlers "github.com/anstrom/reconkit/internal/api/handlers"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/metrics"
)

const metricsUpdateInterval = 15 * time.Second

var (
	serveHost string
	servePort int
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconkit API server",
	Long: `Run the reconkit API server. The server exposes start, stop and status
endpoints for the host scan, port scan and capture engines and streams
their events over a WebSocket at /ws/events.

The API server provides:
  - REST endpoints under /api/v1
  - Real-time WebSocket event stream
  - Prometheus metrics endpoint
  - Health check and version endpoints`,
	Example: `  reconkit serve
  reconkit serve --host 0.0.0.0 --port 9000
  RECONKIT_API_PORT=9000 reconkit serve --config /etc/reconkit/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to bind (overrides config)")

	for key, flag := range map[string]string{"api.listen_addr": "host", "api.port": "port"} {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag, err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	apihandlers.Version = version
	apihandlers.Commit = commit
	apihandlers.BuildTime = buildTime

	hub := events.NewHub(cfg.API.EventBuffer)
	defer hub.Close()

	m := metrics.NewPrometheusMetrics()
	m.WatchHub(hub)
	engines := newEngines(cfg, hub, logger, m)

	server, err := api.New(cfg, apihandlers.Engines{
		Hosts:   engines.hosts,
		Ports:   engines.ports,
		Capture: engines.capture,
	}, hub, logger, m)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	m.StartPeriodicUpdates(ctx, metricsUpdateInterval)

	fmt.Fprintf(cmd.OutOrStdout(), "API server listening on %s\n", cfg.GetAPIAddress())
	fmt.Fprintf(cmd.OutOrStdout(), "Health check: http://%s/api/v1/health\n", cfg.GetAPIAddress())

	serveErr := server.Start(ctx)

	logger.Info("Stopping engines")
	if err := engines.stopAll(cfg.API.ShutdownTimeout); err != nil {
		logger.Error("Engine shutdown error", "error", err)
		if serveErr == nil {
			serveErr = fmt.Errorf("engine shutdown failed: %w", err)
		}
	}
	return serveErr
}
