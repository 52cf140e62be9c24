package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oarkflow/smsc-simulator/internal/config"
	"github.com/oarkflow/smsc-simulator/internal/flags"
	"github.com/oarkflow/smsc-simulator/internal/logger"
	"github.com/oarkflow/smsc-simulator/internal/metrics"
	"github.com/oarkflow/smsc-simulator/internal/ratelimit"
	"github.com/oarkflow/smsc-simulator/internal/storage"
	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

// Idle throttle buckets are dropped after this long.
const limiterIdleAge = 10 * time.Minute

var (
	portFlag      int
	adminPortFlag int
	logLevelFlag  string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the SMSC simulator",
	Long: `Start the SMSC simulator in the foreground.

The simulator listens for SMPP connections on server.port and, unless
server.admin_port is negative, accepts and discards connections on the
admin port. Stop it with SIGINT or SIGTERM.

Examples:
  # Start with defaults (SMPP on 2775, admin on 8728)
  smscsim start

  # Start on a different port with debug logging
  smscsim start --port 2776 --log-level debug

  # Start with environment variable overrides
  SMSCSIM_THROTTLE_SUBMITS_PER_SECOND=10 smscsim start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "SMPP listen port (overrides server.port)")
	startCmd.Flags().IntVar(&adminPortFlag, "admin-port", 0, "admin listen port, -1 disables (overrides server.admin_port)")
	startCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error (overrides logging.level)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid command line overrides: %w", err)
	}

	log, closer, err := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info("Starting SMSC simulator", "version", Version, "commit", Commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := smpp.ServerDependencies{
		Store:  storage.NewInMemoryMessageStore(log),
		Flags:  flags.NewStore(cfg.Features, log),
		Logger: log,
	}

	if cfg.Metrics.Enabled {
		collector := metrics.NewPrometheusMetricsCollector(cfg.Metrics.Namespace, log)
		if err := collector.Start(cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := collector.Stop(shutdownCtx); err != nil {
				log.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
		deps.Metrics = collector
	}

	if cfg.Throttle.SubmitsPerSecond > 0 {
		limiter := ratelimit.NewRateLimiter(cfg.Throttle.SubmitsPerSecond, cfg.Throttle.Burst)
		go pruneLimiter(ctx, limiter, log)
		deps.Limiter = limiter
		log.Info("Submit throttling enabled",
			"submits_per_second", cfg.Throttle.SubmitsPerSecond,
			"burst", cfg.Throttle.Burst)
	}

	server, err := smpp.NewServer(cfg.SMPPServerConfig(), deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("SMSC simulator stopped")
	return nil
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = portFlag
	}
	if cmd.Flags().Changed("admin-port") {
		cfg.Server.AdminPort = adminPortFlag
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(logLevelFlag)
	}
}

func pruneLimiter(ctx context.Context, limiter *ratelimit.RateLimiter, log smpp.Logger) {
	ticker := time.NewTicker(limiterIdleAge)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := limiter.Cleanup(limiterIdleAge, now); n > 0 {
				log.Debug("Pruned idle throttle buckets", "count", n)
			}
		}
	}
}
