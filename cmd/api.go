package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	cmdHelper "solarnode/cmd/helper"
	"solarnode/internal/api"
	secretsHelper "solarnode/secrets/helper"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunAPI is the function that runs the api command. It serves the
// credential API against the local node, normally as a child process of
// the run command
func RunAPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed(WorkersFlag) {
		cfg.API.Workers, _ = cmd.Flags().GetInt(WorkersFlag)
	}

	if cmd.Flags().Changed(PortFlag) {
		cfg.API.Port, _ = cmd.Flags().GetInt(PortFlag)
	}

	logger := SetupLogger(cfg.LogLevel)
	defer func() {
		_ = logger.Sync()
	}()

	secretsManager, err := secretsHelper.SetupLocalSecretsManager(cfg.Node.DataDir)
	if err != nil {
		return fmt.Errorf("failed to set up secrets manager: %w", err)
	}

	token, err := secretsHelper.LoadAPIToken(secretsManager)
	if err != nil {
		return fmt.Errorf("failed to load node API token: %w", err)
	}

	metrics := api.NilMetrics()

	var prometheusServer *http.Server

	if cfg.Telemetry.PrometheusAddr != "" {
		metricsAddr, err := cmdHelper.ResolveAddr(cfg.Telemetry.PrometheusAddr, cmdHelper.AllInterfacesBinding)
		if err != nil {
			return err
		}

		metrics = api.GetPrometheusMetrics("solarnode", "network", cfg.Node.GossipAddr)
		prometheusServer = startPrometheusServer(logger, metricsAddr)
	}

	server, err := api.NewServer(logger, cfg, token, metrics)
	if err != nil {
		return err
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatalw("Credential API server failed", "err", err)
		}
	}()

	return cmdHelper.HandleSignals(func() {
		server.Stop()

		if prometheusServer != nil {
			if err := prometheusServer.Shutdown(context.Background()); err != nil {
				logger.Errorw("Prometheus server shutdown error", "err", err)
			}
		}
	})
}

// SetupAPIFlags sets up the flags for the api command
func SetupAPIFlags(cmd *cobra.Command) {
	cmd.Flags().Int(WorkersFlag, 0, "Number of concurrent request workers")
	cmd.Flags().Int(PortFlag, 0, "Port the credential API listens on")
	cmd.Flags().String(ConfigFlag, "", "Path to a config file (hcl, json or yaml)")
}

func startPrometheusServer(logger *zap.SugaredLogger, listenAddr *net.TCPAddr) *http.Server {
	srv := &http.Server{
		Addr: listenAddr.String(),
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{},
			),
		),
		ReadHeaderTimeout: 60 * time.Second,
	}

	go func() {
		logger.Infow("Prometheus server started", "addr=", listenAddr.String())

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("Prometheus HTTP server ListenAndServe", "err", err)
		}
	}()

	return srv
}
