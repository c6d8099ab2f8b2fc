package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mir-ashiq/Travelers-sub001/internal/paymentgateway"
	"github.com/mir-ashiq/Travelers-sub001/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for background services",
	Long:  `Start and manage worker pools, currently the payment gateway simulator.`,
}

// Gateway simulator command: resolves payment intents with realistic delays
// and posts signed webhook callbacks to the API server.
var gatewayWorkerCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the payment gateway simulator worker pool",
	Long:  `Start the simulator that resolves payment intents and delivers signed webhooks`,
	Run: func(cmd *cobra.Command, args []string) {
		startGatewayWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	webhookURL   string
)

func startGatewayWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	gatewayConfig := paymentgateway.Config{
		BaseURL:        config.Gateway.BaseURL,
		APIKey:         config.Gateway.APIKey,
		WebhookSecret:  config.Gateway.WebhookSecret,
		WebhookURL:     getStringFlag(webhookURL, config.Gateway.WebhookURL),
		RequestTimeout: config.Gateway.RequestTimeout,
		MaxWorkers:     getIntFlag(maxWorkers, config.Gateway.MaxWorkers),
		JobQueueSize:   getIntFlag(jobQueueSize, config.Gateway.JobQueueSize),
	}

	lg.Info("starting gateway simulator worker",
		"max_workers", gatewayConfig.MaxWorkers,
		"job_queue_size", gatewayConfig.JobQueueSize,
		"webhook_url", gatewayConfig.WebhookURL)

	simulator := paymentgateway.NewSimulator(gatewayConfig, lg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("gateway simulator is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down gateway simulator", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		simulator.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("gateway simulator shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	gatewayWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	gatewayWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	gatewayWorkerCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook callback URL (overrides config)")

	workerCmd.AddCommand(gatewayWorkerCmd)
}
