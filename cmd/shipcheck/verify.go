package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drawparse/shipcheck/internal/readiness"
	"github.com/drawparse/shipcheck/internal/runtime/docker"
	"github.com/drawparse/shipcheck/internal/shared/config"
	"github.com/drawparse/shipcheck/internal/shared/logging"
	"github.com/drawparse/shipcheck/internal/verifier"
)

var (
	flagImage    string
	flagTag      string
	flagName     string
	flagPort     int
	flagAttempts int
	flagInterval time.Duration
	flagContext  string
	flagSkip     bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Build the image, launch it, and verify it is healthy",
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&flagImage, "image", "", "Image name (overrides SHIPCHECK_IMAGE_NAME)")
	verifyCmd.Flags().StringVar(&flagTag, "tag", "", "Image tag (overrides SHIPCHECK_IMAGE_TAG)")
	verifyCmd.Flags().StringVar(&flagName, "name", "", "Container name (overrides SHIPCHECK_CONTAINER_NAME)")
	verifyCmd.Flags().IntVar(&flagPort, "port", 0, "Host port to bind (overrides PORT)")
	verifyCmd.Flags().IntVar(&flagAttempts, "attempts", 0, "Health poll attempt bound")
	verifyCmd.Flags().DurationVar(&flagInterval, "interval", 0, "Delay between health poll attempts")
	verifyCmd.Flags().StringVar(&flagContext, "context", "", "Build context directory")
	verifyCmd.Flags().BoolVar(&flagSkip, "skip-build", false, "Verify an already-built image")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadVerifierConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg)

	logger := logging.NewLogger(cfg.ServiceName, cfg.LogLevel, cfg.Environment)

	rt, err := docker.NewClient(logger.With("component", "docker"))
	if err != nil {
		logger.Error("failed to connect to docker", "error", err)
		return err
	}
	defer rt.Close()

	poller := readiness.NewPoller(
		&http.Client{Timeout: 5 * time.Second},
		cfg.HealthMaxAttempts,
		cfg.HealthPollInterval,
		logger.With("component", "readiness"),
	)

	svc := verifier.NewService(cfg, logger, rt, poller)

	// ctrl-c cancels the run instead of leaving it hung mid-stage
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.Run(ctx)
}

func applyFlags(cfg *config.VerifierConfig) {
	if flagImage != "" {
		cfg.ImageName = flagImage
	}
	if flagTag != "" {
		cfg.ImageTag = flagTag
	}
	if flagName != "" {
		cfg.ContainerName = flagName
	}
	if flagPort > 0 {
		cfg.HostPort = flagPort
	}
	if flagAttempts > 0 {
		cfg.HealthMaxAttempts = flagAttempts
	}
	if flagInterval > 0 {
		cfg.HealthPollInterval = flagInterval
	}
	if flagContext != "" {
		cfg.BuildContext = flagContext
	}
	if flagSkip {
		cfg.SkipBuild = true
	}
}
