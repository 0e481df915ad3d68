package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/drawparse/shipcheck/internal/runtime/docker"
	"github.com/drawparse/shipcheck/internal/shared/config"
	"github.com/drawparse/shipcheck/internal/shared/logging"
)

var flagTeardownName string

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Stop and remove the verification container",
	RunE:  runTeardown,
}

func init() {
	teardownCmd.Flags().StringVar(&flagTeardownName, "name", "", "Container name (overrides SHIPCHECK_CONTAINER_NAME)")
}

func runTeardown(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadVerifierConfig()
	if err != nil {
		return err
	}
	if flagTeardownName != "" {
		cfg.ContainerName = flagTeardownName
	}

	logger := logging.NewLogger(cfg.ServiceName, cfg.LogLevel, cfg.Environment)

	rt, err := docker.NewClient(logger.With("component", "docker"))
	if err != nil {
		logger.Error("failed to connect to docker", "error", err)
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := rt.Stop(ctx, cfg.ContainerName); err != nil {
		return err
	}
	if err := rt.Remove(ctx, cfg.ContainerName); err != nil {
		return err
	}

	logger.Info("container removed", "name", cfg.ContainerName)
	return nil
}
