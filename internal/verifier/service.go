// Package verifier orchestrates the deployment verification run: build the
// image, inspect its size, reset-and-start the container, poll its health
// endpoint, sample its resource usage, and render a summary report.
//
// The stages run strictly in order and a fatal stage error stops the run on
// the spot. Size classification and resource sampling only warn.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/drawparse/shipcheck/internal/imagesize"
	"github.com/drawparse/shipcheck/internal/readiness"
	"github.com/drawparse/shipcheck/internal/runtime/docker"
	"github.com/drawparse/shipcheck/internal/shared/config"
)

// Runtime is the container runtime surface the harness drives. It is
// satisfied by *docker.Client and faked in tests.
type Runtime interface {
	BuildImage(ctx context.Context, contextDir, ref string) (*docker.BuildResult, error)
	InspectImage(ctx context.Context, ref string) (*docker.ImageInfo, error)
	ResetAndStart(ctx context.Context, spec *docker.InstanceSpec) (*docker.Instance, error)
	Logs(ctx context.Context, name string) (string, error)
	SampleStats(ctx context.Context, name string) (*docker.ResourceSample, error)
}

// HealthPoller polls a URL until it reports ready or gives up
type HealthPoller interface {
	Poll(ctx context.Context, url string) (*readiness.Probe, error)
}

// Service runs the verification harness end to end
type Service struct {
	cfg     *config.VerifierConfig
	logger  *slog.Logger
	runtime Runtime
	poller  HealthPoller
	out     io.Writer
	runID   string

	// settle is swappable so tests skip the real delay before sampling
	settle func(ctx context.Context, d time.Duration) error
}

// NewService creates the verification service
func NewService(cfg *config.VerifierConfig, logger *slog.Logger, rt Runtime, poller HealthPoller) *Service {
	return &Service{
		cfg:     cfg,
		logger:  logger,
		runtime: rt,
		poller:  poller,
		out:     os.Stdout,
		runID:   uuid.NewString(),
		settle:  settleSleep,
	}
}

// Run executes the five verification stages. The returned error, if any,
// wraps exactly one of the fatal stage errors.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	logger := s.logger.With("run_id", s.runID, "image", s.cfg.ImageRef())
	logger.Info("starting verification run")

	// Stage 1: build
	buildResult, err := s.buildStage(ctx, logger)
	if err != nil {
		return err
	}

	// Stage 2: size inspection (advisory)
	sizeMeta := s.sizeStage(ctx, logger)

	// Stage 3: reset and launch
	instance, err := s.launchStage(ctx, logger)
	if err != nil {
		return err
	}

	// Stage 4: readiness polling
	if err := s.readinessStage(ctx, logger, instance); err != nil {
		return err
	}

	// Stage 5: resource sample and report (advisory)
	sample := s.sampleStage(ctx, logger, instance)

	report := &Report{
		ImageRef:      s.cfg.ImageRef(),
		ContainerName: s.cfg.ContainerName,
		HostPort:      s.cfg.HostPort,
		BuildSkipped:  s.cfg.SkipBuild,
		Size:          sizeMeta,
		ThresholdMB:   s.cfg.SizeThresholdMB,
		BaselineMB:    s.cfg.SizeBaselineMB,
		Sample:        sample,
	}
	if buildResult != nil {
		report.BuildDuration = buildResult.Duration
	}

	s.renderReport(report)

	logger.Info("verification run succeeded")
	return nil
}

func (s *Service) buildStage(ctx context.Context, logger *slog.Logger) (*docker.BuildResult, error) {
	if s.cfg.SkipBuild {
		logger.Info("stage build: skipped")
		return nil, nil
	}

	logger.Info("stage build: building image", "context", s.cfg.BuildContext)

	buildCtx, cancel := context.WithTimeout(ctx, s.cfg.BuildTimeout)
	defer cancel()

	result, err := s.runtime.BuildImage(buildCtx, s.cfg.BuildContext, s.cfg.ImageRef())
	if err != nil {
		logger.Error("stage build: failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	logger.Info("stage build: image built", "duration", result.Duration.Round(time.Second))
	return result, nil
}

// sizeStage classifies the built image's size. Everything here is advisory:
// an inspect or parse failure degrades to ClassUnknown and a warning.
func (s *Service) sizeStage(ctx context.Context, logger *slog.Logger) imagesize.Metadata {
	info, err := s.runtime.InspectImage(ctx, s.cfg.ImageRef())
	if err != nil {
		logger.Warn("stage size: image inspect failed, size unknown", "error", err)
		return imagesize.Metadata{Class: imagesize.ClassUnknown}
	}

	md := imagesize.ClassifyBytes(info.SizeBytes, s.cfg.SizeThresholdMB)

	switch md.Class {
	case imagesize.ClassUnderThreshold:
		logger.Info("stage size: image under threshold",
			"size", md.SizeRaw,
			"threshold_mb", s.cfg.SizeThresholdMB,
			"estimated_savings_mb", int(s.cfg.SizeBaselineMB-md.SizeMB))
	case imagesize.ClassOverThreshold:
		logger.Warn("stage size: image over threshold",
			"size", md.SizeRaw,
			"threshold_mb", s.cfg.SizeThresholdMB)
	default:
		logger.Warn("stage size: could not classify image size", "size", md.SizeRaw)
	}

	return md
}

func (s *Service) launchStage(ctx context.Context, logger *slog.Logger) (*docker.Instance, error) {
	logger.Info("stage launch: resetting and starting container", "name", s.cfg.ContainerName)

	spec := &docker.InstanceSpec{
		Name:          s.cfg.ContainerName,
		ImageRef:      s.cfg.ImageRef(),
		HostPort:      s.cfg.HostPort,
		ContainerPort: s.cfg.ContainerPort,
		Env: map[string]string{
			// Forwarded as-is; the service validates its own credential
			"ANTHROPIC_API_KEY": s.cfg.APIKey,
			"PORT":              fmt.Sprintf("%d", s.cfg.ContainerPort),
		},
	}

	instance, err := s.runtime.ResetAndStart(ctx, spec)
	if err != nil {
		logger.Error("stage launch: failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	logger.Info("stage launch: container running", "container_id", shortID(instance.ContainerID))
	return instance, nil
}

// readinessStage polls the health endpoint. On exhaustion the container's
// full log stream is fetched and printed before failing, since the logs are
// the only diagnostic an operator has at that point.
func (s *Service) readinessStage(ctx context.Context, logger *slog.Logger, instance *docker.Instance) error {
	url := s.cfg.HealthURL()
	logger.Info("stage readiness: polling health endpoint",
		"url", url,
		"max_attempts", s.cfg.HealthMaxAttempts,
		"interval", s.cfg.HealthPollInterval)

	probe, err := s.poller.Poll(ctx, url)
	if err == nil {
		logger.Info("stage readiness: service is healthy",
			"attempt", probe.Attempt,
			"status", probe.Status)
		return nil
	}

	logger.Error("stage readiness: failed", "error", err)

	// Only exhaustion gathers diagnostics; a cancelled run just stops.
	if errors.Is(err, readiness.ErrExhausted) {
		logs, logsErr := s.runtime.Logs(ctx, instance.Name)
		if logsErr != nil {
			logger.Warn("stage readiness: could not fetch container logs", "error", logsErr)
		} else {
			fmt.Fprintf(s.out, "--- container logs (%s) ---\n%s\n---\n", instance.Name, logs)
		}
	}

	return fmt.Errorf("%w: %v", ErrReadinessTimeout, err)
}

// sampleStage waits out the settle delay and takes a single resource
// reading. A failed sample is reported as unavailable, never retried, and
// never fails the run.
func (s *Service) sampleStage(ctx context.Context, logger *slog.Logger, instance *docker.Instance) *docker.ResourceSample {
	if err := s.settle(ctx, s.cfg.StatsSettleDelay); err != nil {
		logger.Warn("stage report: settle delay interrupted", "error", err)
		return nil
	}

	sample, err := s.runtime.SampleStats(ctx, instance.Name)
	if err != nil {
		logger.Warn("stage report: resource sample unavailable", "error", err)
		return nil
	}

	logger.Info("stage report: resource sample taken",
		"cpu", sample.CPUPercent,
		"memory", sample.MemoryUsage)
	return sample
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func settleSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
