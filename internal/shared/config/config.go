package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// BaseConfig contains common configuration for all shipcheck commands
type BaseConfig struct {
	ServiceName string `env:"SERVICE_NAME"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
}

// VerifierConfig contains configuration for the deployment verification harness.
// Every knob the harness uses is injected here so nothing is hardcoded and
// parallel runs against different images or ports stay possible.
type VerifierConfig struct {
	BaseConfig `envPrefix:"SHIPCHECK_"`

	// Image and container identity
	ImageName     string `env:"SHIPCHECK_IMAGE_NAME" envDefault:"pdf-parser-api"`
	ImageTag      string `env:"SHIPCHECK_IMAGE_TAG" envDefault:"latest"`
	ContainerName string `env:"SHIPCHECK_CONTAINER_NAME" envDefault:"pdf-parser"`

	// Build stage
	BuildContext string        `env:"SHIPCHECK_BUILD_CONTEXT" envDefault:"."`
	BuildTimeout time.Duration `env:"SHIPCHECK_BUILD_TIMEOUT" envDefault:"15m"` // Ceiling for a single image build
	SkipBuild    bool          `env:"SHIPCHECK_SKIP_BUILD" envDefault:"false"`  // Verify an already-built image

	// Launch stage. HostPort is resolved from PORT to match how the image
	// itself resolves its listen port at run time.
	HostPort      int    `env:"PORT" envDefault:"8000"`
	ContainerPort int    `env:"SHIPCHECK_CONTAINER_PORT" envDefault:"8000"`
	APIKey        string `env:"ANTHROPIC_API_KEY"` // Forwarded into the container unvalidated

	// Readiness stage
	HealthMaxAttempts  int           `env:"SHIPCHECK_HEALTH_MAX_ATTEMPTS" envDefault:"5"`
	HealthPollInterval time.Duration `env:"SHIPCHECK_HEALTH_POLL_INTERVAL" envDefault:"3s"`

	// Size inspection (advisory)
	SizeThresholdMB float64 `env:"SHIPCHECK_SIZE_THRESHOLD_MB" envDefault:"1000"`
	SizeBaselineMB  float64 `env:"SHIPCHECK_SIZE_BASELINE_MB" envDefault:"1500"` // Reference image the savings note compares against

	// Resource sampling (advisory)
	StatsSettleDelay time.Duration `env:"SHIPCHECK_STATS_SETTLE_DELAY" envDefault:"2s"`

	// Overall deadline so a hung build or hung container cannot block forever
	RunTimeout time.Duration `env:"SHIPCHECK_RUN_TIMEOUT" envDefault:"20m"`
}

// ImageRef returns the name:tag reference the harness builds and runs.
func (c *VerifierConfig) ImageRef() string {
	return fmt.Sprintf("%s:%s", c.ImageName, c.ImageTag)
}

// HealthURL returns the root health endpoint of the launched instance.
func (c *VerifierConfig) HealthURL() string {
	return fmt.Sprintf("http://localhost:%d/", c.HostPort)
}

// LoadVerifierConfig loads configuration for the verification harness
func LoadVerifierConfig() (*VerifierConfig, error) {
	config, err := env.ParseAs[VerifierConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse Verifier config: %w", err)
	}

	// Set service name if not provided
	if config.ServiceName == "" {
		config.ServiceName = "shipcheck"
	}

	return &config, nil
}
