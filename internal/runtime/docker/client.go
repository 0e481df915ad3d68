// Package docker wraps the Docker SDK behind the small set of operations the
// verification harness needs: build an image, inspect it, reset-and-start a
// named container, and read its logs and stats.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docker/docker/client"
)

// Client wraps a Docker SDK client
type Client struct {
	cli    *client.Client
	logger *slog.Logger
}

// NewClient creates a Docker client from the environment and verifies the
// daemon is reachable before returning.
func NewClient(logger *slog.Logger) (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docker daemon is not available: %w", err)
	}

	return &Client{cli: cli, logger: logger}, nil
}

// Close releases the underlying SDK client
func (c *Client) Close() error {
	if c.cli != nil {
		return c.cli.Close()
	}
	return nil
}
