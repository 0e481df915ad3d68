package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/samber/lo"
)

// ResetAndStart replaces any container with the spec's name with a fresh one.
// The cleanup half is idempotent: a missing container is the desired end
// state, so not-found is swallowed. Any other cleanup error (permissions,
// daemon trouble) propagates instead of masquerading as benign absence.
func (c *Client) ResetAndStart(ctx context.Context, spec *InstanceSpec) (*Instance, error) {
	if err := c.Stop(ctx, spec.Name); err != nil {
		return nil, fmt.Errorf("failed to stop existing container: %w", err)
	}
	if err := c.Remove(ctx, spec.Name); err != nil {
		return nil, fmt.Errorf("failed to remove existing container: %w", err)
	}

	containerConfig, hostConfig := c.buildContainerConfig(spec)

	resp, err := c.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	c.logger.Info("container started",
		"name", spec.Name,
		"container_id", resp.ID[:12],
		"host_port", spec.HostPort)

	return &Instance{
		Name:        spec.Name,
		ContainerID: resp.ID,
		HostPort:    spec.HostPort,
	}, nil
}

// Stop stops the named container. Not-found is not an error.
func (c *Client) Stop(ctx context.Context, name string) error {
	err := c.cli.ContainerStop(ctx, name, container.StopOptions{})
	if err != nil && !client.IsErrNotFound(err) {
		return err
	}
	return nil
}

// Remove force-removes the named container. Not-found is not an error.
func (c *Client) Remove(ctx context.Context, name string) error {
	err := c.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return err
	}
	return nil
}

// Logs retrieves the full log stream of the named container with docker's
// stream multiplex headers stripped.
func (c *Client) Logs(ctx context.Context, name string) (string, error) {
	logsReader, err := c.cli.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get container logs: %w", err)
	}
	defer logsReader.Close()

	logsData, err := io.ReadAll(logsReader)
	if err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}

	return stripLogHeaders(string(logsData)), nil
}

// stripLogHeaders removes the 8-byte multiplex header docker prefixes to each
// log frame when a container runs without a TTY.
func stripLogHeaders(logs string) string {
	lines := strings.Split(logs, "\n")

	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) > 8 && line[0] <= 2 {
			line = line[8:]
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}

// buildContainerConfig prepares the container and host configuration for the
// instance: env passthrough, the single port binding, and identifying labels.
func (c *Client) buildContainerConfig(spec *InstanceSpec) (*container.Config, *container.HostConfig) {
	env := lo.MapToSlice(spec.Env, func(key, value string) string {
		return fmt.Sprintf("%s=%s", key, value)
	})

	containerPort := nat.Port(fmt.Sprintf("%d/tcp", spec.ContainerPort))

	config := &container.Config{
		Image:        spec.ImageRef,
		Env:          env,
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
		Labels: map[string]string{
			"shipcheck.instance.name": spec.Name,
			"shipcheck.managed":       "true",
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{
				{
					HostIP:   "0.0.0.0",
					HostPort: strconv.Itoa(spec.HostPort),
				},
			},
		},
	}

	return config, hostConfig
}
