package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/go-archive"
)

// BuildImage builds the image at contextDir and tags it as ref, measuring
// wall-clock duration around the whole operation. The daemon reports build
// failures inside the response stream rather than as an API error, so the
// stream is decoded message by message and an in-stream error fails the build.
func (c *Client) BuildImage(ctx context.Context, contextDir, ref string) (*BuildResult, error) {
	startTime := time.Now()

	c.logger.Info("building image", "ref", ref, "context", contextDir)

	dockerfilePath := filepath.Join(contextDir, "Dockerfile")
	if _, err := os.Stat(dockerfilePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("dockerfile not found in %s", contextDir)
	}

	buildContext, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create build context: %w", err)
	}
	defer buildContext.Close()

	buildOptions := build.ImageBuildOptions{
		Tags:        []string{ref},
		Dockerfile:  "Dockerfile",
		Remove:      true,
		ForceRemove: true,
	}

	buildResponse, err := c.cli.ImageBuild(ctx, buildContext, buildOptions)
	if err != nil {
		return nil, fmt.Errorf("docker build failed: %w", err)
	}
	defer buildResponse.Body.Close()

	output, err := drainBuildStream(buildResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("docker build failed: %w", err)
	}

	result := &BuildResult{
		ImageRef: ref,
		Duration: time.Since(startTime),
		Output:   output,
	}

	c.logger.Info("image built",
		"ref", ref,
		"duration", result.Duration.Round(time.Second))

	return result, nil
}

// drainBuildStream consumes the daemon's JSON message stream, accumulating
// the human-readable output and surfacing any in-stream error.
func drainBuildStream(r io.Reader) (string, error) {
	var output strings.Builder

	dec := json.NewDecoder(r)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return output.String(), fmt.Errorf("failed to read build output: %w", err)
		}

		if msg.Error != nil {
			return output.String(), msg.Error
		}
		if msg.Stream != "" {
			output.WriteString(msg.Stream)
		}
	}

	return output.String(), nil
}
