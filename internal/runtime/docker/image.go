package docker

import (
	"context"
	"fmt"
	"strings"
)

// InspectImage retrieves the metadata the harness reports about an image:
// its ID, exact byte size, and creation time.
func (c *Client) InspectImage(ctx context.Context, ref string) (*ImageInfo, error) {
	imageInspect, err := c.cli.ImageInspect(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect image: %w", err)
	}

	info := &ImageInfo{
		Ref:       ref,
		ID:        strings.TrimPrefix(imageInspect.ID, "sha256:"),
		SizeBytes: imageInspect.Size,
		Created:   imageInspect.Created,
	}

	c.logger.Debug("retrieved image info",
		"ref", ref,
		"id", info.ID[:12],
		"size_bytes", info.SizeBytes)

	return info, nil
}
