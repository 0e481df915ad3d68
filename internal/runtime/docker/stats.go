package docker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-units"
)

// SampleStats takes a single-shot resource reading of the named container.
// There is no retry here: the caller treats an unavailable sample as
// informational, never as a run failure.
func (c *Client) SampleStats(ctx context.Context, name string) (*ResourceSample, error) {
	stats, err := c.cli.ContainerStats(ctx, name, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get container stats: %w", err)
	}
	defer stats.Body.Close()

	var resp container.StatsResponse
	if err := json.NewDecoder(stats.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}

	sample := &ResourceSample{
		CPUPercent:  fmt.Sprintf("%.2f%%", cpuPercent(&resp)),
		MemoryUsage: memoryUsage(&resp),
	}

	c.logger.Debug("sampled container stats",
		"name", name,
		"cpu", sample.CPUPercent,
		"memory", sample.MemoryUsage)

	return sample, nil
}

// cpuPercent computes instantaneous CPU usage from the delta between the
// current and previous readings, the same way the docker CLI does.
func cpuPercent(s *container.StatsResponse) float64 {
	cpuDelta := float64(s.CPUStats.CPUUsage.TotalUsage) - float64(s.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(s.CPUStats.SystemUsage) - float64(s.PreCPUStats.SystemUsage)

	onlineCPUs := float64(s.CPUStats.OnlineCPUs)
	if onlineCPUs == 0 {
		onlineCPUs = float64(len(s.CPUStats.CPUUsage.PercpuUsage))
	}

	if systemDelta <= 0 || cpuDelta <= 0 {
		return 0
	}
	return cpuDelta / systemDelta * onlineCPUs * 100
}

func memoryUsage(s *container.StatsResponse) string {
	used := s.MemoryStats.Usage
	// Exclude page cache where the kernel reports it, matching docker stats
	if cache, ok := s.MemoryStats.Stats["cache"]; ok && cache < used {
		used -= cache
	}

	return fmt.Sprintf("%s / %s",
		units.BytesSize(float64(used)),
		units.BytesSize(float64(s.MemoryStats.Limit)))
}
