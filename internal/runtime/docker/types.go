package docker

import "time"

// BuildResult represents the result of an image build operation
type BuildResult struct {
	ImageRef string        // name:tag of the built image
	Duration time.Duration // Wall-clock time of the build
	Output   string        // Accumulated build output stream
}

// ImageInfo holds the metadata the harness reports about a built image
type ImageInfo struct {
	Ref       string
	ID        string // SHA256 hash without the "sha256:" prefix
	SizeBytes int64
	Created   string // As reported by the daemon
}

// InstanceSpec describes the single container the harness launches
type InstanceSpec struct {
	Name          string
	ImageRef      string
	HostPort      int
	ContainerPort int
	Env           map[string]string
}

// Instance is a handle to a running container
type Instance struct {
	Name        string
	ContainerID string
	HostPort    int
}

// ResourceSample is a point-in-time resource reading for a running container
type ResourceSample struct {
	CPUPercent  string // e.g. "3.25%"
	MemoryUsage string // e.g. "146.2MiB / 1.952GiB"
}
