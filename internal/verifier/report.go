package verifier

import (
	"fmt"
	"io"
	"time"

	"github.com/drawparse/shipcheck/internal/imagesize"
	"github.com/drawparse/shipcheck/internal/runtime/docker"
)

// Report is the final summary of a successful verification run. It is the
// harness's sole externally visible product beyond the exit code.
type Report struct {
	ImageRef      string
	ContainerName string
	HostPort      int

	BuildDuration time.Duration
	BuildSkipped  bool

	Size        imagesize.Metadata
	ThresholdMB float64
	BaselineMB  float64

	Sample *docker.ResourceSample
}

func (s *Service) renderReport(r *Report) {
	renderReport(s.out, r)
}

func renderReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n=== deployment verified ===\n\n")
	fmt.Fprintf(w, "image:     %s\n", r.ImageRef)

	if r.BuildSkipped {
		fmt.Fprintf(w, "build:     skipped (existing image)\n")
	} else {
		fmt.Fprintf(w, "build:     %s\n", r.BuildDuration.Round(time.Second))
	}

	switch r.Size.Class {
	case imagesize.ClassUnderThreshold:
		fmt.Fprintf(w, "size:      %s (under %.0fMB threshold, ~%.0fMB saved vs %.0fMB baseline)\n",
			r.Size.SizeRaw, r.ThresholdMB, r.BaselineMB-r.Size.SizeMB, r.BaselineMB)
	case imagesize.ClassOverThreshold:
		fmt.Fprintf(w, "size:      %s (warning: over %.0fMB threshold)\n",
			r.Size.SizeRaw, r.ThresholdMB)
	default:
		fmt.Fprintf(w, "size:      unknown\n")
	}

	if r.Sample != nil {
		fmt.Fprintf(w, "cpu:       %s\n", r.Sample.CPUPercent)
		fmt.Fprintf(w, "memory:    %s\n", r.Sample.MemoryUsage)
	} else {
		fmt.Fprintf(w, "resources: unavailable\n")
	}

	fmt.Fprintf(w, "\nendpoints:\n")
	fmt.Fprintf(w, "  health:  http://localhost:%d/\n", r.HostPort)
	fmt.Fprintf(w, "  docs:    http://localhost:%d/docs\n", r.HostPort)
	fmt.Fprintf(w, "  parse:   http://localhost:%d/api/parse-pdf\n", r.HostPort)

	fmt.Fprintf(w, "\nmanagement:\n")
	fmt.Fprintf(w, "  logs:     docker logs -f %s\n", r.ContainerName)
	fmt.Fprintf(w, "  stop:     docker stop %s\n", r.ContainerName)
	fmt.Fprintf(w, "  teardown: shipcheck teardown --name %s\n", r.ContainerName)
}
