// Package imagesize normalizes human-readable image size strings and
// classifies them against a megabyte threshold. Classification is advisory:
// a parse failure yields ClassUnknown, never an error the harness acts on.
package imagesize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

// Class is the size classification of a built image
type Class string

const (
	ClassUnderThreshold Class = "under_threshold"
	ClassOverThreshold  Class = "over_threshold"
	ClassUnknown        Class = "unknown"
)

// Metadata describes a built image's size as reported and as classified
type Metadata struct {
	SizeRaw string  // Human-readable size as reported, e.g. "650MB", "1.2GB"
	SizeMB  float64 // Normalized megabyte value; 0 when Class is ClassUnknown
	Class   Class
}

const bytesPerMB = 1024 * 1024

// ParseMegabytes normalizes a size string to a megabyte value. Suffixed
// strings ("650MB", "1.2GB", "512KB") go through go-units, which treats the
// suffixes as 1024-based. A bare numeric string is already a megabyte value,
// which makes normalization idempotent: parsing a rendered result yields the
// same number.
func ParseMegabytes(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	bytes, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("unparseable size %q: %w", s, err)
	}

	return float64(bytes) / bytesPerMB, nil
}

// Classify normalizes sizeRaw and compares it against thresholdMB.
func Classify(sizeRaw string, thresholdMB float64) Metadata {
	md := Metadata{SizeRaw: sizeRaw}

	mb, err := ParseMegabytes(sizeRaw)
	if err != nil {
		md.Class = ClassUnknown
		return md
	}

	md.SizeMB = mb
	if mb > thresholdMB {
		md.Class = ClassOverThreshold
	} else {
		md.Class = ClassUnderThreshold
	}
	return md
}

// ClassifyBytes classifies an exact byte count, as reported by an image
// inspect, by first rendering it the way the registry tooling would.
func ClassifyBytes(sizeBytes int64, thresholdMB float64) Metadata {
	return Classify(Humanize(sizeBytes), thresholdMB)
}

// Humanize renders a byte count as a short human-readable size string.
func Humanize(sizeBytes int64) string {
	return units.HumanSize(float64(sizeBytes))
}
