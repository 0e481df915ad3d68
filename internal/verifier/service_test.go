package verifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawparse/shipcheck/internal/readiness"
	"github.com/drawparse/shipcheck/internal/runtime/docker"
	"github.com/drawparse/shipcheck/internal/shared/config"
)

// fakeRuntime simulates the container runtime with an in-memory instance
// registry so reset idempotence is observable.
type fakeRuntime struct {
	buildErr  error
	launchErr error
	statsErr  error
	logs      string

	buildCalls   int
	inspectCalls int
	resetCalls   int
	logsCalls    int
	statsCalls   int

	instances map[string]bool
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{instances: map[string]bool{}, logs: "boot log"}
}

func (f *fakeRuntime) BuildImage(ctx context.Context, contextDir, ref string) (*docker.BuildResult, error) {
	f.buildCalls++
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &docker.BuildResult{ImageRef: ref, Duration: 42 * time.Second}, nil
}

func (f *fakeRuntime) InspectImage(ctx context.Context, ref string) (*docker.ImageInfo, error) {
	f.inspectCalls++
	return &docker.ImageInfo{Ref: ref, SizeBytes: 650 << 20}, nil
}

func (f *fakeRuntime) ResetAndStart(ctx context.Context, spec *docker.InstanceSpec) (*docker.Instance, error) {
	f.resetCalls++
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	// Unconditional replace: the previous instance with this name, if any,
	// is gone after this call.
	f.instances[spec.Name] = true
	return &docker.Instance{Name: spec.Name, ContainerID: "abcdef0123456789", HostPort: spec.HostPort}, nil
}

func (f *fakeRuntime) Logs(ctx context.Context, name string) (string, error) {
	f.logsCalls++
	return f.logs, nil
}

func (f *fakeRuntime) SampleStats(ctx context.Context, name string) (*docker.ResourceSample, error) {
	f.statsCalls++
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &docker.ResourceSample{CPUPercent: "1.25%", MemoryUsage: "146MiB / 1GiB"}, nil
}

type fakePoller struct {
	calls int
	probe *readiness.Probe
	err   error
}

func (f *fakePoller) Poll(ctx context.Context, url string) (*readiness.Probe, error) {
	f.calls++
	return f.probe, f.err
}

func testConfig() *config.VerifierConfig {
	cfg := &config.VerifierConfig{
		ImageName:          "pdf-parser-api",
		ImageTag:           "latest",
		ContainerName:      "pdf-parser",
		BuildContext:       ".",
		BuildTimeout:       time.Minute,
		HostPort:           8000,
		ContainerPort:      8000,
		HealthMaxAttempts:  5,
		HealthPollInterval: time.Second,
		SizeThresholdMB:    1000,
		SizeBaselineMB:     1500,
		StatsSettleDelay:   time.Second,
		RunTimeout:         time.Minute,
	}
	cfg.LogLevel = "info"
	return cfg
}

func newTestService(rt Runtime, poller HealthPoller) (*Service, *bytes.Buffer) {
	s := NewService(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), rt, poller)
	var out bytes.Buffer
	s.out = &out
	s.settle = func(ctx context.Context, d time.Duration) error { return nil }
	return s, &out
}

func TestRun_FullSuccess(t *testing.T) {
	rt := newFakeRuntime()
	poller := &fakePoller{probe: &readiness.Probe{Attempt: 1, Matched: true, Status: "ok"}}
	s, out := newTestService(rt, poller)

	err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rt.buildCalls)
	assert.Equal(t, 1, rt.inspectCalls)
	assert.Equal(t, 1, rt.resetCalls)
	assert.Equal(t, 1, poller.calls)
	assert.Equal(t, 1, rt.statsCalls)
	assert.Zero(t, rt.logsCalls, "logs are only fetched on readiness failure")

	report := out.String()
	assert.Contains(t, report, "deployment verified")
	assert.Contains(t, report, "pdf-parser-api:latest")
	assert.Contains(t, report, "http://localhost:8000/docs")
	assert.Contains(t, report, "docker logs -f pdf-parser")
}

func TestRun_BuildFailureShortCircuits(t *testing.T) {
	rt := newFakeRuntime()
	rt.buildErr = errors.New("step 4/7 failed")
	poller := &fakePoller{}
	s, _ := newTestService(rt, poller)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrBuildFailed)

	assert.Zero(t, rt.inspectCalls, "no stage runs after a failed build")
	assert.Zero(t, rt.resetCalls)
	assert.Zero(t, poller.calls)
	assert.Zero(t, rt.statsCalls)
}

func TestRun_LaunchFailureShortCircuits(t *testing.T) {
	rt := newFakeRuntime()
	rt.launchErr = errors.New("port already allocated")
	poller := &fakePoller{}
	s, _ := newTestService(rt, poller)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrLaunchFailed)

	assert.Zero(t, poller.calls)
	assert.Zero(t, rt.statsCalls)
}

func TestRun_ReadinessTimeoutFetchesLogs(t *testing.T) {
	rt := newFakeRuntime()
	rt.logs = "Traceback (most recent call last): boom"
	poller := &fakePoller{err: readiness.ErrExhausted}
	s, out := newTestService(rt, poller)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrReadinessTimeout)

	assert.Equal(t, 1, rt.logsCalls)
	assert.Contains(t, out.String(), "Traceback (most recent call last): boom")
	assert.Zero(t, rt.statsCalls, "no resource sample after a failed run")
}

func TestRun_SampleFailureIsAdvisory(t *testing.T) {
	rt := newFakeRuntime()
	rt.statsErr = errors.New("stats stream closed")
	poller := &fakePoller{probe: &readiness.Probe{Attempt: 1, Matched: true, Status: "ok"}}
	s, out := newTestService(rt, poller)

	err := s.Run(context.Background())
	require.NoError(t, err, "an unavailable sample never fails the run")
	assert.Contains(t, out.String(), "resources: unavailable")
}

func TestRun_SkipBuildOmitsBuildStage(t *testing.T) {
	rt := newFakeRuntime()
	poller := &fakePoller{probe: &readiness.Probe{Attempt: 1, Matched: true, Status: "ok"}}
	s, out := newTestService(rt, poller)
	s.cfg.SkipBuild = true

	err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, rt.buildCalls)
	assert.Contains(t, out.String(), "build:     skipped")
}

func TestRun_TwiceLeavesSingleInstance(t *testing.T) {
	rt := newFakeRuntime()
	poller := &fakePoller{probe: &readiness.Probe{Attempt: 1, Matched: true, Status: "ok"}}
	s, _ := newTestService(rt, poller)

	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, rt.resetCalls)
	assert.Len(t, rt.instances, 1, "reset is idempotent per container name")
}
