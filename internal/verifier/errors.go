package verifier

import "errors"

// Fatal stage errors. Each one halts the harness immediately; size
// classification and resource sampling failures are advisory and never
// surface as errors from Run.
var (
	ErrBuildFailed      = errors.New("image build failed")
	ErrLaunchFailed     = errors.New("instance launch failed")
	ErrReadinessTimeout = errors.New("instance never became ready")
)
