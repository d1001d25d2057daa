package prediction

import "errors"

// Error taxonomy of the prediction pipeline. The facade is the boundary:
// none of these escape to HTTP callers. Predict maps every failure to a
// fallback record; Train maps them to (false, reason).
var (
	// ErrInsufficientData - fewer usable rows than the configured minimum
	ErrInsufficientData = errors.New("insufficient data")

	// ErrArtifactIncompatible - stored artifact does not match the current
	// feature pipeline (version bump, column mismatch, or corrupt record).
	// Treated as absent; triggers retrain on next use.
	ErrArtifactIncompatible = errors.New("artifact incompatible")

	// ErrArtifactWrite - the artifact could not be persisted. The in-memory
	// artifact remains usable for the current session.
	ErrArtifactWrite = errors.New("artifact write failed")

	// ErrNumericalInstability - indicator output contains non-finite values
	// after cleanup
	ErrNumericalInstability = errors.New("numerical instability")
)
