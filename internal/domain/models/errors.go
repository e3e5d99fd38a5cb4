package models

import "errors"

// Error taxonomy of the snapshot engine. Only ErrSnapshotNotReady reaches
// HTTP callers; the others are absorbed into degraded blocks.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInsufficientData    = errors.New("insufficient data: no closed bars")
	ErrRegimeUnavailable   = errors.New("regime unavailable")
	ErrSnapshotNotReady    = errors.New("snapshot not ready")
)
