package scitrack

import "errors"

// Error taxonomy. Config.Invalid and Dataset.NotFound/Decode are fatal at
// startup; Feature.InitFailed disables the affected feature on the owning
// track; Tracker.InitRejected silently drops a detection; Tracker.Lost is
// internal bookkeeping that feeds the timeout countdown.
var (
	ErrConfigInvalid     = errors.New("scitrack: invalid configuration")
	ErrDatasetNotFound   = errors.New("scitrack: dataset not found")
	ErrDatasetDecode     = errors.New("scitrack: dataset decode error")
	ErrFeatureInitFailed = errors.New("scitrack: feature initialisation failed")
	ErrTrackerInitRejected = errors.New("scitrack: tracker init rejected: detection outside scene ROI")
	ErrTrackerLost       = errors.New("scitrack: short-term tracker lost its target")
)
