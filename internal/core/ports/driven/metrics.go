package driven

import "time"

// Action replay outcomes reported to SyncMetrics.
const (
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeDropped  = "dropped"
)

// SyncMetrics receives sync telemetry.
type SyncMetrics interface {
	// RunFinished records the end of a sync run with its outcome.
	RunFinished(outcome string, elapsed time.Duration)

	// PageFetched records a stored page of a feed set kind.
	PageFetched(kind string, stories int)

	// ActionReplayed records the remote outcome of a reading action.
	ActionReplayed(kind, outcome string)

	// MetadataWritten records a feed/folder write.
	MetadataWritten(feeds int, elapsed time.Duration)
}
