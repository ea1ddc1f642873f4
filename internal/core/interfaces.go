package core

// Recorder is the sink sessions append finalized rows to.
// Implementations must be safe for concurrent use by multiple sessions.
type Recorder interface {
	Record(Record)
}
