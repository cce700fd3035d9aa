// Package transcript defines the contract for recording stream traffic.
// Implementations live in module packages (e.g. modules/memory/sqlite).
//
// Transcripts are request observability, not session state: the session
// map stays in-memory regardless of which recorder is configured.
package transcript

import (
	"context"
	"time"
)

// Entry is one recorded stream event.
type Entry struct {
	RequestID string
	Provider  string
	SessionID string
	Kind      string
	Content   string
	CreatedAt time.Time
}

// Recorder persists stream entries. Implementations must be safe for
// concurrent use. Record failures are logged and never interrupt the
// stream being recorded.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// ServiceName is the app-context service key recorders register under.
const ServiceName = "transcript.recorder"
