package fetch

import (
	"time"

	"github.com/m3rciful/mediabot/internal/media"
)

// Status tags the variant of an Outcome.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusNotFound  Status = "not_found"
	StatusFailed    Status = "failed"
)

// Cause explains a StatusFailed outcome.
type Cause string

const (
	// CauseRetrieval means both strategies hit a classified retrieval error.
	CauseRetrieval Cause = "retrieval"
	// CauseUnexpected covers I/O failures, engine crashes and panics.
	CauseUnexpected Cause = "unexpected"
	CauseTimeout    Cause = "timeout"
	// CauseDelivery means the file was produced but handing it over failed.
	CauseDelivery Cause = "delivery"
)

// Outcome is the single result of one Fetch call.
type Outcome struct {
	Status Status
	// Delivered only.
	File     File
	Strategy string
	// Failed only.
	Cause  Cause
	Reason string
}

// File is a produced media file. Path is valid only during Deliver.
type File struct {
	Path string
	Kind media.Mode
	Size int64
}

func delivered(f File, strategy string) Outcome {
	return Outcome{Status: StatusDelivered, File: f, Strategy: strategy}
}

func notFound(strategy string) Outcome {
	return Outcome{Status: StatusNotFound, Strategy: strategy}
}

func failed(cause Cause, reason string) Outcome {
	return Outcome{Status: StatusFailed, Cause: cause, Reason: reason}
}

// Request describes what to fetch. The orchestrator never sees the session itself.
type Request struct {
	Locator   string
	Mode      media.Mode
	SessionID int64
}

// Report summarises a finished Fetch for observers.
type Report struct {
	CorrelationID string
	Request       Request
	Outcome       Outcome
	StartedAt     time.Time
	Duration      time.Duration
	// CleanupErr is non-nil when some workspace entry could not be removed.
	CleanupErr error
}
