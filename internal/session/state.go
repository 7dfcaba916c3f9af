package session

import (
	"fmt"
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
)

// Status is the lifecycle phase of the current analysis request.
type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
)

var statusNames = map[Status]string{
	Idle:      "idle",
	Pending:   "pending",
	Succeeded: "succeeded",
	Failed:    "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Terminal reports whether the status ends a submission.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed
}

// FailureKind tells a failure reported by the engine apart from one where
// the engine could not be reached at all.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureServerReported FailureKind = "server_reported"
	FailureUnreachable    FailureKind = "service_unreachable"
)

// UnreachableMessage is shown for every transport-level failure. The
// underlying cause is logged only.
const UnreachableMessage = "Analysis engine offline. Ensure the analysis service is running and reachable."

// State is an immutable snapshot of the request lifecycle. Each transition
// replaces it wholesale; Result is set only when Status is Succeeded and
// Message only when Status is Failed.
type State struct {
	Status       Status                 `json:"status"`
	Seq          uint64                 `json:"seq"`
	SubmissionID string                 `json:"submission_id,omitempty"`
	Ticker       string                 `json:"ticker,omitempty"`
	Result       *models.AnalysisResult `json:"result,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Failure      FailureKind            `json:"failure,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// EventKind identifies what a subscriber is being told.
type EventKind string

const (
	// EventStateChanged carries the new state after every transition.
	EventStateChanged EventKind = "state_changed"
	// EventScrollToResults asks views to bring the results region into
	// view. It follows a success after the configured settle delay.
	EventScrollToResults EventKind = "scroll_to_results"
)

// Event is delivered to subscribers.
type Event struct {
	Kind  EventKind `json:"type"`
	State State     `json:"state"`
}

// Submission identifies one accepted submit.
type Submission struct {
	ID     string `json:"id"`
	Seq    uint64 `json:"seq"`
	Ticker string `json:"ticker"`
}
