// Package tts orchestrates speech playback for listening-practice passages.
//
// The package selects between a remote neural-voice synthesis service and an
// on-device synthesis fallback, owns the lifecycle of the single active audio
// resource, and reports start/end events to its caller. Remote failures are
// never fatal: they degrade to the local path with a log entry only.
package tts

import "strings"

// SpeakerRole biases voice selection for a passage. It is a coarse category,
// not a guarantee of a specific voice.
type SpeakerRole string

// Speaker roles understood by both synthesis paths.
const (
	RoleFemale   SpeakerRole = "female"
	RoleMale     SpeakerRole = "male"
	RoleLecturer SpeakerRole = "lecturer"
	RoleDuo      SpeakerRole = "duo"
)

// Valid reports whether the role is one of the known speaker roles.
func (r SpeakerRole) Valid() bool {
	switch r {
	case RoleFemale, RoleMale, RoleLecturer, RoleDuo:
		return true
	}
	return false
}

// Request describes a single playback invocation. It is created per play
// action and never mutated afterwards.
type Request struct {
	Text string
	Role SpeakerRole
}

// Validate checks the request before it is handed to a synthesis path.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	if !r.Role.Valid() {
		return ErrUnknownRole
	}
	return nil
}

// Availability is the memoized reachability of the remote synthesis service.
// It is resolved at most once per process run.
type Availability int

const (
	// AvailabilityUnknown means the backend has not been probed yet.
	AvailabilityUnknown Availability = iota
	// BackendAvailable means the health probe succeeded.
	BackendAvailable
	// BackendUnavailable means the probe timed out or failed.
	BackendUnavailable
)

// String returns the string representation of the availability state.
func (a Availability) String() string {
	switch a {
	case BackendAvailable:
		return "available"
	case BackendUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Voice is a named on-device synthesis voice profile.
type Voice struct {
	Name    string // display name, e.g. "Microsoft Zira - English (United States)"
	Lang    string // BCP 47 language tag, e.g. "en-US"
	Default bool   // platform default voice
}
