package model

// RequestState represents the lifecycle state of a single download request
type RequestState string

const (
	// StateIdle means no URL is pending for the conversation
	StateIdle RequestState = "Idle"

	// StateAwaitingQuality means a URL was probed and the user must pick a tier
	StateAwaitingQuality RequestState = "AwaitingQuality"

	// StateDownloading means the extraction backend is transferring media
	StateDownloading RequestState = "Downloading"

	// StateUploading means the local file is being sent to the chat
	StateUploading RequestState = "Uploading"

	// StateDone means the upload finished successfully
	StateDone RequestState = "Done"

	// StateFailed means a step failed and the user was notified
	StateFailed RequestState = "Failed"
)

// String returns the string representation of RequestState
func (rs RequestState) String() string {
	return string(rs)
}

// IsFinished returns true if the request is in a terminal state (done or failed)
func (rs RequestState) IsFinished() bool {
	return rs == StateDone || rs == StateFailed
}

// CanTransition reports whether the state machine allows moving from rs to next.
// Every non-terminal state may exit to StateFailed.
func (rs RequestState) CanTransition(next RequestState) bool {
	if next == StateFailed {
		return !rs.IsFinished()
	}
	switch rs {
	case StateIdle:
		return next == StateAwaitingQuality
	case StateAwaitingQuality:
		return next == StateDownloading
	case StateDownloading:
		return next == StateUploading
	case StateUploading:
		return next == StateDone
	}
	return false
}
