package swap

import "strings"

// StatusKind tags the outcome shown to the user
type StatusKind string

const (
	StatusIdle      StatusKind = "idle"
	StatusPending   StatusKind = "pending"
	StatusSuccess   StatusKind = "success"
	StatusFailed    StatusKind = "failed"
	StatusCancelled StatusKind = "cancelled"
)

// Status is the short-lived message of the last user action. It is
// overwritten by the next action and never persisted.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
	// Cause is the collaborator error behind a failed or cancelled status
	Cause error `json:"-"`
}

// IsFailure reports whether the status carries the failure marker
func (s Status) IsFailure() bool {
	return s.Kind == StatusFailed || strings.Contains(strings.ToLower(s.Message), "failed")
}

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Kind)
	}
	return s.Message
}

// messages for one user action
type action struct {
	name string

	confirm   State
	submitted State // empty when the action has no separate submitted step
	ok        State
	cancelled State
	failed    State

	msgConfirm   string
	msgSubmitted string
	msgOK        string
	msgCancelled string
	msgFailed    string
	msgTimeout   string
}

var (
	authorizeAction = action{
		name:         "authorize",
		confirm:      StateAwaitingAuthorizationConfirm,
		ok:           StateAuthorizationGranted,
		cancelled:    StateAuthorizationCancelled,
		failed:       StateAuthorizationFailed,
		msgConfirm:   "Waiting for approval…",
		msgOK:        "Approved successfully",
		msgCancelled: "Approval cancelled",
		msgFailed:    "Approval failed",
		msgTimeout:   "Approval timed out",
	}

	swapAction = action{
		name:         "swap",
		confirm:      StateAwaitingSwapConfirm,
		submitted:    StateSubmitted,
		ok:           StateSettled,
		cancelled:    StateSwapCancelled,
		failed:       StateSwapFailed,
		msgConfirm:   "Confirm swap in wallet…",
		msgSubmitted: "Swapping…",
		msgOK:        "Swap successful",
		msgCancelled: "Swap cancelled",
		msgFailed:    "Swap failed",
		msgTimeout:   "Swap timed out",
	}
)
