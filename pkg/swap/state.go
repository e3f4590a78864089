package swap

// State is a node of the orchestrator state machine
type State string

const (
	StateIdle State = "idle"

	StateAwaitingAuthorizationConfirm State = "awaiting_authorization_confirm"
	StateAuthorizationGranted         State = "authorization_granted"
	StateAuthorizationCancelled       State = "authorization_cancelled"
	StateAuthorizationFailed          State = "authorization_failed"

	StateAwaitingSwapConfirm State = "awaiting_swap_confirm"
	StateSubmitted           State = "submitted"
	StateSettled             State = "settled"
	StateSwapCancelled       State = "swap_cancelled"
	StateSwapFailed          State = "swap_failed"
)

var transitions = map[State][]State{
	StateIdle: {StateAwaitingAuthorizationConfirm, StateAwaitingSwapConfirm},

	StateAwaitingAuthorizationConfirm: {StateAuthorizationGranted, StateAuthorizationCancelled, StateAuthorizationFailed},
	StateAuthorizationGranted:         {StateIdle},
	StateAuthorizationCancelled:       {StateIdle},
	StateAuthorizationFailed:          {StateIdle},

	// a rejection or a failed broadcast ends the swap before submission
	StateAwaitingSwapConfirm: {StateSubmitted, StateSwapCancelled, StateSwapFailed},
	StateSubmitted:           {StateSettled, StateSwapFailed},
	StateSettled:             {StateIdle},
	StateSwapCancelled:       {StateIdle},
	StateSwapFailed:          {StateIdle},
}

// CanTransition reports whether to is reachable from s in one step
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends an action
func (s State) Terminal() bool {
	switch s {
	case StateAuthorizationGranted, StateAuthorizationCancelled, StateAuthorizationFailed,
		StateSettled, StateSwapCancelled, StateSwapFailed:
		return true
	}
	return false
}
