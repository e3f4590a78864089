package types

import "errors"

// ErrUserRejected marks an action the user declined to confirm. Every
// collaborator wraps its rejection signal with it; anything else is a
// plain operational failure.
var ErrUserRejected = errors.New("user rejected the request")

// ErrorKind is the only distinction surfaced to the UI
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindRejected
	KindOther
)

// KindOf classifies an error returned from a collaborator
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUserRejected):
		return KindRejected
	default:
		return KindOther
	}
}
