package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
)

// Rejection is a caller error whose message is safe to return verbatim.
// It unwraps to one of the sentinels above.
type Rejection struct {
	Msg  string
	Kind error
}

func (e *Rejection) Error() string { return e.Msg }

func (e *Rejection) Unwrap() error { return e.Kind }

// Reject builds a Rejection of the given kind.
func Reject(kind error, msg string) error {
	return &Rejection{Msg: msg, Kind: kind}
}
