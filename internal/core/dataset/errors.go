package dataset

import (
	"errors"
	"fmt"
)

// Error taxonomy. Validation and stale-result errors are absorbed where they are
// detected; network, server and auth errors surface as notifications.
var (
	ErrValidation  = errors.New("invalid input")
	ErrNetwork     = errors.New("network error")
	ErrServer      = errors.New("server error")
	ErrAuth        = errors.New("authentication rejected")
	ErrStaleResult = errors.New("stale result")
)

// ServerError reports a collaborator that answered with a failure status.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error: status %d", e.Status)
	}
	return fmt.Sprintf("server error: status %d: %s", e.Status, e.Body)
}

// Is lets errors.Is(err, ErrServer) match.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// Validationf builds a validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NetworkError wraps a transport failure.
func NetworkError(err error) error {
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// AuthError wraps a rejected credential.
func AuthError(status int) error {
	return fmt.Errorf("%w: status %d", ErrAuth, status)
}

// Stale marks a result superseded by a newer request.
func Stale(gen uint64) error {
	return fmt.Errorf("%w: generation %d", ErrStaleResult, gen)
}

// Kind classifies err into one of the taxonomy sentinels. Unknown errors are
// reported as network errors since they never carry a server status.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrStaleResult):
		return ErrStaleResult
	case errors.Is(err, ErrAuth):
		return ErrAuth
	case errors.Is(err, ErrServer):
		return ErrServer
	default:
		return ErrNetwork
	}
}

// Absorbed reports whether err is handled where it is detected and never shown.
func Absorbed(err error) bool {
	k := Kind(err)
	return k == ErrValidation || k == ErrStaleResult
}
