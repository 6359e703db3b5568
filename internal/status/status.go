package status

import (
	"errors"
	"net/http"
)

var (
	ErrDuplicateSong      = errors.New("queue: song already queued or playing")
	ErrInsufficientPoints = errors.New("points: insufficient balance")
	ErrNotFound           = errors.New("queue: entry not found")
	ErrForbidden          = errors.New("queue: caller may not modify this entry")
	ErrInvalidState       = errors.New("queue: entry is not in a removable state")
	ErrUnavailable        = errors.New("store: coordination store unavailable")
)

// Code is the machine-readable error code surfaced to API callers.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateSong):
		return "DUPLICATE_SONG"
	case errors.Is(err, ErrInsufficientPoints):
		return "INSUFFICIENT_POINTS"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

// HTTPCode maps engine errors onto response status codes.
func HTTPCode(err error) int {
	switch {
	case errors.Is(err, ErrDuplicateSong):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientPoints):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
