package api

import (
	"errors"
	"fmt"
)

// Kind is the outcome of a fetch, switched on by the view layer.
type Kind int

const (
	KindSuccess Kind = iota // at least one item
	KindEmpty               // request succeeded, nothing to show
	KindFailure             // transport error, non-2xx status or bad body
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmpty:
		return "empty"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result carries the outcome of a list call. Items is set only for
// KindSuccess and Err only for KindFailure.
type Result struct {
	Kind  Kind
	Items []string
	Err   error
}

// Succeeded builds a Result from a decoded list.
func Succeeded(items []string) Result {
	if len(items) == 0 {
		return Result{Kind: KindEmpty}
	}
	return Result{Kind: KindSuccess, Items: items}
}

// Failed builds a failure Result.
func Failed(err error) Result {
	return Result{Kind: KindFailure, Err: err}
}

// StatusError reports a completed request with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// ErrNotFound matches a StatusError with code 404 via errors.Is.
var ErrNotFound = errors.New("not found")

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == 404
}
