package client

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation. Every kind is terminal; nothing retries.
type Kind int

const (
	KindValidation  Kind = iota + 1 // empty required input, no request made
	KindNetwork                     // transport failure or non-2xx status
	KindApplication                 // explicit error field in a 2xx response
	KindEmptyResult                 // zero images or prompts
	KindNoSelection                 // nothing selected before a dependent request
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindApplication:
		return "application"
	case KindEmptyResult:
		return "empty result"
	case KindNoSelection:
		return "no selection"
	}
	return "unknown"
}

var (
	ErrValidation       = errors.New("input is required")
	ErrExtractionFailed = errors.New("image extraction failed")
	ErrNoImagesFound    = errors.New("no images found")
	ErrNoPrompts        = errors.New("no prompts were generated")
	ErrNoSelection      = errors.New("nothing is selected")
	ErrBusy             = errors.New("a request is already in progress")
	ErrStale            = errors.New("response superseded by a newer request")
)

// Error is returned by every client operation.
type Error struct {
	Kind   Kind
	Op     string
	Status int // HTTP status for KindNetwork, 0 otherwise
	Err    error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare &Error{Kind: k} target by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message is the text shown to the user for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Err.Error()
	}
	return err.Error()
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
