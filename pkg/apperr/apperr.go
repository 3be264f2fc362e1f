// Package apperr defines the error kinds shared by the scheduling services
// and the Telegram transport.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for the transport layer
type Kind int

const (
	// KindUnknown is returned for errors that were not created by this package
	KindUnknown Kind = iota
	// KindParse marks malformed date or time input
	KindParse
	// KindValidation marks well-formed input that breaks a rule (start >= end)
	KindValidation
	// KindAuthorization marks an actor acting on a record they do not own
	KindAuthorization
	// KindNotFound marks unknown or already resolved ids
	KindNotFound
	// KindNotRegistered marks operations attempted before a team was registered
	KindNotRegistered
	// KindStorage marks failures of the backing store
	KindStorage
	// KindNotification marks failures to deliver a broadcast message
	KindNotification
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindParse:         "parse",
	KindValidation:    "validation",
	KindAuthorization: "authorization",
	KindNotFound:      "not_found",
	KindNotRegistered: "not_registered",
	KindStorage:       "storage",
	KindNotification:  "notification",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified error. Message is safe to show to users for the
// user-facing kinds.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a stack trace
func New(kind Kind, message string) error {
	return errors.WithStack(&Error{Kind: kind, Message: message})
}

// Newf creates a classified error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap classifies err. It returns nil if err is nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Message: message, Err: err})
}

// Wrapf classifies err with a formatted message
func Wrapf(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the outermost classified error in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUserFacing reports whether the error message may be shown verbatim
func IsUserFacing(err error) bool {
	switch KindOf(err) {
	case KindParse, KindValidation, KindAuthorization, KindNotFound, KindNotRegistered:
		return true
	}
	return false
}

// UserMessage returns the message to show to the requester. Operational
// failures are reduced to a generic message.
func UserMessage(err error) string {
	var e *Error
	if IsUserFacing(err) && errors.As(err, &e) {
		return e.Message
	}
	return "😢 Sorry, something went wrong. Please try again later."
}
