package commands

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindUsage ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindValidation
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a failure of a management sub-command. Reply is the chat text
// shown to the invoking user.
type Error struct {
	Kind  ErrorKind
	Reply string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reply, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reply)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a management error, or 0 for other errors.
func KindOf(err error) ErrorKind {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}
	return 0
}

func usageError(usage string) *Error {
	return &Error{Kind: KindUsage, Reply: "Invalid command. Usage: " + usage}
}

func notFoundError(trigger string) *Error {
	return &Error{
		Kind:  KindNotFound,
		Reply: fmt.Sprintf("Could not find a command with the trigger '%s', please try again.", trigger),
	}
}
