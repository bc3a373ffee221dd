package ffirt

import (
	"errors"
	"fmt"
)

const (
	// IOErrorDomain is the domain of errors produced by the runtime itself.
	IOErrorDomain = "g-io-error-quark"
	// ErrorDomain is the domain assigned to plain Go errors relayed to C.
	ErrorDomain = "ffigen-error-quark"
)

// Codes within IOErrorDomain.
const (
	IOErrorFailed       int32 = 0
	IOErrorInvalidData  int32 = 13
	IOErrorCancelled    int32 = 19
	IOErrorNotSupported int32 = 15
)

// Error is the error-information object handed to C callers through an
// out-parameter. Two errors match under errors.Is when domain and code agree.
type Error struct {
	Domain  string
	Code    int32
	Message string
	cause   error
}

func NewError(domain string, code int32, format string, args ...any) *Error {
	return &Error{Domain: domain, Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s:%d)", e.Message, e.Domain, e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Domain == t.Domain && e.Code == t.Code
}

var (
	// ErrCancelled is reported when an asynchronous operation is aborted
	// through its cancellation token.
	ErrCancelled = &Error{Domain: IOErrorDomain, Code: IOErrorCancelled, Message: "Operation was cancelled"}

	// Completion-result protocol errors. They are reported deterministically
	// but the calls that produce them are usage errors on the C side.
	ErrInvalidResult  = &Error{Domain: IOErrorDomain, Code: IOErrorInvalidData, Message: "Not a completion result"}
	ErrForeignResult  = &Error{Domain: IOErrorDomain, Code: IOErrorNotSupported, Message: "Completion result belongs to another operation"}
	ErrResultConsumed = &Error{Domain: IOErrorDomain, Code: IOErrorFailed, Message: "Completion result was already finished"}
)

// AsError returns err as an error-information object. Errors that already
// are (or wrap) an *Error are relayed verbatim.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Domain: ErrorDomain, Code: 0, Message: err.Error(), cause: err}
}

// SetError stores a fresh owned handle to err in out. A nil out means the
// caller is not interested in the error and nothing is allocated.
func SetError(out *uintptr, err error) {
	if out == nil || err == nil {
		return
	}
	*out = uintptr(handles.insert(AsError(err)))
}
