package db

import "fmt"

// ErrorCode classifies a DBError. Values are stable for type-switches in
// callers, not for on-disk or wire compatibility.
type ErrorCode int

const (
	PageFullError ErrorCode = iota
	BufferPoolFullError
	NoCleanPageError
	IteratorClosedError
	MalformedDataError
	TypeMismatchError
	TupleNotFoundError
	IncompatibleTypesError
	AmbiguousNameError
)

func (c ErrorCode) String() string {
	switch c {
	case PageFullError:
		return "page full"
	case BufferPoolFullError:
		return "buffer pool full"
	case NoCleanPageError:
		return "no clean page"
	case IteratorClosedError:
		return "iterator closed"
	case MalformedDataError:
		return "malformed data"
	case TypeMismatchError:
		return "type mismatch"
	case TupleNotFoundError:
		return "tuple not found"
	case IncompatibleTypesError:
		return "incompatible types"
	case AmbiguousNameError:
		return "ambiguous name"
	default:
		return "unknown error"
	}
}

// DBError is the generic semantic-failure kind: a full page, a missing
// slot, no clean page to evict, iterator misuse, and similar conditions
// that are errors of the caller's request rather than of the disk.
type DBError struct {
	Code ErrorCode
	Msg  string
}

func (e DBError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// InvalidArgumentError reports a malformed caller request: an aggregator
// built with an operator its field type does not support, a tuple
// descriptor with an empty field name, a non-positive buffer pool
// capacity, and the like.
type InvalidArgumentError struct {
	Msg string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Msg
}

// TransactionAbortedError is returned when a transaction could not make
// progress: a lock acquisition exceeded its randomized timeout, or the
// caller requested an explicit abort. The caller must respond by calling
// (*BufferPool).TransactionComplete(tid, false).
type TransactionAbortedError struct {
	Reason string
}

func (e *TransactionAbortedError) Error() string {
	if e.Reason == "" {
		return "transaction aborted"
	}
	return "transaction aborted: " + e.Reason
}

// IoError wraps a disk read/write failure from a HeapFile so that callers
// can distinguish it from a logical DBError with errors.As, while still
// reaching the underlying *os.PathError with errors.Unwrap.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}
