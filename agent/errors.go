package agent

import (
	"bytes"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a named runtime does not exist.
var ErrNotFound = errors.New("runtime not found")

// ErrNameConflict is returned by the control plane when a runtime is created
// with a name that is already taken.
var ErrNameConflict = errors.New("runtime name already in use")

// A Kind classifies a failure.
type Kind uint8

// Failure kinds.
const (
	// Other is an unclassified failure, such as a local i/o error.
	Other Kind = iota

	// Precondition indicates a required input is missing or invalid. No
	// remote call was made.
	Precondition

	// Conflict indicates the runtime exists and updating was not allowed.
	// Nothing was changed.
	Conflict

	// AmbiguousConflict indicates the runtime was not listed but creating
	// it reported a name conflict. The runtime exists but its id is
	// unknown; it must be resolved manually.
	AmbiguousConflict

	// NotFound indicates a runtime or repository does not exist.
	NotFound

	// Remote is a failure reported by a remote service.
	Remote
)

func (k Kind) String() string {
	switch k {
	case Precondition:
		return "precondition"
	case Conflict:
		return "conflict"
	case AmbiguousConflict:
		return "ambiguous conflict"
	case NotFound:
		return "not found"
	case Remote:
		return "remote"
	default:
		return "error"
	}
}

// An Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string // Operation that failed, such as "reconcile".
	Name string // Runtime or repository name, if any.
	Err  error  // Underlying error.
}

func (e *Error) Error() string {
	var buf bytes.Buffer
	if e.Op != "" {
		buf.WriteString(e.Op)
		if e.Name != "" {
			buf.WriteString(" ")
			buf.WriteString(e.Name)
		}
		buf.WriteString(": ")
	}
	buf.WriteString(e.Kind.String())
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Cause returns the underlying error, for use with errors.Cause.
func (e *Error) Cause() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain. Returns Other
// if err does not contain an *Error, and Other for nil.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
