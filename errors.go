package halftone

import "fmt"

// Kind classifies a recoverable error returned by this package. Every Kind
// is recoverable for the caller's next top-level call; none of them panics.
type Kind int

const (
	// KindState means AddFrame was called before Start, or Start was
	// called twice on an already-started Encoder.
	KindState Kind = iota + 1
	// KindWrite means the underlying sink returned an error during a
	// write. The current frame is aborted and the Encoder returns to
	// StateIdle; the caller owns discarding the sink.
	KindWrite
	// KindSize means the first frame had width < 1 or height < 1; the
	// Encoder fell back to a 320x240 canvas.
	KindSize
	// KindPalette means a palette constructor was asked for fewer than 2
	// colors, or given a nil/empty color list, and fell back to the
	// built-in default palette.
	KindPalette
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindWrite:
		return "write"
	case KindSize:
		return "size"
	case KindPalette:
		return "palette"
	default:
		return "unknown"
	}
}

// Error is the error type returned by this package. Callers that want to
// distinguish the four recoverable error kinds of the spec should use
// errors.As and inspect Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("halftone: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("halftone: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Msg: msg, Err: cause}
}
