// Package kerr defines the closed error surface of the kioto plugin
// runtime: a small set of distinct, testable error kinds rather than
// ad-hoc wrapped errors.
//
// The shape follows the teacher's internal/errors.AppError (a machine
// matchable Code plus a human Message and optional Details), adapted from
// an HTTP-status mapping to a Kind enum that callers switch on or test
// with Is.
package kerr

import "fmt"

// Kind identifies one of the error categories from the runtime's error
// surface. Kind values are stable strings so they round-trip through
// logs and are safe to compare across process boundaries.
type Kind string

const (
	KindIncompletePluginName      Kind = "IncompletePluginName"
	KindPluginNotFound            Kind = "PluginNotFound"
	KindPluginMismatch            Kind = "PluginMismatch"
	KindPluginHandlerTargetMismatch Kind = "PluginHandlerTargetMismatch"
	KindPluginCallSkipped         Kind = "PluginCallSkipped"
	KindPluginCallCancelled       Kind = "PluginCallCancelled"
	KindPluginCallError           Kind = "PluginCallError"
	KindPreviousUnhandledRequest  Kind = "PreviousUnhandledRequest"
	KindWriteRequestRaceCondition Kind = "WriteRequestRaceCondition"
	KindTaskError                 Kind = "TaskError"
	KindLoadPluginError            Kind = "LoadPluginError"
	KindSerializationError         Kind = "SerializationError"
	KindIOError                    Kind = "IOError"

	// KindCommitConflict is not in spec.md §6's enumerated surface; it is
	// the resolution of the "commit conflict policy" Open Question
	// (spec.md §9, recorded in DESIGN.md): produced only when a Store is
	// constructed with DisallowCommitConflicts set, never otherwise.
	KindCommitConflict Kind = "CommitConflict"
)

// Error is the single error type produced by the core. Every exported
// operation that can fail returns either nil or an *Error.
type Error struct {
	Kind Kind

	// Message is human-readable and safe to log or display.
	Message string

	// Details carries a wrapped underlying error's text, when present.
	Details string

	// PluginName attributes a PluginCallError to the plugin that raised it.
	PluginName string

	// Format attributes a SerializationError to the format that failed
	// (e.g. "toml", "json").
	Format string

	// IsPanic marks a TaskError raised for a recovered panic inside a
	// spawned task. IsCancel marks a task-level cancellation; Runtime
	// never sets it, since a cancelled Work reports KindPluginCallCancelled
	// instead.
	IsPanic  bool
	IsCancel bool
}

func (e *Error) Error() string {
	if e.PluginName != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.PluginName)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether err is a *Error of the given Kind. It is the
// idiomatic match point for callers, analogous to errors.Is but scoped
// to this package's closed Kind enum.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

func IncompletePluginName(input string) *Error {
	return &Error{Kind: KindIncompletePluginName, Message: fmt.Sprintf("incomplete plugin name: %q", input)}
}

func PluginNotFound(path string) *Error {
	return &Error{Kind: KindPluginNotFound, Message: fmt.Sprintf("plugin not found: %s", path)}
}

func PluginMismatch(want, got string) *Error {
	return &Error{Kind: KindPluginMismatch, Message: fmt.Sprintf("expected plugin type %s, found %s", want, got)}
}

func PluginHandlerTargetMismatch(handlerTarget, eventTarget string) *Error {
	return &Error{
		Kind:    KindPluginHandlerTargetMismatch,
		Message: fmt.Sprintf("handler targets %s, event plugin is %s", handlerTarget, eventTarget),
	}
}

func PluginCallSkipped() *Error {
	return &Error{Kind: KindPluginCallSkipped, Message: "plugin declined to act"}
}

func PluginCallCancelled() *Error {
	return &Error{Kind: KindPluginCallCancelled, Message: "call was cancelled"}
}

func PluginCallError(name, message string) *Error {
	return &Error{Kind: KindPluginCallError, Message: message, PluginName: name}
}

func PreviousUnhandledRequest(dest string) *Error {
	return &Error{Kind: KindPreviousUnhandledRequest, Message: fmt.Sprintf("commit %s already has a pending message", dest)}
}

func WriteRequestRaceCondition(dest string) *Error {
	return &Error{Kind: KindWriteRequestRaceCondition, Message: fmt.Sprintf("concurrent send raced on commit %s", dest)}
}

func TaskError(isPanic, isCancel bool, message string) *Error {
	return &Error{Kind: KindTaskError, Message: message, IsPanic: isPanic, IsCancel: isCancel}
}

func LoadPluginError(message string) *Error {
	return &Error{Kind: KindLoadPluginError, Message: message}
}

func SerializationError(format, message string) *Error {
	return &Error{Kind: KindSerializationError, Message: message, Format: format}
}

func IOError(message string) *Error {
	return &Error{Kind: KindIOError, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Details: details}
}

func CommitConflict(path string) *Error {
	return &Error{Kind: KindCommitConflict, Message: fmt.Sprintf("registration conflict under %s", path)}
}
