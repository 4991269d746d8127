// Package errs defines the kernel error taxonomy.
//
// Every failure that crosses the invoke boundary is an *Error carrying a
// Kind plus enough structure (operation, path, capability) for the caller
// to format a shell-style message without parsing strings.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the category of a kernel error.
type Kind int

const (
	// KindUnknown marks errors that did not originate in the kernel
	KindUnknown Kind = iota

	// KindNotFound indicates the path or record does not exist
	KindNotFound

	// KindAlreadyExists indicates the name is already taken
	KindAlreadyExists

	// KindParentNotFound indicates a missing parent directory
	KindParentNotFound

	// KindNotADirectory indicates a directory was required
	KindNotADirectory

	// KindIsADirectory indicates a file was required but a directory was found
	KindIsADirectory

	// KindDirectoryNotEmpty indicates a non-recursive removal of a populated directory
	KindDirectoryNotEmpty

	// KindPermissionDenied indicates a failed capability check
	KindPermissionDenied

	// KindTooManySymbolicLinks indicates the symlink hop bound was exceeded
	KindTooManySymbolicLinks

	// KindInvalidName indicates a malformed user, group, variable or node name
	KindInvalidName

	// KindInvalidArgument indicates a malformed argument from the caller
	KindInvalidArgument

	// KindAliasLoopDetected indicates alias expansion exceeded its bound
	KindAliasLoopDetected

	// KindAuthenticationFailed indicates bad credentials
	KindAuthenticationFailed

	// KindInvariantViolation indicates an operation that would break a tree or store invariant
	KindInvariantViolation

	// KindQuotaExceeded indicates the VFS size limit would be exceeded
	KindQuotaExceeded
)

var kindNames = map[Kind]string{
	KindUnknown:              "Unknown",
	KindNotFound:             "NotFound",
	KindAlreadyExists:        "AlreadyExists",
	KindParentNotFound:       "ParentNotFound",
	KindNotADirectory:        "NotADirectory",
	KindIsADirectory:         "IsADirectory",
	KindDirectoryNotEmpty:    "DirectoryNotEmpty",
	KindPermissionDenied:     "PermissionDenied",
	KindTooManySymbolicLinks: "TooManySymbolicLinks",
	KindInvalidName:          "InvalidName",
	KindInvalidArgument:      "InvalidArgument",
	KindAliasLoopDetected:    "AliasLoopDetected",
	KindAuthenticationFailed: "AuthenticationFailed",
	KindInvariantViolation:   "InvariantViolation",
	KindQuotaExceeded:        "QuotaExceeded",
}

var kindMessages = map[Kind]string{
	KindNotFound:             "No such file or directory",
	KindAlreadyExists:        "File exists",
	KindParentNotFound:       "Parent directory does not exist",
	KindNotADirectory:        "Not a directory",
	KindIsADirectory:         "Is a directory",
	KindDirectoryNotEmpty:    "Directory not empty",
	KindPermissionDenied:     "Permission denied",
	KindTooManySymbolicLinks: "Too many levels of symbolic links",
	KindInvalidName:          "Invalid name",
	KindInvalidArgument:      "Invalid argument",
	KindAliasLoopDetected:    "Alias loop detected",
	KindAuthenticationFailed: "Authentication failed",
	KindInvariantViolation:   "Operation not permitted",
	KindQuotaExceeded:        "No space left on device",
}

// String returns the stable name of the kind, e.g. "PermissionDenied".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a kernel domain error.
type Error struct {
	Kind Kind

	// Op is the kernel operation that failed (e.g. "write_file")
	Op string

	// Path is the offending path or record name, if any
	Path string

	// Capability names the missing capability for PermissionDenied
	Capability string

	// Message overrides the default text for Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "'%s': ", e.Path)
	}
	b.WriteString(e.message())
	if e.Capability != "" {
		fmt.Fprintf(&b, " (%s)", e.Capability)
	}
	return b.String()
}

func (e *Error) message() string {
	if e.Message != "" {
		return e.Message
	}
	if msg, ok := kindMessages[e.Kind]; ok {
		return msg
	}
	return "unknown error"
}

// Shell formats e the way a command reports it on a terminal, e.g.
// "rm: '/etc/motd': Permission denied".
func (e *Error) Shell(command string) string {
	if e.Path == "" {
		return command + ": " + e.message()
	}
	return fmt.Sprintf("%s: '%s': %s", command, e.Path, e.message())
}

// WithOp returns a copy of e attributed to op, keeping any existing op.
func (e *Error) WithOp(op string) *Error {
	if e.Op != "" {
		return e
	}
	cp := *e
	cp.Op = op
	return &cp
}

// New creates an error of the given kind.
func New(kind Kind, op, path string) *Error {
	return &Error{Kind: kind, Op: op, Path: path}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, op, path, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Denied creates a PermissionDenied error naming the missing capability.
func Denied(op, path, capability string) *Error {
	return &Error{Kind: KindPermissionDenied, Op: op, Path: path, Capability: capability}
}

// Invariant creates an InvariantViolation error with an explanatory message.
func Invariant(op, path, message string) *Error {
	return &Error{Kind: KindInvariantViolation, Op: op, Path: path, Message: message}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is a kernel error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As extracts the kernel error from err.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Annotate attributes err to op when it is a kernel error without one.
func Annotate(err error, op string) error {
	if e, ok := As(err); ok {
		return e.WithOp(op)
	}
	return err
}
