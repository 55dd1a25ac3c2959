package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the error type every flowgraph package returns, directly or
// embedded in a more specific type. Callers branch on Code with IsCode.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error renders "CODE: message", followed by " (cause: ...)" when wrapped.
func (e *AppError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause == nil {
		return msg
	}
	return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into e and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithDetail sets one detail on e and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{key: value}
		return e
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// newf builds an AppError whose details are the key/value pairs in kv.
func newf(code ErrorCode, kv []any, format string, args ...any) *AppError {
	e := New(code, fmt.Sprintf(format, args...))
	for i := 0; i+1 < len(kv); i += 2 {
		e.WithDetail(kv[i].(string), kv[i+1])
	}
	return e
}

// --- Graph structure ---

// CycleDetected reports a dependency cycle; path starts and ends on the same
// node.
func CycleDetected(path []string) *AppError {
	return newf(ErrCodeCycleDetected, []any{"path", path}, "cycle detected: %s", strings.Join(path, " -> "))
}

// GraphFrozen reports a mutation op attempted on a frozen graph.
func GraphFrozen(op string) *AppError {
	return newf(ErrCodeGraphFrozen, []any{"operation", op}, "graph is frozen: %s not allowed", op)
}

// DefinitionConflict reports an invalid or colliding definition.
func DefinitionConflict(definition, reason string) *AppError {
	return newf(ErrCodeDefinitionConflict, []any{"definition", definition}, "definition %q: %s", definition, reason)
}

// --- Binding and resolution ---

// MissingInputs lists every input without a binding.
func MissingInputs(names []string) *AppError {
	return newf(ErrCodeMissingInput, []any{"missing", names}, "missing inputs: %s", strings.Join(names, ", "))
}

// AttributeResolution reports a node.field reference that did not resolve.
func AttributeResolution(node, field, reason string) *AppError {
	return newf(ErrCodeAttributeResolution, []any{"node", node, "field", field}, "cannot resolve %s.%s: %s", node, field, reason)
}

// NotFound reports a missing resource; id may be empty.
func NotFound(resource, id string) *AppError {
	if id == "" {
		return newf(ErrCodeNotFound, []any{"resource", resource}, "%s not found", resource)
	}
	return newf(ErrCodeNotFound, []any{"resource", resource, "id", id}, "%s %q not found", resource, id)
}

// InvalidInput reports a bad value for field; field may be empty.
func InvalidInput(field, reason string) *AppError {
	e := newf(ErrCodeInvalidInput, nil, "invalid input: %s", reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports one or more field problems joined into message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// --- Execution ---

// NodeExecution wraps the error a node function returned.
func NodeExecution(node string, cause error) *AppError {
	return newf(ErrCodeNodeExecution, []any{"node", node}, "node %q failed", node).WithCause(cause)
}

// Canceled reports a run stopped by its context.
func Canceled(cause error) *AppError {
	return New(ErrCodeCanceled, "run canceled").WithCause(cause)
}

// Internal wraps an unexpected error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "an unexpected error occurred").WithCause(cause)
}

// --- Inspection ---

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// IsAppError reports whether err's chain holds an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Wrap returns err as an AppError. AppErrors anywhere in the chain are
// returned as-is; other errors become INTERNAL_ERROR with err as the cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
