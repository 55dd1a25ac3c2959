package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph structure errors
const (
	// ErrCodeCycleDetected indicates the adjacency structure is not acyclic.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// ErrCodeGraphFrozen indicates a mutation of a graph that is owned by an instance.
	ErrCodeGraphFrozen ErrorCode = "GRAPH_FROZEN"
	// ErrCodeDefinitionConflict indicates an invalid or colliding graph definition.
	ErrCodeDefinitionConflict ErrorCode = "DEFINITION_CONFLICT"
)

// Binding and resolution errors
const (
	// ErrCodeMissingInput indicates one or more input nodes lack a binding.
	ErrCodeMissingInput ErrorCode = "MISSING_INPUT"
	// ErrCodeAttributeResolution indicates a dotted reference could not be resolved.
	ErrCodeAttributeResolution ErrorCode = "ATTRIBUTE_RESOLUTION"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested node, result or function was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Execution errors
const (
	// ErrCodeNodeExecution indicates a node's function failed.
	ErrCodeNodeExecution ErrorCode = "NODE_EXECUTION"
	// ErrCodeCanceled indicates the run was canceled before completion.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// fatalCodes are the codes raised before any node executes.
var fatalCodes = map[ErrorCode]bool{
	ErrCodeCycleDetected:      true,
	ErrCodeDefinitionConflict: true,
	ErrCodeMissingInput:       true,
}

// IsPreExecutionCode returns true if the code is raised before any node runs,
// so a failed call has no partial side effects.
func IsPreExecutionCode(code ErrorCode) bool {
	return fatalCodes[code]
}
