package flow

import (
	"fmt"

	"github.com/kbukum/flowgraph/errors"
)

// DefinitionError reports an invalid or colliding graph definition. It is
// raised by Builder.Build, before any instance exists.
type DefinitionError struct {
	*errors.AppError
	Definition string
	Node       string
}

func (e *DefinitionError) Unwrap() error { return e.AppError }

func newDefinitionError(definition, node, format string, args ...any) *DefinitionError {
	return &DefinitionError{
		AppError:   errors.DefinitionConflict(definition, fmt.Sprintf(format, args...)).WithDetail("node", node),
		Definition: definition,
		Node:       node,
	}
}

// MissingInputError lists every input node that has no binding.
type MissingInputError struct {
	*errors.AppError
	Definition string
	Missing    []string
}

func (e *MissingInputError) Unwrap() error { return e.AppError }

func newMissingInputError(definition string, missing []string) *MissingInputError {
	return &MissingInputError{
		AppError:   errors.MissingInputs(missing).WithDetail("definition", definition),
		Definition: definition,
		Missing:    missing,
	}
}

// AttributeResolutionError reports a node.field reference that could not be
// read off the referenced node's result.
type AttributeResolutionError struct {
	*errors.AppError
	// Node is the node whose argument failed to resolve.
	Node string
	// Ref is the referenced node and Field the attribute read from its result.
	Ref   string
	Field string
}

func (e *AttributeResolutionError) Unwrap() error { return e.AppError }

// NodeExecutionError wraps the error returned by a node's Func.
type NodeExecutionError struct {
	*errors.AppError
	Node string
	Err  error
}

func (e *NodeExecutionError) Unwrap() error { return e.AppError }

func newNodeExecutionError(node string, err error) *NodeExecutionError {
	return &NodeExecutionError{
		AppError: errors.NodeExecution(node, err),
		Node:     node,
		Err:      err,
	}
}

// NotFoundError reports a lookup of a name that is not a known result.
type NotFoundError struct {
	*errors.AppError
	Name string
}

func (e *NotFoundError) Unwrap() error { return e.AppError }

func newNotFoundError(resource, name string) *NotFoundError {
	return &NotFoundError{AppError: errors.NotFound(resource, name), Name: name}
}
