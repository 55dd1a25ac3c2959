// Package errors provides the structured error type shared by the flowgraph
// packages. Every engine failure carries a machine-readable ErrorCode, a
// human-readable message and optional details (node names, cycle paths,
// missing inputs) so callers can decide remediation without parsing strings.
package errors
