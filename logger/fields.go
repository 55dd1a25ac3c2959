package logger

import "time"

// Field keys shared by every package that logs graph activity.
const (
	FieldComponent = "component"
	FieldGraph     = "graph"
	FieldNode      = "node"
	FieldRunID     = "run_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a field map from alternating keys and values. A pair whose
// key is not a string is skipped, as is a trailing key without a value.
//
//	log.Info("node done", logger.Fields(logger.FieldNode, "sum", "value", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 1; i < len(kvs); i += 2 {
		if key, ok := kvs[i-1].(string); ok {
			m[key] = kvs[i]
		}
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]interface{} {
	return MergeWithError(Fields(FieldOperation, op), err)
}

// DurationFields describes a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return MergeWithDuration(Fields(FieldOperation, op), d)
}

// MergeWithError sets the error field on fields, which may be nil.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	return merge(fields, FieldError, err.Error())
}

// MergeWithDuration sets the duration field, in milliseconds, on fields,
// which may be nil.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	return merge(fields, FieldDuration, d.Milliseconds())
}

func merge(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields[key] = value
	return fields
}
