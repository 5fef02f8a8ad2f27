package models

import "fmt"

// AdapterError marks an upstream response whose shape could not be
// interpreted. It is local to one record and distinct from a clean
// "no match" outcome.
type AdapterError struct {
	Adapter string
	Detail  string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %s", e.Adapter, e.Detail)
}

// WriteError means the remote store rejected a patch for one record.
type WriteError struct {
	VariantId string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("patch variant %s: %v", e.VariantId, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
