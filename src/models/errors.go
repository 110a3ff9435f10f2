package models

import "fmt"

// MalformedRecordError reports a single source row that could not be turned
// into a typed value. Malformed rows are excluded from the run and surfaced to
// the caller; they never abort ingestion.
type MalformedRecordError struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e MalformedRecordError) Error() string {
	return fmt.Sprintf("row %d: malformed %s: %s", e.Row, e.Field, e.Reason)
}
