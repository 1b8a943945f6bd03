package models

// FieldError describes why a single field of a submitted record was rejected
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// BulkItemError reports a rejected item of a bulk create request
type BulkItemError struct {
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// BulkDeleteFailure reports an id a bulk delete could not remove
type BulkDeleteFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}
