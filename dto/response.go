package dto

import "errors"

// Custom errors
var (
	ErrNoDocuments       = errors.New("at least one return document is required")
	ErrInvalidMetadata   = errors.New("invalid scrutiny metadata")
	ErrUnknownProceeding = errors.New("unknown proceeding")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// DocumentResult reports what happened to one uploaded document.
type DocumentResult struct {
	DocID    string       `json:"doc_id"`
	DocType  DocumentType `json:"doc_type"`
	Accepted bool         `json:"accepted"`
	Reason   string       `json:"reason,omitempty"`
	Notes    []string     `json:"notes,omitempty"`
}

// ScrutinyResponse is the final response structure for an analyze run.
type ScrutinyResponse struct {
	ProceedingID string           `json:"proceeding_id"`
	GSTIN        string           `json:"gstin"`
	Period       string           `json:"period"`
	State        CaseState        `json:"state"`
	Documents    []DocumentResult `json:"documents"`
	Findings     []Finding        `json:"findings"`
	Summary      Summary          `json:"summary"`
	ProcessedAt  string           `json:"processed_at"`
}
