package dto

import (
	"errors"
	"mime/multipart"
)

// DocumentMeta tags one uploaded file with its document type and optional
// per-document hints.
type DocumentMeta struct {
	Filename string       `json:"filename"`
	DocType  DocumentType `json:"doc_type"`
	// Period is an optional per-document filing-period hint, e.g. "05-2023"
	// or "2022-23"; readers prefer the period printed in the document.
	Period   string `json:"period,omitempty"`
	Password string `json:"password,omitempty"`
}

// ScrutinyMetadata is the JSON payload accompanying the uploaded files.
type ScrutinyMetadata struct {
	// ProceedingID identifies the scrutiny case; a new one is assigned when
	// empty.
	ProceedingID string `json:"proceeding_id,omitempty"`
	// GSTIN is the expected 15-character taxpayer identifier.
	GSTIN string `json:"gstin"`
	// Period is the expected filing period, e.g. "05-2023" or "2022-23".
	Period    string         `json:"period"`
	Documents []DocumentMeta `json:"documents"`
}

// ScrutinyRequest represents the incoming analyze request.
type ScrutinyRequest struct {
	Files    []*multipart.FileHeader `form:"files[]" binding:"required"`
	Metadata string                  `form:"metadata" binding:"required"`
}

// Validate performs basic validation on the request.
func (r *ScrutinyRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoDocuments
	}
	if r.Metadata == "" {
		return errors.New("metadata is required")
	}
	return nil
}
