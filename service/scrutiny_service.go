package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	"github.com/auditstack/gst-return-scrutiny/dto"
	"github.com/auditstack/gst-return-scrutiny/store"
	"github.com/auditstack/gst-return-scrutiny/utils"
	"github.com/auditstack/gst-return-scrutiny/utils/gstr2a"
	"github.com/auditstack/gst-return-scrutiny/utils/gstr3b"
	"github.com/auditstack/gst-return-scrutiny/utils/gstr9"
)

type ScrutinyService struct {
	pdfProcessor PDFProcessor
	engine       *RuleEngine
	store        *store.Store
}

func NewScrutinyService(pdfProcessor PDFProcessor, engine *RuleEngine, st *store.Store) *ScrutinyService {
	return &ScrutinyService{
		pdfProcessor: pdfProcessor,
		engine:       engine,
		store:        st,
	}
}

// Analyze runs the full scrutiny pipeline for one proceeding: extraction
// per document, metadata validation, rule evaluation, persistence. The
// pipeline is synchronous and runs to completion; a single bad document
// is excluded and reported without aborting its siblings, and the call
// always returns a result object unless the request itself is malformed
// or the case lifecycle rejects the run.
func (s *ScrutinyService) Analyze(ctx context.Context, req *dto.ScrutinyRequest) (*dto.ScrutinyResponse, error) {
	var metadata dto.ScrutinyMetadata
	if err := json.Unmarshal([]byte(req.Metadata), &metadata); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", dto.ErrInvalidMetadata, err)
	}
	if !utils.IsValidGSTIN(metadata.GSTIN) {
		return nil, fmt.Errorf("%w: expected GSTIN %q is not a valid GSTIN", dto.ErrInvalidMetadata, metadata.GSTIN)
	}
	expectedPeriod, err := utils.ParsePeriod(metadata.Period)
	if err != nil {
		return nil, fmt.Errorf("%w: expected period: %v", dto.ErrInvalidMetadata, err)
	}

	proceedingID := metadata.ProceedingID
	if proceedingID == "" {
		proceedingID = uuid.NewString()
	}

	state, _, err := s.store.CaseState(ctx, proceedingID)
	if err != nil {
		return nil, err
	}
	lifecycle := NewLifecycle(state)

	fileMap := make(map[string]*multipart.FileHeader)
	for _, file := range req.Files {
		fileMap[file.Filename] = file
	}

	var sets []*dto.FigureSet
	var documents []dto.DocumentResult

	// Documents are processed sequentially: extraction for one proceeding
	// runs to completion before results are returned.
	for _, docMeta := range metadata.Documents {
		fileHeader, ok := fileMap[docMeta.Filename]
		if !ok {
			log.Printf("Warning: file %s mentioned in metadata not found in upload", docMeta.Filename)
			documents = append(documents, dto.DocumentResult{
				DocID:   docMeta.Filename,
				DocType: docMeta.DocType,
				Reason:  "file named in metadata was not uploaded",
			})
			continue
		}

		set, err := s.extractDocument(fileHeader, docMeta)
		if err != nil {
			log.Printf("Document %s excluded: %v", docMeta.Filename, err)
			documents = append(documents, dto.DocumentResult{
				DocID:   docMeta.Filename,
				DocType: docMeta.DocType,
				Reason:  err.Error(),
			})
			continue
		}
		sets = append(sets, set)

		if lifecycle.State() == dto.CaseInit {
			if err := lifecycle.MarkIngested(); err != nil {
				return nil, err
			}
			if err := s.store.SaveCaseState(ctx, proceedingID, lifecycle.State()); err != nil {
				return nil, err
			}
		}
	}

	// Metadata validation excludes mismatched documents but keeps the run
	// going with the remainder.
	validations := ValidateMetadata(sets, metadata.GSTIN, expectedPeriod)
	var accepted []*dto.FigureSet
	for i, res := range validations {
		documents = append(documents, dto.DocumentResult{
			DocID:    res.DocID,
			DocType:  sets[i].DocType,
			Accepted: res.Accepted,
			Reason:   res.Reason,
			Notes:    sets[i].Notes,
		})
		if res.Accepted {
			accepted = append(accepted, sets[i])
		} else {
			log.Printf("Document %s rejected by metadata validation: %s", res.DocID, res.Reason)
		}
	}

	if err := lifecycle.BeginAnalysis(); err != nil {
		return nil, err
	}
	if err := s.store.SaveCaseState(ctx, proceedingID, lifecycle.State()); err != nil {
		return nil, err
	}

	findings := s.engine.Evaluate(accepted)
	summary := Summarize(findings)

	if err := s.store.SaveFindings(ctx, proceedingID, findings); err != nil {
		return nil, err
	}

	log.Printf("Proceeding %s analyzed: %d documents accepted, %d mismatches", proceedingID, len(accepted), summary.MismatchCount)

	return &dto.ScrutinyResponse{
		ProceedingID: proceedingID,
		GSTIN:        metadata.GSTIN,
		Period:       expectedPeriod.Key(),
		State:        lifecycle.State(),
		Documents:    documents,
		Findings:     findings,
		Summary:      summary,
		ProcessedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// extractDocument turns one uploaded file into a figure set, dispatching
// on the tagged document type.
func (s *ScrutinyService) extractDocument(fileHeader *multipart.FileHeader, meta dto.DocumentMeta) (*dto.FigureSet, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var periodHint dto.Period
	if meta.Period != "" {
		if p, err := utils.ParsePeriod(meta.Period); err == nil {
			periodHint = p
		}
	}

	switch meta.DocType {
	case dto.DocTypeGSTR3B:
		text, err := s.pdfProcessor.ExtractText(fileBytes, meta.Password)
		if err != nil {
			return nil, err
		}
		return gstr3b.Parse(text, meta.Filename, periodHint)
	case dto.DocTypeGSTR9:
		text, err := s.pdfProcessor.ExtractText(fileBytes, meta.Password)
		if err != nil {
			return nil, err
		}
		return gstr9.Parse(text, meta.Filename, periodHint)
	case dto.DocTypeGSTR2A:
		return gstr2a.Parse(fileBytes, meta.Filename, periodHint)
	default:
		return nil, fmt.Errorf("unknown document type: %s", meta.DocType)
	}
}

// Findings returns the persisted findings of a previously analyzed
// proceeding.
func (s *ScrutinyService) Findings(ctx context.Context, proceedingID string) ([]dto.Finding, dto.CaseState, error) {
	state, found, err := s.store.CaseState(ctx, proceedingID)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", fmt.Errorf("%w %s", dto.ErrUnknownProceeding, proceedingID)
	}
	findings, err := s.store.Findings(ctx, proceedingID)
	if err != nil {
		return nil, "", err
	}
	return findings, state, nil
}

// Finalize performs the explicit ANALYZED -> FINALIZED transition.
func (s *ScrutinyService) Finalize(ctx context.Context, proceedingID string) (dto.CaseState, error) {
	state, found, err := s.store.CaseState(ctx, proceedingID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w %s", dto.ErrUnknownProceeding, proceedingID)
	}

	lifecycle := NewLifecycle(state)
	if err := lifecycle.Transition(dto.CaseFinalized); err != nil {
		return "", err
	}
	if err := s.store.SaveCaseState(ctx, proceedingID, lifecycle.State()); err != nil {
		return "", err
	}
	log.Printf("Proceeding %s finalized", proceedingID)
	return lifecycle.State(), nil
}
