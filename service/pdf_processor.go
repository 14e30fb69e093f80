package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProcessor extracts the text layer of a return PDF. Scanned documents
// without a text layer are out of scope; they surface as documents with no
// extractable text and are excluded from the run.
type PDFProcessor interface {
	ExtractText(pdfData []byte, password string) (string, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// ExtractText validates the PDF with pdfcpu first so corrupt uploads fail
// at the document level, then walks the text layer page by page and
// returns one line per text row.
func (p *pdfProcessor) ExtractText(pdfData []byte, password string) (string, error) {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
	}
	ctx, err := api.ReadContext(bytes.NewReader(pdfData), conf)
	if err != nil {
		return "", fmt.Errorf("corrupt or unreadable pdf: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return "", fmt.Errorf("pdf failed validation: %w", err)
	}

	var r *pdf.Reader
	if password != "" {
		r, err = pdf.NewReaderEncrypted(bytes.NewReader(pdfData), int64(len(pdfData)), func() string { return password })
	} else {
		r, err = pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	}
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, _ := page.GetTextByRow()
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			textBuilder.WriteString(strings.Join(words, " "))
			textBuilder.WriteString("\n")
		}
	}
	return textBuilder.String(), nil
}
