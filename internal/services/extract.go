package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/types"
)

const wordProcessingMIME = "openxmlformats-officedocument.wordprocessingml"

// ExtractService turns an uploaded blob into plain/markdown text. Dispatch
// is by MIME substring, matching what the upload client declares: "pdf",
// the word-processing OpenXML type, or any "text" type.
type ExtractService interface {
	Extract(ctx context.Context, r io.Reader, mimeType string) (string, types.FileType, error)
}

type extractService struct {
	log *logger.Logger
}

func NewExtractService(log *logger.Logger) ExtractService {
	return &extractService{log: log.With("service", "ExtractService")}
}

// fileTypeForMIME maps a declared MIME type to the extractor that can
// handle it. Cheap enough for the orchestrator to call before any blob is
// fetched.
func fileTypeForMIME(mimeType string) (types.FileType, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(mt, "pdf"):
		return types.FileTypePDF, nil
	case strings.Contains(mt, wordProcessingMIME):
		return types.FileTypeDocx, nil
	case strings.Contains(mt, "text"):
		return types.FileTypeTxt, nil
	}
	return "", fmt.Errorf("%w: mime type %q", pkgerrors.ErrUnsupportedFormat, mimeType)
}

func (s *extractService) Extract(ctx context.Context, r io.Reader, mimeType string) (string, types.FileType, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	fileType, err := fileTypeForMIME(mimeType)
	if err != nil {
		return "", "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("read document: %w", err)
	}

	var text string
	switch fileType {
	case types.FileTypePDF:
		text, err = extractPDF(data)
	case types.FileTypeDocx:
		text, err = extractDOCX(data)
	case types.FileTypeTxt:
		text = string(data)
	}
	if err != nil {
		return "", "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", "", fmt.Errorf("%w: mime type %q", pkgerrors.ErrEmptyDocument, mimeType)
	}
	return text, fileType, nil
}

// extractPDF renders each page's rows top to bottom, pages separated by a
// blank line. Keeps the reading order that downstream prompts rely on.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if strings.TrimSpace(line.String()) == "" {
				continue
			}
			out.WriteString(line.String())
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

// extractDOCX joins the document's paragraphs with newlines, the same shape
// the original formatting had before zip packaging.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx is not a valid zip container: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open word/document.xml: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("read word/document.xml: %w", err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}

	paragraphs, err := docxParagraphs(docXML)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

// docxParagraphs walks word/document.xml and returns one string per w:p,
// concatenating the w:t runs inside it.
func docxParagraphs(docXML []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse word/document.xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				if inPara {
					var v string
					if err := dec.DecodeElement(&v, &el); err == nil {
						current.WriteString(v)
					}
				}
			}
		case xml.EndElement:
			if el.Name.Local == "p" && inPara {
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}
		}
	}
	return paragraphs, nil
}
