package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/types"
)

// Annotation is the format-tagged fragment the orchestrator merges into the
// document record: enriched key terms for PDFs, an HTML preview for
// everything else.
type Annotation struct {
	KeyTerms    []types.KeyTerm
	HTMLContent string
}

// AnnotateService runs the per-format post-processing step after insight
// generation.
type AnnotateService interface {
	Enrich(ctx context.Context, data []byte, fileType types.FileType, terms []types.KeyTerm) (*Annotation, error)
}

type annotateService struct {
	log *logger.Logger
}

func NewAnnotateService(log *logger.Logger) AnnotateService {
	return &annotateService{log: log.With("service", "AnnotateService")}
}

func (s *annotateService) Enrich(ctx context.Context, data []byte, fileType types.FileType, terms []types.KeyTerm) (*Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch fileType {
	case types.FileTypePDF:
		enriched, err := locateTermsInPDF(data, terms)
		if err != nil {
			return nil, err
		}
		return &Annotation{KeyTerms: enriched}, nil
	case types.FileTypeDocx:
		htmlContent, err := renderDocxHTML(data)
		if err != nil {
			return nil, err
		}
		return &Annotation{KeyTerms: terms, HTMLContent: htmlContent}, nil
	case types.FileTypeTxt:
		return &Annotation{
			KeyTerms:    terms,
			HTMLContent: "<pre>" + html.EscapeString(string(data)) + "</pre>",
		}, nil
	default:
		return nil, fmt.Errorf("unknown file type %q", fileType)
	}
}

// glyphRun is one positioned text fragment on a page, in reading order.
type glyphRun struct {
	text string
	x0   float64
	y0   float64
	x1   float64
	y1   float64
}

// locateTermsInPDF scans every page for exact occurrences of each key term
// and attaches {page, bounding box} per occurrence. A term with no matches
// still gets a non-nil empty location list so the stored record is explicit
// about "searched, found nothing".
func locateTermsInPDF(data []byte, terms []types.KeyTerm) ([]types.KeyTerm, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}

	enriched := make([]types.KeyTerm, len(terms))
	for i, t := range terms {
		enriched[i] = types.KeyTerm{Term: t.Term, Risk: t.Risk, Locations: []types.TermLocation{}}
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", pageNum, err)
		}

		for _, row := range rows {
			runs := make([]glyphRun, 0, len(row.Content))
			var rowText strings.Builder
			// byte offset of each run within the row string
			offsets := make([]int, 0, len(row.Content))
			for _, txt := range row.Content {
				offsets = append(offsets, rowText.Len())
				rowText.WriteString(txt.S)
				runs = append(runs, glyphRun{
					text: txt.S,
					x0:   txt.X,
					y0:   txt.Y,
					x1:   txt.X + txt.W,
					y1:   txt.Y + txt.FontSize,
				})
			}
			line := rowText.String()

			for i := range enriched {
				term := enriched[i].Term
				if term == "" {
					continue
				}
				for from := 0; ; {
					idx := strings.Index(line[from:], term)
					if idx < 0 {
						break
					}
					start := from + idx
					end := start + len(term)
					if box, ok := boundingBox(runs, offsets, start, end); ok {
						// Pages are reported zero-based, matching the
						// rendered-viewer convention.
						enriched[i].Locations = append(enriched[i].Locations, types.TermLocation{
							Page:   pageNum - 1,
							Coords: box,
						})
					}
					from = end
				}
			}
		}
	}
	return enriched, nil
}

// boundingBox unions the boxes of every run overlapping [start, end) in the
// row string.
func boundingBox(runs []glyphRun, offsets []int, start, end int) ([4]float64, bool) {
	var box [4]float64
	found := false
	for i, run := range runs {
		runStart := offsets[i]
		runEnd := runStart + len(run.text)
		if runEnd <= start || runStart >= end {
			continue
		}
		if !found {
			box = [4]float64{run.x0, run.y0, run.x1, run.y1}
			found = true
			continue
		}
		if run.x0 < box[0] {
			box[0] = run.x0
		}
		if run.y0 < box[1] {
			box[1] = run.y0
		}
		if run.x1 > box[2] {
			box[2] = run.x1
		}
		if run.y1 > box[3] {
			box[3] = run.y1
		}
	}
	return box, found
}

// renderDocxHTML converts word/document.xml into a paragraph-per-<p> HTML
// preview. Bold and italic run properties survive; everything else is
// deliberately flattened.
func renderDocxHTML(data []byte) (string, error) {
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

	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var (
		out       strings.Builder
		para      strings.Builder
		inPara    bool
		inRun     bool
		runBold   bool
		runItalic bool
	)
	out.WriteString(`<div class="document-preview">`)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse word/document.xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inPara = true
				para.Reset()
			case "r":
				inRun = true
				runBold = false
				runItalic = false
			case "b":
				if inRun {
					runBold = true
				}
			case "i":
				if inRun {
					runItalic = true
				}
			case "t":
				if !inPara {
					continue
				}
				var v string
				if err := dec.DecodeElement(&v, &el); err != nil {
					continue
				}
				escaped := html.EscapeString(v)
				switch {
				case runBold && runItalic:
					para.WriteString("<strong><em>" + escaped + "</em></strong>")
				case runBold:
					para.WriteString("<strong>" + escaped + "</strong>")
				case runItalic:
					para.WriteString("<em>" + escaped + "</em>")
				default:
					para.WriteString(escaped)
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "r":
				inRun = false
			case "p":
				if inPara {
					out.WriteString("<p>" + para.String() + "</p>")
					inPara = false
				}
			}
		}
	}
	out.WriteString("</div>")
	return out.String(), nil
}
