package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/types"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// buildTestDocx wraps the given body XML in a minimal OpenXML package.
func buildTestDocx(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + bodyXML + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTxtPassthrough(t *testing.T) {
	t.Parallel()
	svc := NewExtractService(logger.NewNop())

	text, fileType, err := svc.Extract(context.Background(), strings.NewReader("This agreement is binding.\n"), "text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileType != types.FileTypeTxt {
		t.Fatalf("unexpected file type: got=%q want=%q", fileType, types.FileTypeTxt)
	}
	if text != "This agreement is binding.\n" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	t.Parallel()
	svc := NewExtractService(logger.NewNop())

	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := svc.Extract(context.Background(), strings.NewReader(tc.body), "text/plain")
			if !errors.Is(err, pkgerrors.ErrEmptyDocument) {
				t.Fatalf("expected ErrEmptyDocument, got %v", err)
			}
		})
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	t.Parallel()
	svc := NewExtractService(logger.NewNop())

	for _, mime := range []string{"image/png", "application/zip", "", "video/mp4"} {
		mime := mime
		t.Run("mime="+mime, func(t *testing.T) {
			t.Parallel()
			_, _, err := svc.Extract(context.Background(), strings.NewReader("payload"), mime)
			if !errors.Is(err, pkgerrors.ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestExtractDocxParagraphs(t *testing.T) {
	t.Parallel()
	svc := NewExtractService(logger.NewNop())

	data := buildTestDocx(t,
		`<w:p><w:r><w:t>Section 1.</w:t></w:r><w:r><w:t> Term of Lease</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>The tenant shall pay rent monthly.</w:t></w:r></w:p>`)

	text, fileType, err := svc.Extract(context.Background(), bytes.NewReader(data), docxMIME)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileType != types.FileTypeDocx {
		t.Fatalf("unexpected file type: %q", fileType)
	}
	want := "Section 1. Term of Lease\nThe tenant shall pay rent monthly."
	if text != want {
		t.Fatalf("unexpected text:\ngot=%q\nwant=%q", text, want)
	}
}

func TestExtractDocxNotAZip(t *testing.T) {
	t.Parallel()
	svc := NewExtractService(logger.NewNop())

	_, _, err := svc.Extract(context.Background(), strings.NewReader("not a zip"), docxMIME)
	if err == nil {
		t.Fatal("expected error for corrupt docx")
	}
}

func TestExtractPDFText(t *testing.T) {
	t.Parallel()
	svc := NewExtractService(logger.NewNop())

	data := buildTestPDF(2, []pdfTextItem{
		{page: 0, x: 100, y: 700, text: "Indemnification Clause"},
		{page: 1, x: 100, y: 700, text: "Termination"},
	})

	text, fileType, err := svc.Extract(context.Background(), bytes.NewReader(data), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileType != types.FileTypePDF {
		t.Fatalf("unexpected file type: %q", fileType)
	}
	if !strings.Contains(text, "Indemnification Clause") {
		t.Fatalf("page 1 text missing from extraction: %q", text)
	}
	if !strings.Contains(text, "Termination") {
		t.Fatalf("page 2 text missing from extraction: %q", text)
	}
}
