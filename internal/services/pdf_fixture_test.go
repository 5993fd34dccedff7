package services

import (
	"bytes"
	"fmt"
)

// pdfTextItem places one string at known coordinates on a page.
type pdfTextItem struct {
	page int // zero-based
	x    float64
	y    float64
	text string
}

// buildTestPDF assembles a minimal uncompressed PDF with the given text
// placements. Offsets in the xref table are computed while writing, so the
// output is a structurally valid document rather than a hand-tuned blob.
func buildTestPDF(pageCount int, items []pdfTextItem) []byte {
	type object struct {
		num  int
		body string
	}

	var objects []object
	addObject := func(body string) int {
		num := len(objects) + 1
		objects = append(objects, object{num: num, body: body})
		return num
	}

	// Object layout: catalog, pages, font, then per page a page object and
	// a content object.
	catalogNum := addObject("") // body filled once page tree number is known
	pagesNum := addObject("")
	fontNum := addObject(`<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>`)

	pageNums := make([]int, 0, pageCount)
	for p := 0; p < pageCount; p++ {
		var content bytes.Buffer
		for _, it := range items {
			if it.page != p {
				continue
			}
			fmt.Fprintf(&content, "BT /F1 12 Tf %.2f %.2f Td (%s) Tj ET\n", it.x, it.y, it.text)
		}
		contentNum := addObject(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()))
		pageNum := addObject(fmt.Sprintf(
			`<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>`,
			pagesNum, fontNum, contentNum,
		))
		pageNums = append(pageNums, pageNum)
	}

	kids := ""
	for i, n := range pageNums {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", n)
	}
	objects[catalogNum-1].body = fmt.Sprintf(`<< /Type /Catalog /Pages %d 0 R >>`, pagesNum)
	objects[pagesNum-1].body = fmt.Sprintf(`<< /Type /Pages /Kids [%s] /Count %d >>`, kids, len(pageNums))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for _, obj := range objects {
		offsets[obj.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", obj.num, obj.body)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[i], 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalogNum, xrefStart)

	return buf.Bytes()
}
