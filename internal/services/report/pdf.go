// -----------------------------------------------------------------------
// PDF rendering - Markdown report to PDF via goldmark AST + fpdf
// -----------------------------------------------------------------------

package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// RenderPDF converts the assembled Markdown report to PDF bytes by
// walking the goldmark AST into an fpdf document.
func RenderPDF(markdown string, logger arbor.ILogger) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	r := &renderer{pdf: pdf, source: source, size: 9}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, fmt.Errorf("failed to walk report markup: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to emit PDF: %w", err)
	}

	logger.Debug().Int("bytes", buf.Len()).Msg("Report PDF rendered")
	return buf.Bytes(), nil
}

// renderer carries the drawing state across the AST walk.
type renderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	size   float64
	bold   bool
	italic bool
	inList bool
	depth  int
}

func (r *renderer) bodyFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont("Arial", style, r.size)
}

func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		r.heading(node, entering)
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(5, string(node.Text(r.source)))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.bodyFont()
	case *ast.CodeSpan:
		return r.codeSpan(node, entering)
	case *ast.Blockquote:
		r.blockquote(entering)
	case *ast.List:
		r.list(entering)
	case *ast.ListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(14 + float64(r.depth)*4)
			r.pdf.Write(5, "- ")
		}
	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(3)
			r.pdf.Line(12, r.pdf.GetY(), 198, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	case *extast.Table:
		if entering {
			r.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *renderer) heading(n *ast.Heading, entering bool) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 15
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.pdf.SetFont("Arial", "B", size)
		return
	}
	r.pdf.Ln(7)
	r.bodyFont()
}

func (r *renderer) codeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.bodyFont()
		return ast.WalkContinue, nil
	}
	r.pdf.SetFont("Courier", "", r.size)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			r.pdf.Write(5, string(t.Segment.Value(r.source)))
		}
	}
	return ast.WalkSkipChildren, nil
}

func (r *renderer) blockquote(entering bool) {
	if entering {
		r.pdf.Ln(2)
		r.pdf.SetTextColor(120, 40, 40)
		r.pdf.SetX(16)
		return
	}
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Ln(2)
}

func (r *renderer) list(entering bool) {
	if entering {
		r.inList = true
		r.depth++
		return
	}
	r.depth--
	if r.depth == 0 {
		r.inList = false
		r.pdf.Ln(6)
	}
}

// table draws a bordered grid. Column widths follow measured content,
// clamped so one verbose rationale cannot squeeze out the rest.
func (r *renderer) table(n *extast.Table) {
	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *extast.TableRow:
				rows = append(rows, r.cells(c))
			case *extast.TableHeader:
				collect(c)
			}
		}
	}
	collect(n)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	cols := len(rows[0])
	fontSize := 7.5
	lineHeight := 3.8
	widths := r.columnWidths(rows, cols, 186.0, fontSize)

	r.pdf.Ln(2)
	for i, row := range rows {
		header := i == 0
		if header {
			r.pdf.SetFont("Arial", "B", fontSize)
			r.pdf.SetFillColor(232, 232, 232)
		} else {
			r.pdf.SetFont("Arial", "", fontSize)
			r.pdf.SetFillColor(255, 255, 255)
		}

		lines := make([][]string, cols)
		rowLines := 1
		for j := 0; j < cols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			lines[j] = r.wrap(cell, widths[j]-2)
			if len(lines[j]) > rowLines {
				rowLines = len(lines[j])
			}
		}
		if rowLines > 6 {
			rowLines = 6
		}
		rowHeight := float64(rowLines)*lineHeight + 2

		startY := r.pdf.GetY()
		if startY+rowHeight > 285 {
			r.pdf.AddPage()
			startY = r.pdf.GetY()
		}

		x := 12.0
		for j := 0; j < cols; j++ {
			if header {
				r.pdf.Rect(x, startY, widths[j], rowHeight, "FD")
			} else {
				r.pdf.Rect(x, startY, widths[j], rowHeight, "D")
			}
			r.pdf.SetXY(x+1, startY+1)
			for k := 0; k < len(lines[j]) && k < rowLines; k++ {
				r.pdf.CellFormat(widths[j]-2, lineHeight, lines[j][k], "", 2, "L", false, 0, "")
			}
			x += widths[j]
		}
		r.pdf.SetXY(12, startY+rowHeight)
	}
	r.pdf.Ln(3)
	r.bodyFont()
}

func (r *renderer) cells(n *extast.TableRow) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, string(cell.Text(r.source)))
		}
	}
	return row
}

// columnWidths measures every cell and scales the result to the page
// width, with a floor so narrow columns stay legible.
func (r *renderer) columnWidths(rows [][]string, cols int, pageWidth, fontSize float64) []float64 {
	widths := make([]float64, cols)
	r.pdf.SetFont("Arial", "B", fontSize)
	for _, row := range rows {
		for j, cell := range row {
			if j >= cols {
				break
			}
			if w := r.pdf.GetStringWidth(cell) + 4; w > widths[j] {
				widths[j] = w
			}
		}
	}

	const minWidth = 14.0
	maxWidth := pageWidth / 2
	total := 0.0
	for j := range widths {
		if widths[j] < minWidth {
			widths[j] = minWidth
		}
		if widths[j] > maxWidth {
			widths[j] = maxWidth
		}
		total += widths[j]
	}

	scale := pageWidth / total
	for j := range widths {
		widths[j] *= scale
	}
	return widths
}

// wrap splits cell text into lines that fit the column width at the
// current font.
func (r *renderer) wrap(cell string, width float64) []string {
	words := strings.Fields(cell)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if r.pdf.GetStringWidth(current+" "+word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
