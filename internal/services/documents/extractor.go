// -----------------------------------------------------------------------
// PDF Extractor - Text extraction from filing PDFs via pdfcpu
// -----------------------------------------------------------------------

package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
)

// Extractor implements PDF text extraction using pdfcpu. Content
// streams with simple encodings decode to readable text; exotic font
// embeddings degrade to empty pages, which the figure extraction
// upstream reports as unavailable rather than wrong.
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a PDF extractor with a scratch directory under
// the system temp dir.
func NewExtractor(logger arbor.ILogger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "onestock-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// PageCount returns the number of pages without extracting text.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// ExtractText extracts the full text of the PDF at path.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d", os.Getpid()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
				continue
			}
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = contentStreamText(content)
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text := pageTexts[pageNum]; text != "" {
			builder.WriteString(text)
			builder.WriteString("\n")
		}
	}

	text := builder.String()
	e.logger.Debug().
		Str("path", filepath.Base(path)).
		Int("pages", pageCount).
		Int("chars", len(text)).
		Msg("PDF text extracted")
	return text, nil
}

// showTextPattern matches the Tj / TJ show-text operators in a
// decoded content stream.
var showTextPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj|\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)

// literalString matches one parenthesized string inside a TJ array.
var literalString = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

// contentStreamText decodes the show-text operators of one page's
// content stream into plain text.
func contentStreamText(stream []byte) string {
	var builder strings.Builder
	for _, match := range showTextPattern.FindAllSubmatch(stream, -1) {
		if len(match[1]) > 0 {
			builder.WriteString(unescapePDFString(string(match[1])))
			builder.WriteString(" ")
			continue
		}
		// TJ arrays interleave strings with kerning numbers.
		for _, inner := range literalString.FindAllSubmatch(match[2], -1) {
			builder.WriteString(unescapePDFString(string(inner[1])))
		}
		builder.WriteString(" ")
	}
	return strings.TrimSpace(builder.String())
}

// unescapePDFString resolves the escape sequences PDF literal strings
// allow.
func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
		`\n`, "\n",
		`\r`, " ",
		`\t`, " ",
	)
	return replacer.Replace(s)
}
