package interfaces

import "context"

// PDFExtractor extracts text content from downloaded filing PDFs.
type PDFExtractor interface {
	// ExtractText extracts the full text of the PDF at path.
	ExtractText(ctx context.Context, path string) (string, error)

	// PageCount returns the number of pages without extracting text.
	PageCount(ctx context.Context, path string) (int, error)
}
