// Package pdfdoc wraps the document libraries behind the few operations the
// rest of the system needs: fingerprinting, full-text extraction, metadata,
// page counting and page rasterization.
package pdfdoc

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"

	"paperxray/internal/util"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// Fingerprint is the content hash used as the dedup uniqueness key.
func Fingerprint(b []byte) string {
	return util.SHA256Hex(b)
}

func ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

func PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf for page count: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// Metadata returns the document title and authors, falling back to the first
// text lines when the PDF carries no metadata.
func Metadata(path, text string) (title, authors string, err error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", "", fmt.Errorf("open pdf for metadata: %w", err)
	}
	defer doc.Close()

	meta := doc.Metadata()
	title = strings.TrimSpace(meta["title"])
	authors = strings.TrimSpace(meta["author"])
	if title == "" || authors == "" {
		hTitle, hAuthors := heuristicTitleAndAuthors(text)
		if title == "" {
			title = hTitle
		}
		if authors == "" {
			authors = hAuthors
		}
	}
	return title, authors, nil
}

// RenderPagePNG rasterizes one page (0-indexed) at the given DPI.
func RenderPagePNG(path string, pageNum, dpi int) ([]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf for render: %w", err)
	}
	defer doc.Close()

	if pageNum < 0 || pageNum >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (0-%d): %w", pageNum, doc.NumPage()-1, util.ErrPageOutOfRange)
	}
	img, err := doc.ImageDPI(pageNum, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageNum, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d png: %w", pageNum, err)
	}
	return buf.Bytes(), nil
}
