package processor

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes     = 64 * 1024
	scannedThreshold = 50 // chars per page
)

// TextLayer is what could be read from a PDF without OCR.
type TextLayer struct {
	Pages   int
	Text    string
	Scanned bool
	Err     error
}

// ExtractText reads the embedded text of a PDF. Anything unreadable is
// reported as scanned so the caller falls back to vision.
func ExtractText(data []byte) (layer TextLayer) {
	layer = TextLayer{Pages: 1, Scanned: true}
	defer func() {
		if r := recover(); r != nil {
			layer = TextLayer{Pages: 1, Scanned: true, Err: fmt.Errorf("panic during PDF read: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		layer.Err = fmt.Errorf("open PDF reader: %w", err)
		return layer
	}
	if n := reader.NumPage(); n > 1 {
		layer.Pages = n
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		layer.Err = fmt.Errorf("extract plain text: %w", err)
		return layer
	}
	raw, err := io.ReadAll(io.LimitReader(plain, maxTextBytes))
	if err != nil {
		layer.Err = fmt.Errorf("read plain text: %w", err)
		return layer
	}
	layer.Text = strings.TrimSpace(string(raw))
	layer.Scanned = isLikelyScanned(layer.Text, layer.Pages)
	return layer
}

func isLikelyScanned(text string, pages int) bool {
	if pages <= 0 {
		pages = 1
	}
	return len(text)/pages < scannedThreshold
}
