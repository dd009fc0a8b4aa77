package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPDFChunkSize caps how much page text goes into one extraction call so
// a single prompt stays well inside the model's context window.
const maxPDFChunkSize = 4000

// ExtractPDFText pulls the plain text out of a PDF, one chunk per call,
// merging small pages and splitting oversized ones on paragraph boundaries.
// Pages that fail text extraction are skipped; the call fails only when no
// page yields any text.
func ExtractPDFText(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var pages []string
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", path)
	}
	return chunkTexts(pages, maxPDFChunkSize), nil
}

// chunkTexts merges consecutive texts up to limit and splits any single
// oversized text on double-newline boundaries.
func chunkTexts(texts []string, limit int) []string {
	var chunks []string
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
		}
	}

	for _, t := range texts {
		if len(t) > limit {
			flush()
			chunks = append(chunks, splitOnParagraphs(t, limit)...)
			continue
		}
		if b.Len() > 0 && b.Len()+len(t)+2 > limit {
			flush()
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t)
	}
	flush()
	return chunks
}

func splitOnParagraphs(text string, limit int) []string {
	paras := strings.Split(text, "\n\n")
	var chunks []string
	var b strings.Builder

	for _, p := range paras {
		// A single paragraph over the limit gets hard-cut.
		for len(p) > limit {
			if b.Len() > 0 {
				chunks = append(chunks, b.String())
				b.Reset()
			}
			chunks = append(chunks, p[:limit])
			p = p[limit:]
		}
		if b.Len() > 0 && b.Len()+len(p)+2 > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
