package layout

import (
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// Measurer reports the rendered width of a string in millimetres.
type Measurer interface {
	StringWidth(text string, font Font) float64
}

// PDFMeasurer measures with gofpdf's core-font metrics, the same metrics
// the exporter renders with.
type PDFMeasurer struct {
	mu        sync.Mutex
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

func NewPDFMeasurer() *PDFMeasurer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	return &PDFMeasurer{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (m *PDFMeasurer) StringWidth(text string, font Font) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pdf.SetFont(font.Family, string(font.Style), font.Size)
	return m.pdf.GetStringWidth(m.translate(text))
}

// wrap breaks text into lines no wider than width. Explicit newlines are
// kept, and words wider than a line are split by rune.
func wrap(m Measurer, text string, font Font, width float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if m.StringWidth(candidate, font) <= width {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			for m.StringWidth(word, font) > width {
				head, rest := splitWord(m, word, font, width)
				lines = append(lines, head)
				word = rest
			}
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

func splitWord(m Measurer, word string, font Font, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && m.StringWidth(string(runes[:n+1]), font) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
