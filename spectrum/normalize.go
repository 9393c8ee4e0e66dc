package spectrum

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLineLength = 1024 * 1024

// newLineScanner strips a leading byte order mark and splits the input into lines.
func newLineScanner(r io.Reader) *bufio.Scanner {
	tr := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	scanner := bufio.NewScanner(tr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return scanner
}

// headerText converts a free-text header line to UTF-8. Detector software
// on Windows writes these in the ANSI code page.
func headerText(line string) string {
	line = strings.TrimRight(line, " \t\r")
	if utf8.ValidString(line) {
		return line
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(line)
	if err != nil {
		return strings.ToValidUTF8(line, "?")
	}
	return decoded
}

// NormalizeLabel folds a nuclide label for lookups: NFKC, trimmed, lower case,
// with spaces and underscores treated like hyphens.
func NormalizeLabel(label string) string {
	normed := norm.NFKC.String(label)
	normed = strings.TrimSpace(strings.ToLower(normed))
	normed = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '‐', '‑', '‒', '–', '−':
			return '-'
		}
		return r
	}, normed)
	return normed
}
