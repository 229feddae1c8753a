// Package extract turns free pattern text into a structured
// domain.PatternDocument: size vocabulary, step segmentation, size-specific
// value placeholders and the auxiliary gauge, needle and yarn fields.
//
// Every function in this package is pure and works on its own input, so two
// extraction runs never share state.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var reBlankRun = regexp.MustCompile(`\n{3,}`)

// NormalizeText prepares raw acquired text for extraction. Line endings
// become LF, text is NFC composed, whitespace-only lines become empty, and
// runs of two or more blank lines collapse to one. Line breaks inside a
// paragraph are kept.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFC.String(s)

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			lines[i] = ""
		}
	}
	s = strings.Join(lines, "\n")
	return reBlankRun.ReplaceAllString(s, "\n\n")
}

// paragraphs splits normalized text into blocks separated by blank lines,
// dropping empty blocks.
func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		p = strings.Trim(p, "\n")
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
