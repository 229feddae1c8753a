package extract

import (
	"regexp"
	"strings"
)

var (
	reSizeLine      = regexp.MustCompile(`(?im)^[ \t]*størrelser?[ \t]*[:\-–][ \t]*(.+)$`)
	reSizeLineSpace = regexp.MustCompile(`(?im)^[ \t]*størrelser?[ \t]+(.+)$`)
	reSizeList      = regexp.MustCompile(`[,/]`)
)

// ExtractSizes finds the size declaration line ("Størrelser: XS, S, M") and
// returns its labels in declared order. Unit noise such as "cm" or "år" is
// discarded and duplicates keep their first position. A missing or empty
// declaration yields nil; callers treat that as "sizes unknown".
func ExtractSizes(text string, opts Options) []string {
	m := reSizeLine.FindStringSubmatch(text)
	if m == nil {
		m = reSizeLineSpace.FindStringSubmatch(text)
	}
	if m == nil {
		return nil
	}
	rest := strings.TrimSpace(m[1])

	var raw []string
	if reSizeList.MatchString(rest) {
		raw = reSizeList.Split(rest, -1)
	} else {
		// "XS (S) M (L) XL": whitespace separated, alternates in parentheses.
		for _, f := range strings.Fields(rest) {
			raw = append(raw, strings.Trim(f, "()"))
		}
	}

	noise := make(map[string]bool, len(opts.UnitNoise))
	for _, u := range opts.UnitNoise {
		noise[strings.ToLower(u)] = true
	}

	var sizes []string
	seen := make(map[string]bool)
	for _, tok := range raw {
		fields := strings.Fields(strings.TrimRight(strings.TrimSpace(tok), ".;"))
		for len(fields) > 0 && noise[strings.ToLower(fields[len(fields)-1])] {
			fields = fields[:len(fields)-1]
		}
		label := strings.Join(fields, " ")
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		sizes = append(sizes, label)
	}
	return sizes
}
