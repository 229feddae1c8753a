package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// A run is one or more integers, each optionally followed by a parenthesised
// comma separated group of alternates: "44 (43) 46 (45) 47", "4 (7, 9) 11".
// Runs never cross a line break.
const (
	altGroup = `\([ \t]*\d+(?:[ \t]*,[ \t]*\d+)*[ \t]*\)`
	numRun   = `\d+(?:[ \t]*` + altGroup + `)?(?:[ \t]+\d+(?:[ \t]*` + altGroup + `)?)*`
)

var (
	reMeasurementRun = regexp.MustCompile(`(` + numRun + `)[ \t]*(cm|mm|meter|m|g)\b`)
	reCountRun       = regexp.MustCompile(numRun)
	reInteger        = regexp.MustCompile(`\d+`)
)

// SequenceKind tells a measurement run (followed by a unit) from a bare
// stitch or row count run.
type SequenceKind int

const (
	SequenceMeasurement SequenceKind = iota
	SequenceCount
)

func (k SequenceKind) String() string {
	if k == SequenceMeasurement {
		return "measurement"
	}
	return "count"
}

// replacement is the text written in place of an accepted run.
func (k SequenceKind) replacement(p domain.Placeholder, unit string) string {
	if k == SequenceMeasurement {
		return p.Token() + " " + unit
	}
	return p.Token()
}

type sequence struct {
	kind       SequenceKind
	start, end int // byte span replaced in the body, unit included
	unit       string
	ints       []int
}

// ValueResult is the outcome of size-specific value extraction for one step.
type ValueResult struct {
	Text   string
	Values []domain.SizeSpecificValue
	// Next is the first placeholder index not used by this step.
	Next int
	// Underfilled counts runs left literal because they held fewer
	// integers than declared sizes.
	Underfilled int
}

// ExtractValues replaces every numeric run in body that carries at least one
// integer per declared size with a fresh {count_N} placeholder, starting at
// N=0, and binds the first len(sizes) integers positionally. Runs with fewer
// integers are left untouched. With no declared sizes nothing is replaced.
func ExtractValues(body string, sizes []string) ValueResult {
	return ExtractValuesFrom(body, sizes, 0)
}

// ExtractValuesFrom is ExtractValues with an explicit first placeholder index.
func ExtractValuesFrom(body string, sizes []string, next int) ValueResult {
	body = NormalizeText(body)
	res := ValueResult{Text: body, Next: next}
	if len(sizes) == 0 {
		return res
	}

	seqs := scanSequences(body)

	var b strings.Builder
	b.Grow(len(body))
	pos := 0
	for _, s := range seqs {
		if len(s.ints) < len(sizes) {
			res.Underfilled++
			continue
		}
		p := domain.IndexedPlaceholder(res.Next)
		res.Next++

		binding := make(domain.SizeBinding, len(sizes))
		for i, size := range sizes {
			binding[size] = float64(s.ints[i])
		}
		res.Values = append(res.Values, domain.SizeSpecificValue{
			Placeholder: p.Token(),
			Values:      binding,
		})

		b.WriteString(body[pos:s.start])
		b.WriteString(s.kind.replacement(p, s.unit))
		pos = s.end
	}
	b.WriteString(body[pos:])
	res.Text = b.String()
	return res
}

// scanSequences finds measurement runs first and then count runs in the
// gaps between them, returning all of them in text order.
func scanSequences(text string) []sequence {
	var seqs []sequence
	for _, loc := range findRuns(reMeasurementRun, text, 0, len(text)) {
		seqs = append(seqs, sequence{
			kind:  SequenceMeasurement,
			start: loc[0],
			end:   loc[1],
			unit:  text[loc[4]:loc[5]],
			ints:  integers(text[loc[2]:loc[3]]),
		})
	}

	gaps := make([]sequence, 0, len(seqs))
	from := 0
	for _, m := range append(seqs, sequence{start: len(text), end: len(text)}) {
		for _, loc := range findRuns(reCountRun, text, from, m.start) {
			gaps = append(gaps, sequence{
				kind:  SequenceCount,
				start: loc[0],
				end:   loc[1],
				ints:  integers(text[loc[0]:loc[1]]),
			})
		}
		from = m.end
	}

	seqs = append(seqs, gaps...)
	sort.Slice(seqs, func(i, j int) bool { return seqs[i].start < seqs[j].start })
	return seqs
}

// findRuns returns submatch locations of re inside text[from:to], with
// offsets relative to text. A run glued to a word, a decimal ("3.5") or a
// range ("2-3") is rejected; scanning resumes after its first number so a
// genuine run later in the same stretch is still found.
func findRuns(re *regexp.Regexp, text string, from, to int) [][]int {
	var out [][]int
	pos := from
	for pos < to {
		loc := re.FindStringSubmatchIndex(text[pos:to])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		if !boundaryBefore(text, loc[0]) {
			pos = loc[0] + leadingDigits(text[loc[0]:])
			continue
		}
		if !boundaryAfter(text, loc[1]) {
			pos = loc[1]
			continue
		}
		out = append(out, loc)
		pos = loc[1]
	}
	return out
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	switch r {
	case '_', '.', ',', '-', '–', '/', '{', '[':
		return false
	}
	return true
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		return false
	}
	switch r {
	case '.', ',', '-', '–', '/':
		next, _ := utf8.DecodeRuneInString(text[i+size:])
		return !unicode.IsDigit(next)
	}
	return true
}

func leadingDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

func integers(s string) []int {
	matches := reInteger.FindAllString(s, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
