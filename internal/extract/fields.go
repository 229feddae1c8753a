package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/msomdec/strikkeguide/internal/domain"
)

var (
	reTitleLine       = regexp.MustCompile(`(?im)^[ \t]*(?:navn|tittel)[ \t]*:[ \t]*(.+)$`)
	reDescriptionLine = regexp.MustCompile(`(?im)^[ \t]*(?:beskrivelse|om oppskriften)[ \t]*:[ \t]*(.*)$`)
	reGaugeLine       = regexp.MustCompile(`(?im)^[ \t]*strikkefasthet[ \t]*:?[ \t]*(.+)$`)
	reGaugeStitches   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)[ \t]*(?:masker|m)\b`)
	reGaugeRows       = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)[ \t]*(?:pinner|omganger|omg|rader|p)\b`)
	reGaugeNeedle     = regexp.MustCompile(`(?i)pinne(?:[ \t]*nr\.?)?[ \t]*(\d+(?:[.,]\d+)?)`)
	reGaugeTechnique  = regexp.MustCompile(`(?i)\bi[ \t]+(glattstrikk|mønsterstrikk|ribbestrikk|perlestrikk|rillestrikk|vrangbord|rundstrikk)\b`)
	reNeedleLine      = regexp.MustCompile(`(?im)^[ \t]*(?:anbefalte[ \t]+)?(?:pinner|pinne|pinneforslag|strikkepinner)[ \t]*:[ \t]*(.+)$`)
	reYarnLine        = regexp.MustCompile(`(?im)^[ \t]*(?:garn|garnkvalitet)[ \t]*:[ \t]*(.+)$`)
	reYarnAmountLine  = regexp.MustCompile(`(?im)^[ \t]*(?:garnmengde|garnforbruk)[ \t]*:?[ \t]*(.+)$`)
	reTechniquesLine  = regexp.MustCompile(`(?im)^[ \t]*teknikker[ \t]*:[ \t]*(.+)$`)
	reDifficultyLine  = regexp.MustCompile(`(?im)^[ \t]*(?:vanskelighetsgrad|nivå)[ \t]*:[ \t]*(.+)$`)
	reMeasurementLine = regexp.MustCompile(`(?im)^[ \t]*(overvidde|hel lengde|lengde|ermelengde|vidde nederst|skuldervidde|hodeomkrets)[ \t]*:?[ \t]*(.+)$`)
)

var (
	advancedTechniques = []string{"flett", "mønsterstrikk", "intarsia", "fair isle", "steek", "brioche"}
	basicTechniques    = []string{"rett", "vrang", "ribbestrikk", "glattstrikk", "rillestrikk"}
)

// Fields are the document-level values found by the labeled-line scans.
type Fields struct {
	Title        string
	Description  string
	Difficulty   domain.Difficulty
	Gauge        domain.Gauge
	Needles      []string
	Yarn         *domain.Yarn
	YarnAmounts  domain.SizeBinding
	Techniques   []string
	Measurements map[string]domain.SizeBinding
}

// ScanFields runs every auxiliary scan over the whole text. Each field is
// found independently; a missing label leaves its field absent.
func ScanFields(text string, sizes []string, opts Options) Fields {
	f := Fields{
		Title:       ExtractTitle(text, opts),
		Description: ExtractDescription(text, opts),
		Gauge:       ExtractGauge(text),
		Needles:     ExtractNeedles(text),
		Yarn:        ExtractYarn(text),
		YarnAmounts: ExtractYarnAmounts(text, sizes),
		Techniques:  ExtractTechniques(text),
	}
	f.Measurements = ExtractMeasurements(text, sizes)
	f.Difficulty = ExtractDifficulty(text, f.Techniques)
	return f
}

// ExtractTitle returns the "Navn:" label, or the first line that is neither
// a label nor a section header.
func ExtractTitle(text string, opts Options) string {
	if m := reTitleLine.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, line := range strings.Split(text, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if label, _, ok := strings.Cut(t, ":"); ok && opts.IsMetadata(label) {
			continue
		}
		return strings.TrimSuffix(t, ":")
	}
	return ""
}

// ExtractDescription returns the text after "Beskrivelse:" up to the end of
// its paragraph. Without the label it falls back to the first free paragraph
// after the title that is neither metadata nor a header.
func ExtractDescription(text string, opts Options) string {
	if loc := reDescriptionLine.FindStringSubmatchIndex(text); loc != nil {
		rest := text[loc[2]:]
		if end := strings.Index(rest, "\n\n"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	for i, b := range paragraphs(text) {
		if i == 0 {
			// The first line is the title.
			_, rest, ok := strings.Cut(b, "\n")
			if !ok {
				continue
			}
			b = rest
		}
		first, _, _ := strings.Cut(b, "\n")
		if label, _, ok := strings.Cut(first, ":"); ok && opts.IsMetadata(label) {
			continue
		}
		if reSizeLine.MatchString(first) || reSizeLineSpace.MatchString(first) {
			continue
		}
		if opts.IsHeader(first) {
			return ""
		}
		return strings.TrimSpace(b)
	}
	return ""
}

// ExtractGauge reads the tension line. "Strikkefasthet: 18 m og 24 p i
// glattstrikk på pinne 4,5 = 10 x 10 cm" yields all four fields.
func ExtractGauge(text string) domain.Gauge {
	var g domain.Gauge
	m := reGaugeLine.FindStringSubmatch(text)
	if m == nil {
		return g
	}
	line := m[1]
	if s := reGaugeStitches.FindStringSubmatch(line); s != nil {
		g.StitchesPer10cm = parseDecimal(s[1])
	}
	if r := reGaugeRows.FindStringSubmatch(line); r != nil {
		g.RowsPer10cm = parseDecimal(r[1])
	}
	if n := reGaugeNeedle.FindStringSubmatch(line); n != nil {
		v := n[1]
		g.NeedleSize = &v
	}
	if t := reGaugeTechnique.FindStringSubmatch(line); t != nil {
		v := strings.ToLower(t[1])
		g.Technique = &v
	}
	return g
}

// ExtractNeedles splits the needle line on commas outside parentheses:
// "Rundpinne 4,5 og 5,5 (40 og 80 cm), strømpepinner 5,5".
func ExtractNeedles(text string) []string {
	m := reNeedleLine.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	for _, part := range splitOutsideParens(m[1]) {
		part = strings.TrimRight(strings.TrimSpace(part), ".")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ExtractYarn reads "Garn: Drops Air (alpakka/ull)" as name and type.
func ExtractYarn(text string) *domain.Yarn {
	m := reYarnLine.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	line := strings.TrimSpace(m[1])
	name, rest, ok := strings.Cut(line, "(")
	y := &domain.Yarn{Name: strings.TrimSpace(name)}
	if ok {
		typ, _, _ := strings.Cut(rest, ")")
		y.Type = strings.TrimSpace(typ)
	}
	if y.Name == "" {
		return nil
	}
	return y
}

// ExtractYarnAmounts aligns the integers on the yarn amount line with the
// declared sizes. With fewer amounts than sizes nothing is bound.
func ExtractYarnAmounts(text string, sizes []string) domain.SizeBinding {
	m := reYarnAmountLine.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return bindPositional(integers(m[1]), sizes)
}

// ExtractTechniques returns the comma separated "Teknikker:" list.
func ExtractTechniques(text string) []string {
	m := reTechniquesLine.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var out []string
	for _, t := range strings.Split(m[1], ",") {
		t = strings.TrimRight(strings.TrimSpace(t), ".")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ExtractMeasurements collects finished garment measurements such as
// "Overvidde: 84 (92) 100 cm", keyed by capitalized label.
func ExtractMeasurements(text string, sizes []string) map[string]domain.SizeBinding {
	var out map[string]domain.SizeBinding
	for _, m := range reMeasurementLine.FindAllStringSubmatch(text, -1) {
		b := bindPositional(integers(m[2]), sizes)
		if b == nil {
			continue
		}
		if out == nil {
			out = make(map[string]domain.SizeBinding)
		}
		label := strings.ToLower(m[1])
		out[strings.ToUpper(label[:1])+label[1:]] = b
	}
	return out
}

// ExtractDifficulty reads an explicit level, otherwise infers one from the
// listed techniques. Any advanced technique gives Avansert, a list of only
// basic ones gives Nybegynner, and everything else is Middels.
func ExtractDifficulty(text string, techniques []string) domain.Difficulty {
	if m := reDifficultyLine.FindStringSubmatch(text); m != nil {
		v := strings.ToLower(m[1])
		switch {
		case strings.Contains(v, "nybegynner"), strings.Contains(v, "enkel"), strings.Contains(v, "lett"):
			return domain.DifficultyBeginner
		case strings.Contains(v, "avansert"), strings.Contains(v, "erfaren"), strings.Contains(v, "vanskelig"):
			return domain.DifficultyAdvanced
		case strings.Contains(v, "middels"):
			return domain.DifficultyIntermediate
		}
	}
	if len(techniques) == 0 {
		return domain.DifficultyIntermediate
	}
	basic := true
	for _, t := range techniques {
		lt := strings.ToLower(t)
		if containsAny(lt, advancedTechniques) {
			return domain.DifficultyAdvanced
		}
		if !containsAny(lt, basicTechniques) {
			basic = false
		}
	}
	if basic {
		return domain.DifficultyBeginner
	}
	return domain.DifficultyIntermediate
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func bindPositional(values []int, sizes []string) domain.SizeBinding {
	if len(sizes) == 0 || len(values) < len(sizes) {
		return nil
	}
	b := make(domain.SizeBinding, len(sizes))
	for i, s := range sizes {
		b[s] = float64(values[i])
	}
	return b
}

func parseDecimal(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

func splitOutsideParens(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			// "4,5" is a decimal, not a separator.
			if depth == 0 && !(i > 0 && isDigit(s[i-1]) && i+1 < len(s) && isDigit(s[i+1])) {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
