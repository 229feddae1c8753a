package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var reNumberedHeader = regexp.MustCompile(`^(?:\d{1,2}[.)]|\p{Lu}\))[ \t]*\p{L}`)

// Section is one segmented block of instructions before value extraction.
type Section struct {
	Title string
	Body  string
}

// Segment splits normalized text into instruction sections. A blank-line
// separated block opens a new section when its first line is a header;
// other blocks are appended to the open section. A metadata header
// ("Garn:", "Strikkefasthet:") consumes only its own block and leaves the
// open section unchanged. Blocks before the first header are dropped or
// folded into a leading section according to opts.LeadingText. Text without
// any instruction header becomes a single section titled opts.FallbackTitle.
func Segment(text string, opts Options) []Section {
	blocks := paragraphs(text)

	var (
		sections []Section
		leading  []string
		body     []string
	)
	for _, b := range blocks {
		first, rest, _ := strings.Cut(b, "\n")
		if opts.IsHeader(first) {
			title := headerTitle(first)
			if opts.IsMetadata(title) {
				continue
			}
			sections = append(sections, Section{Title: title, Body: rest})
			continue
		}
		body = append(body, b)
		if len(sections) == 0 {
			leading = append(leading, b)
			continue
		}
		last := &sections[len(sections)-1]
		last.Body = joinBlocks(last.Body, b)
	}

	if len(sections) == 0 {
		return []Section{{Title: opts.FallbackTitle, Body: strings.Join(body, "\n\n")}}
	}
	if len(leading) > 0 && opts.LeadingText == LeadingFold {
		lead := Section{Title: opts.LeadingTitle, Body: strings.Join(leading, "\n\n")}
		sections = append([]Section{lead}, sections...)
	}
	return sections
}

// IsHeader reports whether line opens a new step: it ends with a colon, is
// numbered ("3. Bol", "B) Ermer"), is written in capitals, or starts with a
// known section name. Lines longer than MaxHeaderWords are never headers.
func (o Options) IsHeader(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	if o.MaxHeaderWords > 0 && len(strings.Fields(t)) > o.MaxHeaderWords {
		return false
	}
	if strings.HasSuffix(t, ":") || reNumberedHeader.MatchString(t) || isCapitalized(t) {
		return true
	}
	lower := strings.ToLower(t)
	for _, s := range o.Sections {
		if s != "" && strings.HasPrefix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func isCapitalized(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 3
}

func headerTitle(line string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":"))
}

func joinBlocks(body, block string) string {
	if body == "" {
		return block
	}
	return body + "\n\n" + block
}
