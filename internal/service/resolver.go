package service

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// reIndexedToken finds generated placeholders left in a description.
var reIndexedToken = regexp.MustCompile(`\{count_\d+\}`)

// Binding is one parsed placeholder of a step with its per-size values.
type Binding struct {
	Placeholder domain.Placeholder
	Values      domain.SizeBinding
}

// resolve substitutes the value for size into text. A binding without an
// entry for size leaves its token in place.
func (b Binding) resolve(text, size string) (string, bool) {
	v, ok := b.Values.Lookup(size)
	if !ok {
		return text, false
	}
	return strings.ReplaceAll(text, b.Placeholder.Token(), domain.FormatValue(v)), true
}

// StepBindings parses the placeholders of a step. Both the generated
// {count_N} form and the hand-authored [name] form are returned.
func StepBindings(step domain.Step) []Binding {
	out := make([]Binding, 0, len(step.SizeSpecificValues))
	for _, v := range step.SizeSpecificValues {
		p := domain.ParsePlaceholder(v.Placeholder)
		if p.Name == "" {
			continue
		}
		out = append(out, Binding{Placeholder: p, Values: v.Values})
	}
	return out
}

// RenderedStep is a step resolved for one size.
type RenderedStep struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Size  string `json:"size"`
	// VideoURL links a video demonstrating the step, when the pattern has one.
	VideoURL string `json:"videoUrl,omitempty"`
	// Unresolved lists tokens still in Text because no value exists for Size.
	Unresolved []string `json:"unresolved,omitempty"`
}

// ResolveStep substitutes every placeholder of step with its value for size.
// Placeholders without a value for size stay visible and are reported in
// Unresolved. It never fails and never shows another size's value.
func ResolveStep(step domain.Step, size string) RenderedStep {
	text := step.Description
	var unresolved []string
	for _, b := range StepBindings(step) {
		var ok bool
		text, ok = b.resolve(text, size)
		if !ok && strings.Contains(text, b.Placeholder.Token()) {
			unresolved = append(unresolved, b.Placeholder.Token())
		}
	}
	// Generated tokens with no binding at all are unresolved too.
	for _, tok := range reIndexedToken.FindAllString(text, -1) {
		if !slices.Contains(unresolved, tok) {
			unresolved = append(unresolved, tok)
		}
	}
	return RenderedStep{Title: step.Title, Text: text, Size: size, VideoURL: step.VideoURL, Unresolved: unresolved}
}

// ResolveDocument resolves every step of doc for size.
func ResolveDocument(doc *domain.PatternDocument, size string) []RenderedStep {
	out := make([]RenderedStep, len(doc.Steps))
	for i, st := range doc.Steps {
		out[i] = ResolveStep(st, size)
		out[i].Index = i
	}
	return out
}

// RenderPatternText renders a pattern for one size as plain text: title,
// metadata, then each step under its title.
func RenderPatternText(doc *domain.PatternDocument, size string) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Størrelse: %s\n", size)
	for _, line := range metadataLines(doc, size) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, st := range ResolveDocument(doc, size) {
		b.WriteByte('\n')
		if st.Title != "" {
			b.WriteString(st.Title)
			b.WriteByte('\n')
		}
		b.WriteString(st.Text)
		b.WriteByte('\n')
		if st.VideoURL != "" {
			fmt.Fprintf(&b, "Video: %s\n", st.VideoURL)
		}
	}
	return b.String()
}

// RenderPatternMarkdown renders a pattern for one size as Markdown. Line
// breaks inside step text are kept as hard breaks.
func RenderPatternMarkdown(doc *domain.PatternDocument, size string) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	title := doc.Title
	if title == "" {
		title = "Oppskrift"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if doc.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", doc.Description)
	}
	fmt.Fprintf(&b, "- **Størrelse:** %s\n", size)
	for _, line := range metadataLines(doc, size) {
		label, value, _ := strings.Cut(line, ": ")
		fmt.Fprintf(&b, "- **%s:** %s\n", label, value)
	}
	for _, st := range ResolveDocument(doc, size) {
		b.WriteString("\n## ")
		if st.Title != "" {
			b.WriteString(st.Title)
		} else {
			fmt.Fprintf(&b, "Steg %d", st.Index+1)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.ReplaceAll(st.Text, "\n", "  \n"))
		b.WriteString("\n")
		if st.VideoURL != "" {
			fmt.Fprintf(&b, "\n[Se video](<%s>)\n", st.VideoURL)
		}
	}
	return b.String()
}

func metadataLines(doc *domain.PatternDocument, size string) []string {
	var lines []string
	lines = append(lines, "Vanskelighetsgrad: "+string(doc.Difficulty))
	if doc.Yarn != nil {
		y := doc.Yarn.Name
		if doc.Yarn.Type != "" {
			y += " (" + doc.Yarn.Type + ")"
		}
		lines = append(lines, "Garn: "+y)
	}
	if v, ok := doc.YarnAmounts.Lookup(size); ok {
		lines = append(lines, "Garnmengde: "+domain.FormatValue(v)+" g")
	}
	if len(doc.Needles) > 0 {
		lines = append(lines, "Pinner: "+strings.Join(doc.Needles, ", "))
	}
	if g := gaugeLine(doc.Gauge); g != "" {
		lines = append(lines, "Strikkefasthet: "+g)
	}
	return lines
}

func gaugeLine(g domain.Gauge) string {
	var parts []string
	if g.StitchesPer10cm != nil {
		parts = append(parts, domain.FormatValue(*g.StitchesPer10cm)+" m")
	}
	if g.RowsPer10cm != nil {
		parts = append(parts, domain.FormatValue(*g.RowsPer10cm)+" p")
	}
	s := strings.Join(parts, " og ")
	if g.Technique != nil {
		s += " i " + *g.Technique
	}
	if g.NeedleSize != nil {
		s += " på pinne " + *g.NeedleSize
	}
	s = strings.TrimSpace(s)
	if s != "" && (g.StitchesPer10cm != nil || g.RowsPer10cm != nil) {
		s += " = 10 x 10 cm"
	}
	return s
}
