package extract

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/msomdec/strikkeguide/internal/domain"
)

// Normalize tidies a document in place so it holds the invariants the
// resolver and storage rely on: trimmed unique sizes, a known difficulty,
// non-nil lists, and bindings whose keys are declared sizes and whose tokens
// occur in their step's description.
func Normalize(doc *domain.PatternDocument) {
	doc.Title = strings.TrimSpace(doc.Title)
	doc.Description = strings.TrimSpace(doc.Description)
	if !doc.Difficulty.Valid() {
		doc.Difficulty = domain.DifficultyIntermediate
	}
	doc.Sizes = uniqueTrimmed(doc.Sizes)
	doc.Needles = uniqueTrimmed(doc.Needles)
	if doc.Techniques != nil {
		doc.Techniques = uniqueTrimmed(doc.Techniques)
	}

	sizes := doc.EffectiveSizes()
	doc.YarnAmounts = restrict(doc.YarnAmounts, sizes)
	if len(doc.YarnAmounts) == 0 {
		doc.YarnAmounts = nil
	}
	for k, b := range doc.Measurements {
		if b = restrict(b, sizes); len(b) == 0 {
			delete(doc.Measurements, k)
			continue
		}
		doc.Measurements[k] = b
	}
	if len(doc.Measurements) == 0 {
		doc.Measurements = nil
	}
	if doc.Yarn != nil {
		doc.Yarn.Name = strings.TrimSpace(doc.Yarn.Name)
		doc.Yarn.Type = strings.TrimSpace(doc.Yarn.Type)
		if doc.Yarn.Name == "" {
			doc.Yarn = nil
		}
	}

	if doc.Steps == nil {
		doc.Steps = []domain.Step{}
	}
	for i := range doc.Steps {
		st := &doc.Steps[i]
		st.Title = strings.TrimSpace(st.Title)
		st.VideoURL = strings.TrimSpace(st.VideoURL)
		kept := make([]domain.SizeSpecificValue, 0, len(st.SizeSpecificValues))
		for _, v := range st.SizeSpecificValues {
			p := domain.ParsePlaceholder(v.Placeholder)
			if p.Name == "" || !strings.Contains(st.Description, p.Token()) {
				continue
			}
			v.Placeholder = p.Token()
			v.Values = restrict(v.Values, sizes)
			if len(v.Values) == 0 {
				continue
			}
			kept = append(kept, v)
		}
		st.SizeSpecificValues = kept
	}
}

// Validate lists every way doc breaks the document contract. An empty result
// means the document is valid.
func Validate(doc *domain.PatternDocument) []string {
	var problems []string
	if !doc.Difficulty.Valid() {
		problems = append(problems, fmt.Sprintf("difficulty %q is not one of Nybegynner, Middels, Avansert", doc.Difficulty))
	}
	seen := make(map[string]bool, len(doc.Sizes))
	for _, s := range doc.Sizes {
		switch {
		case strings.TrimSpace(s) == "":
			problems = append(problems, "sizes contains an empty label")
		case seen[s]:
			problems = append(problems, fmt.Sprintf("size %q is declared twice", s))
		}
		seen[s] = true
	}

	sizes := doc.EffectiveSizes()
	for i, st := range doc.Steps {
		if st.VideoURL != "" && !isWebURL(st.VideoURL) {
			problems = append(problems, fmt.Sprintf("step %d has a video link that is not an http(s) URL", i))
		}
		tokens := make(map[string]bool, len(st.SizeSpecificValues))
		for _, v := range st.SizeSpecificValues {
			p := domain.ParsePlaceholder(v.Placeholder)
			if p.Name == "" {
				problems = append(problems, fmt.Sprintf("step %d has an empty placeholder", i))
				continue
			}
			tok := p.Token()
			if tokens[tok] {
				problems = append(problems, fmt.Sprintf("step %d binds %s twice", i, tok))
			}
			tokens[tok] = true
			if !strings.Contains(st.Description, tok) {
				problems = append(problems, fmt.Sprintf("step %d binds %s but its description never uses it", i, tok))
			}
			for size := range v.Values {
				if !slices.Contains(sizes, size) {
					problems = append(problems, fmt.Sprintf("step %d binds %s for undeclared size %q", i, tok, size))
				}
			}
		}
	}
	for size := range doc.YarnAmounts {
		if !slices.Contains(sizes, size) {
			problems = append(problems, fmt.Sprintf("yarn amount for undeclared size %q", size))
		}
	}
	slices.Sort(problems)
	return problems
}

func isWebURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Check wraps Validate's problems in domain.ErrInvalidInput.
func Check(doc *domain.PatternDocument) error {
	if problems := Validate(doc); len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func uniqueTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func restrict(b domain.SizeBinding, sizes []string) domain.SizeBinding {
	if b == nil {
		return nil
	}
	out := make(domain.SizeBinding, len(b))
	for k, v := range b {
		if slices.Contains(sizes, k) {
			out[k] = v
		}
	}
	return out
}
