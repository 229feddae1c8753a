package domain

import (
	"encoding/json"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Difficulty is the three-level difficulty scale used by pattern designers.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Nybegynner"
	DifficultyIntermediate Difficulty = "Middels"
	DifficultyAdvanced     Difficulty = "Avansert"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// OneSize is the pseudo-size used when a pattern declares no sizes.
const OneSize = "One Size"

// SizeBinding maps a size label to the numeric value for that size.
// A binding may cover only some of the declared sizes; a missing key means
// the value is unavailable for that size.
type SizeBinding map[string]float64

// Lookup returns the value bound to size, if any.
func (b SizeBinding) Lookup(size string) (float64, bool) {
	v, ok := b[size]
	return v, ok
}

// FormatValue renders a bound value the way it appears in instructions:
// integers without a decimal part, decimals in their shortest form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Gauge is the tension swatch record. Nil fields mean the pattern text
// did not state them.
type Gauge struct {
	StitchesPer10cm *float64 `json:"stitches_per_10cm,omitempty"`
	RowsPer10cm     *float64 `json:"rows_per_10cm,omitempty"`
	NeedleSize      *string  `json:"needle_size,omitempty"`
	Technique       *string  `json:"technique,omitempty"`
}

// IsZero reports whether no gauge field is known.
func (g Gauge) IsZero() bool {
	return g.StitchesPer10cm == nil && g.RowsPer10cm == nil && g.NeedleSize == nil && g.Technique == nil
}

// Yarn describes the yarn quality a pattern is written for.
type Yarn struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// SizeSpecificValue ties one placeholder in a step description to its
// per-size values.
type SizeSpecificValue struct {
	Placeholder string      `json:"placeholder"`
	Values      SizeBinding `json:"values"`
}

// Step is one titled unit of knitting instruction.
type Step struct {
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	SizeSpecificValues []SizeSpecificValue `json:"sizeSpecificValues"`
	// VideoURL optionally links a video demonstrating the step.
	VideoURL string `json:"videoUrl,omitempty"`
}

// UnmarshalJSON accepts the legacy stitchCounts shape written by the manual
// editor ({"stitchCounts": {"Halskant": {"S": 90}}}) and folds it into
// SizeSpecificValues with bracket placeholders.
func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	var aux struct {
		plain
		StitchCounts map[string]SizeBinding `json:"stitchCounts"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Step(aux.plain)

	names := make([]string, 0, len(aux.StitchCounts))
	for name := range aux.StitchCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.SizeSpecificValues = append(s.SizeSpecificValues, SizeSpecificValue{
			Placeholder: NamedPlaceholder(name).Token(),
			Values:      aux.StitchCounts[name],
		})
	}
	return nil
}

// PatternDocument is the structured form of a knitting pattern.
type PatternDocument struct {
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Difficulty   Difficulty             `json:"difficulty"`
	Sizes        []string               `json:"sizes"`
	Gauge        Gauge                  `json:"gauge"`
	Needles      []string               `json:"needles"`
	Yarn         *Yarn                  `json:"yarn,omitempty"`
	YarnAmounts  SizeBinding            `json:"yarnAmounts,omitempty"`
	Techniques   []string               `json:"techniques,omitempty"`
	Measurements map[string]SizeBinding `json:"measurements,omitempty"`
	Steps        []Step                 `json:"steps"`
}

// EffectiveSizes returns the declared sizes, or OneSize when none were declared.
func (d *PatternDocument) EffectiveSizes() []string {
	if len(d.Sizes) == 0 {
		return []string{OneSize}
	}
	return d.Sizes
}

// HasSize reports whether size is selectable for this document.
func (d *PatternDocument) HasSize(size string) bool {
	return slices.Contains(d.EffectiveSizes(), size)
}

// Clone returns a deep copy so callers can annotate a document without
// touching the original value.
func (d *PatternDocument) Clone() *PatternDocument {
	if d == nil {
		return nil
	}
	c := *d
	c.Sizes = slices.Clone(d.Sizes)
	c.Needles = slices.Clone(d.Needles)
	c.Techniques = slices.Clone(d.Techniques)
	c.Gauge = Gauge{
		StitchesPer10cm: clonePtr(d.Gauge.StitchesPer10cm),
		RowsPer10cm:     clonePtr(d.Gauge.RowsPer10cm),
		NeedleSize:      clonePtr(d.Gauge.NeedleSize),
		Technique:       clonePtr(d.Gauge.Technique),
	}
	if d.Yarn != nil {
		y := *d.Yarn
		c.Yarn = &y
	}
	c.YarnAmounts = cloneBinding(d.YarnAmounts)
	if d.Measurements != nil {
		c.Measurements = make(map[string]SizeBinding, len(d.Measurements))
		for k, v := range d.Measurements {
			c.Measurements[k] = cloneBinding(v)
		}
	}
	c.Steps = make([]Step, len(d.Steps))
	for i, st := range d.Steps {
		c.Steps[i] = Step{Title: st.Title, Description: st.Description, VideoURL: st.VideoURL}
		for _, v := range st.SizeSpecificValues {
			c.Steps[i].SizeSpecificValues = append(c.Steps[i].SizeSpecificValues, SizeSpecificValue{
				Placeholder: v.Placeholder,
				Values:      cloneBinding(v.Values),
			})
		}
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBinding(b SizeBinding) SizeBinding {
	if b == nil {
		return nil
	}
	c := make(SizeBinding, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// PlaceholderKind distinguishes the two placeholder syntaxes.
type PlaceholderKind int

const (
	// PlaceholderIndexed is the generated {count_N} form.
	PlaceholderIndexed PlaceholderKind = iota
	// PlaceholderNamed is the hand-authored [name] form.
	PlaceholderNamed
)

// Placeholder is a parsed placeholder reference.
type Placeholder struct {
	Kind PlaceholderKind
	Name string
}

// IndexedPlaceholder returns the generated placeholder for index n.
func IndexedPlaceholder(n int) Placeholder {
	return Placeholder{Kind: PlaceholderIndexed, Name: "count_" + strconv.Itoa(n)}
}

// NamedPlaceholder returns a bracket placeholder for name.
func NamedPlaceholder(name string) Placeholder {
	return Placeholder{Kind: PlaceholderNamed, Name: name}
}

// ParsePlaceholder interprets the placeholder field of a SizeSpecificValue.
// "{x}" is indexed, "[x]" is named, and a bare word is treated as a named
// placeholder as stored by older manually authored patterns.
func ParsePlaceholder(s string) Placeholder {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch {
		case s[0] == '{' && s[len(s)-1] == '}':
			return Placeholder{Kind: PlaceholderIndexed, Name: s[1 : len(s)-1]}
		case s[0] == '[' && s[len(s)-1] == ']':
			return Placeholder{Kind: PlaceholderNamed, Name: s[1 : len(s)-1]}
		}
	}
	return Placeholder{Kind: PlaceholderNamed, Name: s}
}

// Token is the literal text that marks the placeholder inside a description.
func (p Placeholder) Token() string {
	if p.Kind == PlaceholderIndexed {
		return "{" + p.Name + "}"
	}
	return "[" + p.Name + "]"
}
