package extract

import "strings"

// LeadingText selects what happens to text that precedes the first header.
type LeadingText string

const (
	// LeadingDrop discards leading text. The title and description scans
	// still see it.
	LeadingDrop LeadingText = "drop"
	// LeadingFold keeps leading text as a synthetic first step.
	LeadingFold LeadingText = "fold"
)

// Valid reports whether l is a known policy.
func (l LeadingText) Valid() bool {
	return l == LeadingDrop || l == LeadingFold
}

// Options tune the deterministic pipeline. The zero value is not useful; start
// from DefaultOptions.
type Options struct {
	// Sections are known step names matched as case-insensitive prefixes.
	Sections []string
	// MetadataLabels name header blocks that describe the pattern rather
	// than instruct ("Garn:", "Strikkefasthet:"). They never become steps.
	MetadataLabels []string
	// UnitNoise lists tokens dropped from the end of a size declaration.
	UnitNoise      []string
	LeadingText    LeadingText
	LeadingTitle   string
	FallbackTitle  string
	MaxHeaderWords int
}

// DefaultOptions returns the Norwegian vocabulary used by most patterns.
func DefaultOptions() Options {
	return Options{
		Sections: []string{
			"Bærestykke", "Montering", "Ermer", "Ermene", "Halskant",
			"Vrangbord", "Ermekant", "Bol", "Forstykke", "Bakstykke",
			"Hals", "Avslutning", "Lue", "Votter",
		},
		MetadataLabels: []string{
			"Størrelse", "Størrelser", "Garn", "Garnmengde", "Garnforbruk", "Strikkefasthet",
			"Pinner", "Anbefalte pinner", "Pinneforslag", "Materialer",
			"Mål", "Plagget mål", "Teknikker", "Vanskelighetsgrad", "Nivå",
			"Beskrivelse", "Om oppskriften", "Navn", "Tittel", "Forkortelser",
		},
		UnitNoise:      []string{"cm", "mm", "år", "mnd", "str", "str."},
		LeadingText:    LeadingDrop,
		LeadingTitle:   "Innledning",
		FallbackTitle:  "Fremgangsmåte",
		MaxHeaderWords: 8,
	}
}

// IsMetadata reports whether a section title names pattern metadata.
func (o Options) IsMetadata(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, l := range o.MetadataLabels {
		if strings.EqualFold(t, l) {
			return true
		}
	}
	return false
}
