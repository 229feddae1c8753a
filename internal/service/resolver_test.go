package service_test

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/extract"
	"github.com/msomdec/strikkeguide/internal/service"
)

var fiveSizes = []string{"XS", "S", "M", "L", "XL"}

func castOnStep(t *testing.T) domain.Step {
	t.Helper()
	res := extract.ExtractValues("Legg opp 44 (43) 46 (45) 47 masker på rundpinne 6 mm", fiveSizes)
	if res.Text != "Legg opp {count_0} masker på rundpinne 6 mm" {
		t.Fatalf("unexpected extraction %q", res.Text)
	}
	return domain.Step{Title: "Halskant", Description: res.Text, SizeSpecificValues: res.Values}
}

func TestResolveStep_SelectedSize(t *testing.T) {
	got := service.ResolveStep(castOnStep(t), "M")
	if got.Text != "Legg opp 46 masker på rundpinne 6 mm" {
		t.Fatalf("got %q", got.Text)
	}
	if len(got.Unresolved) != 0 {
		t.Fatalf("expected nothing unresolved, got %v", got.Unresolved)
	}
	if got.Title != "Halskant" || got.Size != "M" {
		t.Fatalf("unexpected title/size %q/%q", got.Title, got.Size)
	}
}

func TestResolveStep_SizeWithoutValue(t *testing.T) {
	step := castOnStep(t)
	got := service.ResolveStep(step, "XXL")
	if got.Text != step.Description {
		t.Fatalf("expected token left literal, got %q", got.Text)
	}
	if !slices.Equal(got.Unresolved, []string{"{count_0}"}) {
		t.Fatalf("expected {count_0} reported, got %v", got.Unresolved)
	}
}

func TestResolveStep_EverySizeRoundTrips(t *testing.T) {
	step := castOnStep(t)
	want := map[string]string{"XS": "44", "S": "43", "M": "46", "L": "45", "XL": "47"}
	for _, size := range fiveSizes {
		got := service.ResolveStep(step, size)
		if strings.Contains(got.Text, "{count_") {
			t.Fatalf("size %s: token left in %q", size, got.Text)
		}
		if got.Text != "Legg opp "+want[size]+" masker på rundpinne 6 mm" {
			t.Fatalf("size %s: got %q", size, got.Text)
		}
	}
}

func TestResolveStep_Idempotent(t *testing.T) {
	step := castOnStep(t)
	once := service.ResolveStep(step, "L")
	again := step
	again.Description = once.Text
	twice := service.ResolveStep(again, "L")
	if twice.Text != once.Text {
		t.Fatalf("second resolution changed text: %q -> %q", once.Text, twice.Text)
	}
}

func TestResolveStep_NamedPlaceholders(t *testing.T) {
	step := domain.Step{
		Description: "Øk til [bærestykke] m, fell av [arm] m under ermene.",
		SizeSpecificValues: []domain.SizeSpecificValue{
			{Placeholder: "[bærestykke]", Values: domain.SizeBinding{"S": 240, "M": 260}},
			{Placeholder: "arm", Values: domain.SizeBinding{"S": 8}},
		},
	}

	got := service.ResolveStep(step, "S")
	if got.Text != "Øk til 240 m, fell av 8 m under ermene." {
		t.Fatalf("got %q", got.Text)
	}

	got = service.ResolveStep(step, "M")
	if got.Text != "Øk til 260 m, fell av [arm] m under ermene." {
		t.Fatalf("got %q", got.Text)
	}
	if !slices.Equal(got.Unresolved, []string{"[arm]"}) {
		t.Fatalf("expected [arm] unresolved, got %v", got.Unresolved)
	}
}

func TestResolveStep_LegacyStitchCounts(t *testing.T) {
	var step domain.Step
	raw := `{"title":"Halskant","description":"Legg opp [Halskant] m.","stitchCounts":{"Halskant":{"S":90,"M":96}}}`
	if err := json.Unmarshal([]byte(raw), &step); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := service.ResolveStep(step, "M").Text; got != "Legg opp 96 m." {
		t.Fatalf("got %q", got)
	}
}

func TestResolveStep_MixedForms(t *testing.T) {
	step := domain.Step{
		Description: "Strikk {count_0} cm, så [rader] rader. Gjenta {count_1} ganger.",
		SizeSpecificValues: []domain.SizeSpecificValue{
			{Placeholder: "{count_0}", Values: domain.SizeBinding{"S": 4.5, "M": 5}},
			{Placeholder: "[rader]", Values: domain.SizeBinding{"S": 6, "M": 8}},
		},
	}
	got := service.ResolveStep(step, "S")
	if got.Text != "Strikk 4.5 cm, så 6 rader. Gjenta {count_1} ganger." {
		t.Fatalf("got %q", got.Text)
	}
	if !slices.Equal(got.Unresolved, []string{"{count_1}"}) {
		t.Fatalf("expected orphan token reported, got %v", got.Unresolved)
	}
}

func TestResolveStep_TokenPrefixes(t *testing.T) {
	step := domain.Step{
		Description: "{count_1} og {count_10}",
		SizeSpecificValues: []domain.SizeSpecificValue{
			{Placeholder: "{count_1}", Values: domain.SizeBinding{"S": 1}},
			{Placeholder: "{count_10}", Values: domain.SizeBinding{"S": 10}},
		},
	}
	if got := service.ResolveStep(step, "S").Text; got != "1 og 10" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveDocument_IndexesSteps(t *testing.T) {
	steps := service.ResolveDocument(testDocument(), "M")
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	for i, st := range steps {
		if st.Index != i {
			t.Fatalf("step %d has index %d", i, st.Index)
		}
	}
	if steps[0].Text != "Legg opp 104 masker på pinne 3." {
		t.Fatalf("got %q", steps[0].Text)
	}
	if steps[1].Text != "Øk til 260 masker." {
		t.Fatalf("got %q", steps[1].Text)
	}
}

func TestRenderPatternText(t *testing.T) {
	out := service.RenderPatternText(testDocument(), "L")
	for _, want := range []string{
		"Solsikkegenser",
		"Størrelse: L",
		"Garnmengde: 400 g",
		"Pinner: 3 mm, 3,5 mm",
		"Strikkefasthet: 22 m og 30 p = 10 x 10 cm",
		"Legg opp 112 masker på pinne 3.",
		"Øk til 280 masker.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if service.RenderPatternText(nil, "S") != "" {
		t.Fatal("nil document should render empty")
	}
}

func TestRenderPatternMarkdown(t *testing.T) {
	doc := testDocument()
	doc.Steps[2].Description = "Fest tråder.\nDamp lett."
	out := service.RenderPatternMarkdown(doc, "S")
	for _, want := range []string{
		"# Solsikkegenser",
		"- **Størrelse:** S",
		"- **Garn:** Sunday (Merinoull)",
		"## Halskant",
		"Legg opp 96 masker",
		"Fest tråder.  \nDamp lett.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRender_VideoLink(t *testing.T) {
	doc := &domain.PatternDocument{
		Title: "Votter",
		Steps: []domain.Step{{Title: "Tommel", Description: "Strikk tommelen.", VideoURL: "https://example.com/tommel"}},
	}
	if got := service.ResolveStep(doc.Steps[0], domain.OneSize).VideoURL; got != "https://example.com/tommel" {
		t.Fatalf("rendered step video = %q", got)
	}
	if text := service.RenderPatternText(doc, domain.OneSize); !strings.Contains(text, "Video: https://example.com/tommel") {
		t.Errorf("text output missing video line:\n%s", text)
	}
	if md := service.RenderPatternMarkdown(doc, domain.OneSize); !strings.Contains(md, "[Se video](<https://example.com/tommel>)") {
		t.Errorf("markdown output missing video link:\n%s", md)
	}
}
