package service_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/service"
	"github.com/xuri/excelize/v2"
)

func TestSizeChart(t *testing.T) {
	doc := testDocument()
	doc.Measurements = map[string]domain.SizeBinding{"Overvidde": {"S": 90, "M": 100}}

	data, err := service.SizeChart(doc)
	if err != nil {
		t.Fatalf("SizeChart: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Størrelser")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := [][]string{
		{"Verdi", "S", "M", "L"},
		{"Halskant {count_0}", "96", "104", "112"},
		{"Bærestykke [bærestykke]", "240", "260", "280"},
		{"Garnmengde (g)", "300", "350", "400"},
		{"Overvidde (cm)", "90", "100"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %v", len(want), len(rows), rows)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d: got %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestPrintHTML(t *testing.T) {
	doc := testDocument()
	doc.Title = "Genser <script>"
	doc.Steps[2].Description = "Fest tråder <b>godt</b>."

	out, err := service.PrintHTML(doc, "M")
	if err != nil {
		t.Fatalf("PrintHTML: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<title>Genser &lt;script&gt; (M)</title>",
		"<h2>Halskant</h2>",
		"Legg opp 104 masker på pinne 3.",
		"Øk til 260 masker.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<b>godt</b>") || strings.Contains(html, "<script>") {
		t.Fatalf("raw HTML leaked into output:\n%s", html)
	}
}
