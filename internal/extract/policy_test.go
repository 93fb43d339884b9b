package extract

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/coverscan/internal/model"
)

// cell is one policy cell of a fixture row
type cell struct {
	style string
	text  string
}

func w(width int, text string) cell {
	return cell{style: fmt.Sprintf("width: %d%%", width), text: text}
}

func fixtureRow(label string, cells ...cell) string {
	var b strings.Builder
	b.WriteString(`<div class="row"><div class="cell vert-head">` + label + `</div>`)
	for _, c := range cells {
		fmt.Fprintf(&b, `<div class="cell" style="%s"><p>%s</p></div>`, c.style, c.text)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func fixturePage(risk string, rows ...string) string {
	barometer := `<div class="barometer"><div class="barometer-item">1</div><div class="barometer-item">2</div></div>`
	if risk != "" {
		barometer = `<div class="barometer"><div class="barometer-item">1</div><div class="barometer-item barometer-item--active">
			` + risk + `
		</div></div>`
	}
	return `<html><body>` + barometer + `
	<div class="info-table">
		<div class="table--desktop">
			<div class="header"><div class="cell">Buyer</div></div>
			` + strings.Join(rows, "\n") + `
		</div>
	</div>
	</body></html>`
}

func TestPolicyExtractor_DistinctCells(t *testing.T) {
	page := fixturePage("3",
		fixtureRow("Public buyer", w(20, "A"), w(20, "B"), w(20, "C"), w(20, "D")),
	)

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := model.PeriodPolicies{"A", "B", "C", "D"}
	if got := result.Grid.Row(model.BuyerPublic); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if result.RiskClassification != "3" {
		t.Errorf("Expected risk 3, got %q", result.RiskClassification)
	}
}

func TestPolicyExtractor_WideCellSpansPeriods(t *testing.T) {
	page := fixturePage("5",
		fixtureRow("Private buyer", w(20, "Off cover"), w(40, "Case by case"), w(20, "Open")),
	)

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	row := result.Grid.Row(model.BuyerPrivate)
	if row[model.PeriodNoCredit] != "Off cover" {
		t.Errorf("Expected first period from first cell, got %q", row[model.PeriodNoCredit])
	}
	if row[model.PeriodUpToOne] != "Case by case" || row[model.PeriodOneToFive] != "Case by case" {
		t.Errorf("Expected 40%% cell to cover exactly two periods, got %v", row)
	}
	if row[model.PeriodOverFive] != "Open" {
		t.Errorf("Expected last period from last cell, got %q", row[model.PeriodOverFive])
	}
}

func TestPolicyExtractor_FullWidthCell(t *testing.T) {
	page := fixturePage("1", fixtureRow("Bank", w(80, "Cover available")))

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, p := range model.Periods {
		if got := result.Grid.Get(model.BuyerBank, p); got != "Cover available" {
			t.Errorf("Expected %s to be covered, got %q", p, got)
		}
	}
}

func TestPolicyExtractor_ShortRowKeepsSentinel(t *testing.T) {
	page := fixturePage("4", fixtureRow("Public buyer", w(20, "A"), w(20, "B")))

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := model.PeriodPolicies{"A", "B", model.NoDataAvailable, model.NoDataAvailable}
	if got := result.Grid.Row(model.BuyerPublic); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPolicyExtractor_OverflowIgnored(t *testing.T) {
	page := fixturePage("4", fixtureRow("Bank", w(60, "A"), w(60, "B"), w(20, "C")))

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := model.PeriodPolicies{"A", "A", "A", "B"}
	if got := result.Grid.Row(model.BuyerBank); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPolicyExtractor_PartialQuantumRoundsUp(t *testing.T) {
	// 30% still covers a second period because the budget stays positive after one step
	page := fixturePage("2", fixtureRow("Bank", w(30, "A"), w(20, "B")))

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := model.PeriodPolicies{"A", "A", "B", model.NoDataAvailable}
	if got := result.Grid.Row(model.BuyerBank); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPolicyExtractor_NotRated(t *testing.T) {
	page := fixturePage("", fixtureRow("Bank", w(80, "Open")))

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.RiskClassification != model.NotRated {
		t.Errorf("Expected %q, got %q", model.NotRated, result.RiskClassification)
	}
}

func TestPolicyExtractor_NoTable(t *testing.T) {
	result, err := NewPolicyExtractor().Extract(`<html><body><p>Nothing here</p></body></html>`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Grid != model.NewPolicyGrid() {
		t.Errorf("Expected untouched grid, got %v", result.Grid)
	}
}

func TestPolicyExtractor_MobileTableIgnored(t *testing.T) {
	page := `<html><body><div class="info-table">
		<div class="table--mobile">` + fixtureRow("Bank", w(80, "Mobile")) + `</div>
		<div class="table--desktop">` + fixtureRow("Bank", w(80, "Desktop")) + `</div>
	</div></body></html>`

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := result.Grid.Get(model.BuyerBank, model.PeriodNoCredit); got != "Desktop" {
		t.Errorf("Expected desktop table to win, got %q", got)
	}
}

func TestPolicyExtractor_MalformedWidth(t *testing.T) {
	page := fixturePage("3",
		fixtureRow("Public buyer", w(20, "A"), cell{style: "width: wide", text: "B"}),
	)

	_, err := NewPolicyExtractor().Extract(page)
	if err == nil {
		t.Fatal("Expected error for malformed width")
	}

	var werr *WidthError
	if !errors.As(err, &werr) {
		t.Fatalf("Expected *WidthError, got %T: %v", err, err)
	}
	if werr.Buyer != model.BuyerPublic || werr.Cell != 1 {
		t.Errorf("Expected public buyer cell 1, got %s cell %d", werr.Buyer, werr.Cell)
	}
}

func TestPolicyExtractor_MissingStyle(t *testing.T) {
	page := fixturePage("3", fixtureRow("Bank", cell{text: "A"}))

	_, err := NewPolicyExtractor().Extract(page)
	var werr *WidthError
	if !errors.As(err, &werr) {
		t.Fatalf("Expected *WidthError, got %v", err)
	}
}

func TestPolicyExtractor_UnknownBuyer(t *testing.T) {
	page := fixturePage("3", fixtureRow("Sovereign", w(80, "A")))

	_, err := NewPolicyExtractor().Extract(page)
	var uerr *UnknownBuyerError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected *UnknownBuyerError, got %v", err)
	}
	if uerr.Label != "Sovereign" {
		t.Errorf("Expected label Sovereign, got %q", uerr.Label)
	}
}

func TestPolicyExtractor_LabelWhitespace(t *testing.T) {
	page := fixturePage("3", fixtureRow("\n  Private buyer  ", w(80, "A")))

	result, err := NewPolicyExtractor().Extract(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := result.Grid.Get(model.BuyerPrivate, model.PeriodOverFive); got != "A" {
		t.Errorf("Expected A, got %q", got)
	}
}

func TestParseWidth(t *testing.T) {
	tests := []struct {
		style   string
		want    int
		wantErr bool
	}{
		{"width: 40%", 40, false},
		{"width:20%", 20, false},
		{"width: 60%;", 60, false},
		{"color: red; width: 80%", 80, false},
		{"WIDTH: 20%", 20, false},
		{"width: 20", 20, false},
		{"width: 2o%", 0, true},
		{"width: %", 0, true},
		{"color: red", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			got, err := parseWidth(tt.style)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWidth(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseWidth(%q) = %d, want %d", tt.style, got, tt.want)
			}
		})
	}
}
