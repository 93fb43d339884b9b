package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/coverscan/internal/model"
	"golang.org/x/net/html"
)

// CSS selectors for the country page layout
const (
	policyRowSelector  = ".info-table .table--desktop .row"
	buyerLabelSelector = "div.cell.vert-head"
	policyCellSelector = "div.cell"
	riskActiveSelector = "div.barometer-item--active"
)

// PeriodWidth is the share of the table width (in percent) one period column occupies
const PeriodWidth = 20

// WidthError reports a policy cell whose width could not be read
type WidthError struct {
	Buyer model.Buyer
	Cell  int    // Index among the row's policy cells
	Style string // Raw style attribute
	Err   error
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("%s row, cell %d: invalid width in style %q: %v", e.Buyer, e.Cell, e.Style, e.Err)
}

func (e *WidthError) Unwrap() error {
	return e.Err
}

// UnknownBuyerError reports a table row whose label is not a known buyer category
type UnknownBuyerError struct {
	Label string
}

func (e *UnknownBuyerError) Error() string {
	return fmt.Sprintf("unknown buyer category %q", e.Label)
}

// Result is everything extracted from one country page
type Result struct {
	RiskClassification string
	Grid               model.PolicyGrid
}

// PolicyExtractor turns a country page into a risk classification and policy grid
type PolicyExtractor struct{}

// NewPolicyExtractor creates a new policy extractor
func NewPolicyExtractor() *PolicyExtractor {
	return &PolicyExtractor{}
}

// Extract parses raw HTML and extracts the country page content
func (e *PolicyExtractor) Extract(htmlContent string) (*Result, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return e.ExtractDocument(goquery.NewDocumentFromNode(root))
}

// ExtractDocument extracts from an already parsed document. Cells not covered by
// any table cell keep model.NoDataAvailable.
func (e *PolicyExtractor) ExtractDocument(doc *goquery.Document) (*Result, error) {
	result := &Result{
		RiskClassification: riskClassification(doc),
		Grid:               model.NewPolicyGrid(),
	}

	var rowErr error
	doc.Find(policyRowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		rowErr = fillRow(&result.Grid, row)
		return rowErr == nil
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return result, nil
}

func riskClassification(doc *goquery.Document) string {
	active := doc.Find(riskActiveSelector).First()
	if active.Length() == 0 {
		return model.NotRated
	}
	return strings.TrimSpace(active.Text())
}

// fillRow assigns each policy cell to the periods it spans. A cell of width w covers
// ceil(w/PeriodWidth) consecutive periods, starting at the first one not yet taken.
func fillRow(grid *model.PolicyGrid, row *goquery.Selection) error {
	label := strings.TrimSpace(row.Find(buyerLabelSelector).First().Text())
	buyer, ok := model.ParseBuyer(label)
	if !ok {
		return &UnknownBuyerError{Label: label}
	}

	// The first div.cell is the label itself
	cells := row.Find(policyCellSelector).Slice(1, goquery.ToEnd)

	// Widths are read up front so a bad cell fails the row before anything is assigned
	widths := make([]int, cells.Length())
	var widthErr error
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		style, _ := cell.Attr("style")
		w, err := parseWidth(style)
		if err != nil {
			widthErr = &WidthError{Buyer: buyer, Cell: i, Style: style, Err: err}
			return false
		}
		widths[i] = w
		return true
	})
	if widthErr != nil {
		return widthErr
	}

	next := 0
	cells.Each(func(i int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		for budget := widths[i]; budget > 0 && next < model.PeriodCount; budget -= PeriodWidth {
			grid.Set(buyer, model.Periods[next], text)
			next++
		}
	})

	return nil
}

// parseWidth reads the percentage out of a style attribute such as "width: 40%".
// Only the width declaration is considered.
func parseWidth(style string) (int, error) {
	if strings.TrimSpace(style) == "" {
		return 0, fmt.Errorf("missing style attribute")
	}

	for _, decl := range strings.Split(style, ";") {
		prop, value, found := strings.Cut(decl, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(prop), "width") {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
		w, err := strconv.Atoi(value)
		if err != nil {
			return 0, err
		}
		return w, nil
	}

	return 0, fmt.Errorf("no width declaration")
}
