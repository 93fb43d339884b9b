package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/coverscan/internal/model"
)

// RenderSummary prints records as an aligned table. Policy groups are shown one
// per line under their row so long policies stay readable in a terminal.
func RenderSummary(w io.Writer, records []model.CountryRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "COUNTRY\tRISK\tBUYER\tPOLICY")
	for _, r := range records {
		rows := []struct {
			buyer  string
			policy string
		}{
			{model.BuyerPublic.String(), r.PublicBuyerPolicy},
			{model.BuyerPrivate.String(), r.PrivateBuyerPolicy},
			{model.BuyerBank.String(), r.BankPolicy},
		}

		for i, row := range rows {
			country, risk := r.Name, r.RiskClassification
			if i > 0 {
				country, risk = "", ""
			}
			for j, group := range strings.Split(row.policy, " | ") {
				buyer := row.buyer
				if j > 0 {
					buyer = ""
					country, risk = "", ""
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", country, risk, buyer, group)
			}
		}
	}

	return tw.Flush()
}
