package extract

import (
	"strings"

	"github.com/ppiankov/coverscan/internal/model"
)

// Comparer decides whether two neighbouring period policies belong to the same group
type Comparer func(a, b string) bool

// ExactMatch merges only byte-identical policies
func ExactMatch(a, b string) bool {
	return a == b
}

// NormalizedMatch merges policies that differ only in letter case or whitespace
func NormalizedMatch(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// ComparerFor returns the comparer selected by the merge configuration
func ComparerFor(cfg model.MergeConfig) Comparer {
	if cfg.Normalize {
		return NormalizedMatch
	}
	return ExactMatch
}

// CombinePolicies renders the period policies of one buyer, collapsing each run of
// consecutive equal policies into a single group:
//
//	"Guarantees without credit & Up to 1 year: A | 1-5 years & Over 5 years: B"
//
// A nil comparer means ExactMatch. The first policy of a run is the one printed.
func CombinePolicies(policies model.PeriodPolicies, same Comparer) string {
	if same == nil {
		same = ExactMatch
	}

	var groups []string
	start := 0
	for i := 1; i <= model.PeriodCount; i++ {
		if i < model.PeriodCount && same(policies[start], policies[i]) {
			continue
		}
		groups = append(groups, formatGroup(model.Periods[start:i], policies[start]))
		start = i
	}

	return strings.Join(groups, " | ")
}

func formatGroup(periods []model.Period, policy string) string {
	names := make([]string, len(periods))
	for i, p := range periods {
		names[i] = p.String()
	}
	return strings.Join(names, " & ") + ": " + policy
}
