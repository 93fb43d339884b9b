package model

// Buyer is the buyer category a row of the cover-policy table applies to
type Buyer int

const (
	BuyerPublic  Buyer = iota // "Public buyer"
	BuyerPrivate              // "Private buyer"
	BuyerBank                 // "Bank"

	buyerCount = 3
)

// Buyers lists every buyer category in table order
var Buyers = [buyerCount]Buyer{BuyerPublic, BuyerPrivate, BuyerBank}

func (b Buyer) String() string {
	switch b {
	case BuyerPublic:
		return "Public buyer"
	case BuyerPrivate:
		return "Private buyer"
	case BuyerBank:
		return "Bank"
	default:
		return "unknown"
	}
}

// ParseBuyer maps a row label as printed on the site to a Buyer
func ParseBuyer(label string) (Buyer, bool) {
	for _, b := range Buyers {
		if b.String() == label {
			return b, true
		}
	}
	return 0, false
}

// Period is a credit-period column of the cover-policy table.
// Order is significant: equal neighbours are merged only when contiguous.
type Period int

const (
	PeriodNoCredit Period = iota // "Guarantees without credit"
	PeriodUpToOne                // "Up to 1 year"
	PeriodOneToFive              // "1-5 years"
	PeriodOverFive               // "Over 5 years"

	PeriodCount = 4
)

// Periods lists every period in column order
var Periods = [PeriodCount]Period{PeriodNoCredit, PeriodUpToOne, PeriodOneToFive, PeriodOverFive}

func (p Period) String() string {
	switch p {
	case PeriodNoCredit:
		return "Guarantees without credit"
	case PeriodUpToOne:
		return "Up to 1 year"
	case PeriodOneToFive:
		return "1-5 years"
	case PeriodOverFive:
		return "Over 5 years"
	default:
		return "unknown"
	}
}

// PeriodPolicies holds one policy text per period, in period order
type PeriodPolicies [PeriodCount]string

// PolicyGrid holds the policy text for every (buyer, period) pair
type PolicyGrid [buyerCount]PeriodPolicies

// NewPolicyGrid returns a grid with every cell set to NoDataAvailable
func NewPolicyGrid() PolicyGrid {
	var g PolicyGrid
	for _, b := range Buyers {
		for _, p := range Periods {
			g[b][p] = NoDataAvailable
		}
	}
	return g
}

// Get returns the policy for a buyer and period
func (g PolicyGrid) Get(b Buyer, p Period) string {
	return g[b][p]
}

// Set stores the policy for a buyer and period
func (g *PolicyGrid) Set(b Buyer, p Period, policy string) {
	g[b][p] = policy
}

// Row returns the period policies of one buyer
func (g PolicyGrid) Row(b Buyer) PeriodPolicies {
	return g[b]
}
