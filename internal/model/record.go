package model

// Sentinel values written into records when real data is unavailable
const (
	NoDataAvailable = "No Data Available"
	NotRated        = "Not Rated"
	CountryNotFound = "Country Not Found"
	FetchFailed     = "Fetch Failed"
)

// Output column headers, in export order
const (
	ColumnCountryName        = "Country_Name"
	ColumnRiskClassification = "Country_Risk_Classification"
	ColumnPublicBuyer        = "EIFOs_cover_policy(Public_Buyer)"
	ColumnPrivateBuyer       = "EIFOs_cover_policy(Private_Buyer)"
	ColumnBank               = "EIFOs_cover_policy(Bank)"
)

// Columns is the fixed column order of every export
var Columns = []string{
	ColumnCountryName,
	ColumnRiskClassification,
	ColumnPublicBuyer,
	ColumnPrivateBuyer,
	ColumnBank,
}

// CountryRecord is the flattened result for one requested country
type CountryRecord struct {
	Name               string `json:"Country_Name" yaml:"country_name"`
	RiskClassification string `json:"Country_Risk_Classification" yaml:"risk_classification"`
	PublicBuyerPolicy  string `json:"EIFOs_cover_policy(Public_Buyer)" yaml:"public_buyer_policy"`
	PrivateBuyerPolicy string `json:"EIFOs_cover_policy(Private_Buyer)" yaml:"private_buyer_policy"`
	BankPolicy         string `json:"EIFOs_cover_policy(Bank)" yaml:"bank_policy"`
}

// Values returns the record fields in Columns order
func (r CountryRecord) Values() []string {
	return []string{
		r.Name,
		r.RiskClassification,
		r.PublicBuyerPolicy,
		r.PrivateBuyerPolicy,
		r.BankPolicy,
	}
}

// SentinelRecord returns a record carrying the same sentinel in every data field
func SentinelRecord(name, sentinel string) CountryRecord {
	return CountryRecord{
		Name:               name,
		RiskClassification: sentinel,
		PublicBuyerPolicy:  sentinel,
		PrivateBuyerPolicy: sentinel,
		BankPolicy:         sentinel,
	}
}

// NotFoundRecord is the record emitted when the site does not know the country
func NotFoundRecord(name string) CountryRecord {
	return SentinelRecord(name, CountryNotFound)
}

// FetchFailedRecord is the record emitted when the country page could not be retrieved
func FetchFailedRecord(name string) CountryRecord {
	return SentinelRecord(name, FetchFailed)
}
