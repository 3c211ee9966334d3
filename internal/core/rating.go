package core

import "github.com/shopspring/decimal"

// AddonRule prices one add-on cover. Exactly one of RatePercent (percentage
// of total IDV) or FlatAmount is non-zero. OverrideKey, when set, names the
// per-company rate override to consult before falling back to RatePercent.
type AddonRule struct {
	RatePercent decimal.Decimal
	FlatAmount  decimal.Decimal
	OverrideKey string
}

// ODRateBand maps a maximum vehicle age (inclusive) to a base own-damage
// rate percentage. A negative MaxAge marks the open-ended band.
type ODRateBand struct {
	MaxAge      int
	RatePercent decimal.Decimal
}

// RatingTable is the immutable pricing configuration injected into the
// premium calculator: per-insurer factors, base OD rate bands by vehicle
// age, add-on pricing rules, GST split rate and the roadside-assistance
// surcharge. Deployments may override individual values through config
// without code changes.
type RatingTable struct {
	// CompanyFactors is keyed by the insurer's exact (case-sensitive) name.
	// Unknown names rate at DefaultFactor.
	CompanyFactors map[string]decimal.Decimal
	DefaultFactor  decimal.Decimal

	// ODRateBands must be ordered by ascending MaxAge with the open-ended
	// band last.
	ODRateBands []ODRateBand

	// AddonRules is a closed table: add-on names outside it price at zero.
	AddonRules map[string]AddonRule

	// CNGLPGRate is the fraction of the CNG/LPG kit IDV charged when the
	// fuel type is CNG or Hybrid.
	CNGLPGRate decimal.Decimal

	// GSTHalfRate is applied twice, once as SGST and once as CGST.
	GSTHalfRate decimal.Decimal

	// RoadsideAssistance is a fixed surcharge added after tax. The upstream
	// rating sheets label it per-company but quote a single amount for every
	// insurer; kept constant here pending product clarification.
	RoadsideAssistance decimal.Decimal
}

// Add-on cover names accepted by the default rating table.
const (
	AddonZeroDepreciation  = "Zero Depreciation"
	AddonEngineProtection  = "Engine Protection"
	AddonRoadSideAssist    = "Road Side Assistance"
	AddonNCBProtection     = "NCB Protection"
	AddonInvoiceProtection = "Invoice Protection"
	AddonKeyReplacement    = "Key Replacement"
	AddonPersonalAccident  = "Personal Accident"
	AddonTyreProtection    = "Tyre Protection"
	AddonConsumables       = "Consumables"
)

// Override keys companies may carry in their AddonRates map.
const (
	OverrideZeroDep         = "zero_dep"
	OverrideEngineSecure    = "engine_secure"
	OverrideReturnToInvoice = "return_to_invoice"
	OverrideTyreSecure      = "tyre_secure"
	OverrideConsumables     = "consumables"
)

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultRatingTable returns the standard motor rating configuration.
func DefaultRatingTable() RatingTable {
	return RatingTable{
		CompanyFactors: map[string]decimal.Decimal{
			"TATA AIG":         pct("1.0"),
			"HDFC ERGO":        pct("0.95"),
			"ICICI Lombard":    pct("1.05"),
			"Bajaj Allianz":    pct("0.98"),
			"Reliance General": pct("0.92"),
		},
		DefaultFactor: pct("1.0"),
		ODRateBands: []ODRateBand{
			{MaxAge: 1, RatePercent: pct("1.2")},
			{MaxAge: 3, RatePercent: pct("1.8")},
			{MaxAge: 5, RatePercent: pct("2.4")},
			{MaxAge: -1, RatePercent: pct("3.0")},
		},
		AddonRules: map[string]AddonRule{
			AddonZeroDepreciation:  {RatePercent: pct("0.4"), OverrideKey: OverrideZeroDep},
			AddonEngineProtection:  {RatePercent: pct("0.1"), OverrideKey: OverrideEngineSecure},
			AddonRoadSideAssist:    {FlatAmount: pct("180")},
			AddonNCBProtection:     {RatePercent: pct("0.05")},
			AddonInvoiceProtection: {RatePercent: pct("0.23"), OverrideKey: OverrideReturnToInvoice},
			AddonKeyReplacement:    {FlatAmount: pct("425")},
			AddonPersonalAccident:  {FlatAmount: pct("450")},
			AddonTyreProtection:    {RatePercent: pct("0.18"), OverrideKey: OverrideTyreSecure},
			AddonConsumables:       {RatePercent: pct("0.06"), OverrideKey: OverrideConsumables},
		},
		CNGLPGRate:         pct("0.05"),
		GSTHalfRate:        pct("0.09"),
		RoadsideAssistance: pct("136.88"),
	}
}

// Factor resolves the rating factor for a company name. Unknown names fail
// open to the default factor so unfamiliar metadata never blocks quoting.
func (t RatingTable) Factor(companyName string) decimal.Decimal {
	if f, ok := t.CompanyFactors[companyName]; ok {
		return f
	}
	return t.DefaultFactor
}

// BaseODRate returns the own-damage rate percentage for a vehicle age.
func (t RatingTable) BaseODRate(age int) decimal.Decimal {
	for _, band := range t.ODRateBands {
		if band.MaxAge < 0 || age <= band.MaxAge {
			return band.RatePercent
		}
	}
	return decimal.Zero
}
