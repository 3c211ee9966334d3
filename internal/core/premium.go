package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PremiumCalculator computes one company quote from a quotation and an
// insurer. All arithmetic runs on decimals; every premium figure is rounded
// to two places before it leaves the calculator. Pure aside from the clock.
type PremiumCalculator struct {
	table RatingTable
	clock func() time.Time
}

func NewPremiumCalculator(table RatingTable) *PremiumCalculator {
	return &PremiumCalculator{table: table, clock: time.Now}
}

// Quote prices the quotation against one insurer. Unknown company names rate
// at the default factor and unknown add-ons contribute zero; malformed rate
// overrides fall back to the table defaults. There are no error conditions.
func (c *PremiumCalculator) Quote(q Quotation, company InsuranceCompany) CompanyQuote {
	factor := c.table.Factor(company.Name)
	idv := decimal.NewFromFloat(q.TotalIDV)

	age := c.clock().Year() - q.Vehicle.ManufacturingYear
	baseRate := c.table.BaseODRate(age)

	basicOD := idv.Mul(baseRate).Div(hundred).Mul(factor).Round(2)

	cngLPG := decimal.Zero
	if (q.Vehicle.FuelType == "CNG" || q.Vehicle.FuelType == "Hybrid") && q.IDV.CNGLPGKit > 0 {
		kit := decimal.NewFromFloat(q.IDV.CNGLPGKit)
		cngLPG = kit.Mul(c.table.CNGLPGRate).Mul(factor).Round(2)
	}

	totalOD := basicOD.Add(cngLPG).Round(2)

	breakup, totalAddon := c.addonBreakup(q.Addons, idv, factor, company)

	net := totalOD.Add(totalAddon)
	sgst := net.Mul(c.table.GSTHalfRate).Round(2)
	cgst := net.Mul(c.table.GSTHalfRate).Round(2)
	total := net.Add(sgst).Add(cgst)

	rsa := c.table.RoadsideAssistance
	final := total.Add(rsa)

	return CompanyQuote{
		QuotationID:        q.ID,
		CompanyID:          company.ID,
		BasicODPremium:     f64(basicOD),
		CNGLPGPremium:      f64(cngLPG),
		TotalODPremium:     f64(totalOD),
		AddonBreakup:       breakup,
		TotalAddonPremium:  f64(totalAddon),
		NetPremium:         f64(net),
		SGST:               f64(sgst),
		CGST:               f64(cgst),
		TotalPremium:       f64(total),
		RoadsideAssistance: f64(rsa),
		FinalPremium:       f64(final),
	}
}

// addonBreakup prices each selected add-on, keeping only strictly positive
// amounts. Each entry is rounded individually; the total is the rounded sum
// of the breakdown values, so a repeated add-on name is priced once.
func (c *PremiumCalculator) addonBreakup(addons []string, idv, factor decimal.Decimal, company InsuranceCompany) (map[string]float64, decimal.Decimal) {
	total := decimal.Zero
	var breakup map[string]float64

	for _, name := range addons {
		rule, ok := c.table.AddonRules[name]
		if !ok {
			continue
		}
		if _, priced := breakup[name]; priced {
			continue
		}

		var amount decimal.Decimal
		if rule.FlatAmount.IsPositive() {
			amount = rule.FlatAmount.Mul(factor).Round(2)
		} else {
			rate := rule.RatePercent
			if rule.OverrideKey != "" {
				if override, ok := company.AddonRates[rule.OverrideKey]; ok && override > 0 {
					rate = decimal.NewFromFloat(override)
				}
			}
			amount = idv.Mul(rate).Div(hundred).Mul(factor).Round(2)
		}

		if !amount.IsPositive() {
			continue
		}
		if breakup == nil {
			breakup = make(map[string]float64)
		}
		breakup[name] = f64(amount)
		total = total.Add(amount)
	}

	return breakup, total.Round(2)
}

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
