package mongo

import (
	"time"

	"github.com/brokercore/motorquote/internal/core"
)

const (
	ColQuotations    = "quotations"
	ColCompanyQuotes = "company_quotes"
	ColCompanies     = "insurance_companies"
	ColCounters      = "counters"
)

// InsuranceCompany
type CompanyDoc struct {
	ID         string             `bson:"_id"`
	Code       int                `bson:"code"` // unique index
	Name       string             `bson:"name"`
	Active     bool               `bson:"active"`
	AddonRates map[string]float64 `bson:"addon_rates,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func fromCompanyDoc(d CompanyDoc) core.InsuranceCompany {
	return core.InsuranceCompany{
		ID:         d.ID,
		Code:       d.Code,
		Name:       d.Name,
		Active:     d.Active,
		AddonRates: d.AddonRates,
		CreatedAt:  d.CreatedAt,
	}
}

func toCompanyDoc(c core.InsuranceCompany) CompanyDoc {
	return CompanyDoc{
		ID:         c.ID,
		Code:       c.Code,
		Name:       c.Name,
		Active:     c.Active,
		AddonRates: c.AddonRates,
		CreatedAt:  c.CreatedAt,
	}
}

// Quotation (children live in their own collection)
type QuotationDoc struct {
	ID           string     `bson:"_id"`
	Seq          int64      `bson:"seq"`
	CustomerID   string     `bson:"customer_id"`
	PolicyTypeID string     `bson:"policy_type_id"`
	Vehicle      VehicleDoc `bson:"vehicle"`
	IDV          IDVDoc     `bson:"idv"`
	TotalIDV     float64    `bson:"total_idv"`
	Addons       []string   `bson:"addons,omitempty"`
	NCBPercent   float64    `bson:"ncb_percent"`
	PreviousNCB  float64    `bson:"previous_ncb"`
	ODDiscount   float64    `bson:"od_discount"`
	Remarks      string     `bson:"remarks,omitempty"`
	Status       string     `bson:"status"`
	CreatedBy    string     `bson:"created_by,omitempty"`
	UpdatedBy    string     `bson:"updated_by,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

type VehicleDoc struct {
	Make              string `bson:"make,omitempty"`
	Model             string `bson:"model,omitempty"`
	Variant           string `bson:"variant,omitempty"`
	ManufacturingYear int    `bson:"manufacturing_year"`
	RegistrationYear  int    `bson:"registration_year"`
	FuelType          string `bson:"fuel_type"`
	RTOCode           string `bson:"rto_code,omitempty"`
	CubicCapacity     int    `bson:"cubic_capacity,omitempty"`
	SeatingCapacity   int    `bson:"seating_capacity,omitempty"`
}

type IDVDoc struct {
	Vehicle       float64 `bson:"vehicle"`
	Trailer       float64 `bson:"trailer"`
	CNGLPGKit     float64 `bson:"cng_lpg_kit"`
	Electrical    float64 `bson:"electrical"`
	NonElectrical float64 `bson:"non_electrical"`
}

func fromQuotationDoc(d QuotationDoc) core.Quotation {
	return core.Quotation{
		ID:           d.ID,
		Seq:          d.Seq,
		CustomerID:   d.CustomerID,
		PolicyTypeID: d.PolicyTypeID,
		Vehicle: core.VehicleDetails{
			Make:              d.Vehicle.Make,
			Model:             d.Vehicle.Model,
			Variant:           d.Vehicle.Variant,
			ManufacturingYear: d.Vehicle.ManufacturingYear,
			RegistrationYear:  d.Vehicle.RegistrationYear,
			FuelType:          d.Vehicle.FuelType,
			RTOCode:           d.Vehicle.RTOCode,
			CubicCapacity:     d.Vehicle.CubicCapacity,
			SeatingCapacity:   d.Vehicle.SeatingCapacity,
		},
		IDV: core.IDVBreakup{
			Vehicle:       d.IDV.Vehicle,
			Trailer:       d.IDV.Trailer,
			CNGLPGKit:     d.IDV.CNGLPGKit,
			Electrical:    d.IDV.Electrical,
			NonElectrical: d.IDV.NonElectrical,
		},
		TotalIDV:    d.TotalIDV,
		Addons:      d.Addons,
		NCBPercent:  d.NCBPercent,
		PreviousNCB: d.PreviousNCB,
		ODDiscount:  d.ODDiscount,
		Remarks:     d.Remarks,
		Status:      core.QuotationStatus(d.Status),
		CreatedBy:   d.CreatedBy,
		UpdatedBy:   d.UpdatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toQuotationDoc(q core.Quotation) QuotationDoc {
	return QuotationDoc{
		ID:           q.ID,
		Seq:          q.Seq,
		CustomerID:   q.CustomerID,
		PolicyTypeID: q.PolicyTypeID,
		Vehicle: VehicleDoc{
			Make:              q.Vehicle.Make,
			Model:             q.Vehicle.Model,
			Variant:           q.Vehicle.Variant,
			ManufacturingYear: q.Vehicle.ManufacturingYear,
			RegistrationYear:  q.Vehicle.RegistrationYear,
			FuelType:          q.Vehicle.FuelType,
			RTOCode:           q.Vehicle.RTOCode,
			CubicCapacity:     q.Vehicle.CubicCapacity,
			SeatingCapacity:   q.Vehicle.SeatingCapacity,
		},
		IDV: IDVDoc{
			Vehicle:       q.IDV.Vehicle,
			Trailer:       q.IDV.Trailer,
			CNGLPGKit:     q.IDV.CNGLPGKit,
			Electrical:    q.IDV.Electrical,
			NonElectrical: q.IDV.NonElectrical,
		},
		TotalIDV:    q.TotalIDV,
		Addons:      q.Addons,
		NCBPercent:  q.NCBPercent,
		PreviousNCB: q.PreviousNCB,
		ODDiscount:  q.ODDiscount,
		Remarks:     q.Remarks,
		Status:      string(q.Status),
		CreatedBy:   q.CreatedBy,
		UpdatedBy:   q.UpdatedBy,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// CompanyQuote
type CompanyQuoteDoc struct {
	ID                 string             `bson:"_id"`
	QuotationID        string             `bson:"quotation_id"`
	CompanyID          string             `bson:"company_id"`
	QuoteNumber        string             `bson:"quote_number"` // unique index
	BasicODPremium     float64            `bson:"basic_od_premium"`
	CNGLPGPremium      float64            `bson:"cng_lpg_premium"`
	TotalODPremium     float64            `bson:"total_od_premium"`
	AddonBreakup       map[string]float64 `bson:"addon_breakup,omitempty"`
	TotalAddonPremium  float64            `bson:"total_addon_premium"`
	NetPremium         float64            `bson:"net_premium"`
	SGST               float64            `bson:"sgst"`
	CGST               float64            `bson:"cgst"`
	TotalPremium       float64            `bson:"total_premium"`
	RoadsideAssistance float64            `bson:"roadside_assistance"`
	FinalPremium       float64            `bson:"final_premium"`
	Benefits           string             `bson:"benefits,omitempty"`
	Exclusions         string             `bson:"exclusions,omitempty"`
	IsRecommended      bool               `bson:"is_recommended"`
	Ranking            int                `bson:"ranking"`
	CreatedAt          time.Time          `bson:"created_at"`
}

func fromCompanyQuoteDoc(d CompanyQuoteDoc) core.CompanyQuote {
	return core.CompanyQuote{
		ID:                 d.ID,
		QuotationID:        d.QuotationID,
		CompanyID:          d.CompanyID,
		QuoteNumber:        d.QuoteNumber,
		BasicODPremium:     d.BasicODPremium,
		CNGLPGPremium:      d.CNGLPGPremium,
		TotalODPremium:     d.TotalODPremium,
		AddonBreakup:       d.AddonBreakup,
		TotalAddonPremium:  d.TotalAddonPremium,
		NetPremium:         d.NetPremium,
		SGST:               d.SGST,
		CGST:               d.CGST,
		TotalPremium:       d.TotalPremium,
		RoadsideAssistance: d.RoadsideAssistance,
		FinalPremium:       d.FinalPremium,
		Benefits:           d.Benefits,
		Exclusions:         d.Exclusions,
		IsRecommended:      d.IsRecommended,
		Ranking:            d.Ranking,
		CreatedAt:          d.CreatedAt,
	}
}

func toCompanyQuoteDoc(cq core.CompanyQuote) CompanyQuoteDoc {
	return CompanyQuoteDoc{
		ID:                 cq.ID,
		QuotationID:        cq.QuotationID,
		CompanyID:          cq.CompanyID,
		QuoteNumber:        cq.QuoteNumber,
		BasicODPremium:     cq.BasicODPremium,
		CNGLPGPremium:      cq.CNGLPGPremium,
		TotalODPremium:     cq.TotalODPremium,
		AddonBreakup:       cq.AddonBreakup,
		TotalAddonPremium:  cq.TotalAddonPremium,
		NetPremium:         cq.NetPremium,
		SGST:               cq.SGST,
		CGST:               cq.CGST,
		TotalPremium:       cq.TotalPremium,
		RoadsideAssistance: cq.RoadsideAssistance,
		FinalPremium:       cq.FinalPremium,
		Benefits:           cq.Benefits,
		Exclusions:         cq.Exclusions,
		IsRecommended:      cq.IsRecommended,
		Ranking:            cq.Ranking,
		CreatedAt:          cq.CreatedAt,
	}
}
