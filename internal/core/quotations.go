package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type QuotationStatus string

const (
	QuotationStatusPending   QuotationStatus = "pending"
	QuotationStatusSent      QuotationStatus = "sent"
	QuotationStatusConverted QuotationStatus = "converted"
)

// VehicleDetails captures the attributes of the vehicle being quoted.
type VehicleDetails struct {
	Make              string `json:"make"`
	Model             string `json:"model"`
	Variant           string `json:"variant"`
	ManufacturingYear int    `json:"manufacturing_year"`
	RegistrationYear  int    `json:"registration_year"`
	FuelType          string `json:"fuel_type"`
	RTOCode           string `json:"rto_code"`
	CubicCapacity     int    `json:"cubic_capacity"`
	SeatingCapacity   int    `json:"seating_capacity"`
}

// IDVBreakup holds the five insured-declared-value components. TotalIDV on
// the quotation is always recomputed from these, never stored independently.
type IDVBreakup struct {
	Vehicle       float64 `json:"vehicle"`
	Trailer       float64 `json:"trailer"`
	CNGLPGKit     float64 `json:"cng_lpg_kit"`
	Electrical    float64 `json:"electrical"`
	NonElectrical float64 `json:"non_electrical"`
}

// Total returns the arithmetic sum of the five components, exact to the cent.
func (b IDVBreakup) Total() float64 {
	sum := decimal.NewFromFloat(b.Vehicle).
		Add(decimal.NewFromFloat(b.Trailer)).
		Add(decimal.NewFromFloat(b.CNGLPGKit)).
		Add(decimal.NewFromFloat(b.Electrical)).
		Add(decimal.NewFromFloat(b.NonElectrical))
	f, _ := sum.Round(2).Float64()
	return f
}

// Quotation is the aggregate root: one comparative quote request with its
// per-company quote children.
type Quotation struct {
	ID           string          `json:"id"`
	Seq          int64           `json:"seq"` // numeric sequence used in quote numbers
	CustomerID   string          `json:"customer_id"`
	PolicyTypeID string          `json:"policy_type_id"`
	Vehicle      VehicleDetails  `json:"vehicle"`
	IDV          IDVBreakup      `json:"idv"`
	TotalIDV     float64         `json:"total_idv"`
	Addons       []string        `json:"addons"`
	NCBPercent   float64         `json:"ncb_percent"`
	PreviousNCB  float64         `json:"previous_ncb"`
	ODDiscount   float64         `json:"od_discount"`
	Remarks      string          `json:"remarks"`
	Status       QuotationStatus `json:"status"`
	CreatedBy    string          `json:"created_by"`
	UpdatedBy    string          `json:"updated_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Quotes []CompanyQuote `json:"quotes"`
}

// CompanyQuote is one insurer's computed (or manually supplied) quote for a
// quotation. Premium fields are rounded to 2 decimals at computation time.
type CompanyQuote struct {
	ID          string `json:"id"`
	QuotationID string `json:"quotation_id"`
	CompanyID   string `json:"company_id"`
	QuoteNumber string `json:"quote_number"`

	BasicODPremium     float64            `json:"basic_od_premium"`
	CNGLPGPremium      float64            `json:"cng_lpg_premium"`
	TotalODPremium     float64            `json:"total_od_premium"`
	AddonBreakup       map[string]float64 `json:"addon_breakup,omitempty"` // only non-zero entries
	TotalAddonPremium  float64            `json:"total_addon_premium"`
	NetPremium         float64            `json:"net_premium"`
	SGST               float64            `json:"sgst"`
	CGST               float64            `json:"cgst"`
	TotalPremium       float64            `json:"total_premium"`
	RoadsideAssistance float64            `json:"roadside_assistance"`
	FinalPremium       float64            `json:"final_premium"`

	Benefits      string    `json:"benefits,omitempty"`
	Exclusions    string    `json:"exclusions,omitempty"`
	IsRecommended bool      `json:"is_recommended"`
	Ranking       int       `json:"ranking"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuotationInput is the caller-facing payload for create and update.
type QuotationInput struct {
	CustomerID   string         `json:"customer_id"`
	PolicyTypeID string         `json:"policy_type_id"`
	Vehicle      VehicleDetails `json:"vehicle"`
	IDV          IDVBreakup     `json:"idv"`
	Addons       []string       `json:"addons,omitempty"`
	NCBPercent   float64        `json:"ncb_percent"`
	PreviousNCB  float64        `json:"previous_ncb"`
	ODDiscount   float64        `json:"od_discount"`
	Remarks      string         `json:"remarks"`
	Status       QuotationStatus `json:"status,omitempty"`
	ActorID      string          `json:"actor_id,omitempty"`

	// CompanyQuotes carries manually supplied quotes. Premium figures are
	// trusted verbatim; omitted numeric and boolean fields default to zero
	// and false.
	CompanyQuotes []ManualQuoteInput `json:"company_quotes,omitempty"`
}

// ManualQuoteInput is one caller-supplied company quote payload.
type ManualQuoteInput struct {
	CompanyID          string             `json:"company_id"`
	QuoteNumber        string             `json:"quote_number,omitempty"`
	BasicODPremium     float64            `json:"basic_od_premium"`
	CNGLPGPremium      float64            `json:"cng_lpg_premium"`
	TotalODPremium     float64            `json:"total_od_premium"`
	AddonBreakup       map[string]float64 `json:"addon_breakup,omitempty"`
	TotalAddonPremium  float64            `json:"total_addon_premium"`
	NetPremium         float64            `json:"net_premium"`
	SGST               float64            `json:"sgst"`
	CGST               float64            `json:"cgst"`
	TotalPremium       float64            `json:"total_premium"`
	RoadsideAssistance float64            `json:"roadside_assistance"`
	FinalPremium       float64            `json:"final_premium"`
	Benefits           string             `json:"benefits,omitempty"`
	Exclusions         string             `json:"exclusions,omitempty"`
}

func (in QuotationInput) Validate() error {
	if in.CustomerID == "" {
		return fmt.Errorf("%w: missing customer ID", ErrValidation)
	}
	if in.IDV.Vehicle <= 0 {
		return fmt.Errorf("%w: vehicle IDV must be > 0", ErrValidation)
	}
	if in.Vehicle.ManufacturingYear <= 0 {
		return fmt.Errorf("%w: missing manufacturing year", ErrValidation)
	}
	if in.Vehicle.RegistrationYear != 0 && in.Vehicle.RegistrationYear < in.Vehicle.ManufacturingYear {
		return fmt.Errorf("%w: registration year precedes manufacturing year", ErrValidation)
	}
	switch in.Status {
	case "", QuotationStatusPending, QuotationStatusSent, QuotationStatusConverted:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	for i, mq := range in.CompanyQuotes {
		if mq.CompanyID == "" {
			return fmt.Errorf("%w: company quote %d missing company ID", ErrValidation, i)
		}
	}
	return nil
}

type QuotationFilter struct {
	CustomerID string
	Status     QuotationStatus
}

// QuotationRepo persists quotation aggregates. Create, Update, ReplaceQuotes
// and Delete span the quotation row and all of its company-quote rows as one
// atomic unit: either every row commits or none do.
type QuotationRepo interface {
	Create(ctx context.Context, q Quotation) error
	Get(ctx context.Context, id string) (Quotation, error)
	List(ctx context.Context, filter QuotationFilter, limit, offset int) ([]Quotation, int64, error)
	Update(ctx context.Context, q Quotation) error
	Delete(ctx context.Context, id string) error

	// ReplaceQuotes deletes every existing company quote of the quotation
	// and inserts the given set in the same transaction.
	ReplaceQuotes(ctx context.Context, quotationID string, quotes []CompanyQuote) error

	// UpdateQuoteRanking persists ranking and is_recommended onto existing
	// company-quote rows.
	UpdateQuoteRanking(ctx context.Context, quotationID string, quotes []CompanyQuote) error

	// NextQuotationSeq returns the next value of the quotation number
	// sequence.
	NextQuotationSeq(ctx context.Context) (int64, error)
}

var (
	ErrQuotationNotFound = fmt.Errorf("%w: quotation not found", ErrNotFound)
	ErrQuoteConflict     = fmt.Errorf("%w: company quote already exists", ErrConflict)
)
