package core

import (
	"context"
	"fmt"
	"time"
)

// MaxAutoQuoteCompanies caps how many active insurers participate in one
// auto-generation run.
const MaxAutoQuoteCompanies = 5

// InsuranceCompany is a directory entry for an insurer we can quote against.
// Code is a small numeric identifier embedded in quote numbers.
type InsuranceCompany struct {
	ID     string `json:"id"`
	Code   int    `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`

	// AddonRates holds optional per-company overrides for percentage-rated
	// add-on covers, keyed by the rule's override key (e.g. "zero_dep",
	// "engine_secure"). Missing or non-positive entries fall back to the
	// rating table defaults.
	AddonRates map[string]float64 `json:"addon_rates,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type CompanyRepo interface {
	List(ctx context.Context) ([]InsuranceCompany, error)
	ListActive(ctx context.Context, limit int) ([]InsuranceCompany, error)
	GetByID(ctx context.Context, id string) (InsuranceCompany, error)
	UpsertByCode(ctx context.Context, c InsuranceCompany) error
}

func (c InsuranceCompany) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: missing company name", ErrValidation)
	}
	if c.Code <= 0 || c.Code > 99 {
		return fmt.Errorf("%w: company code must be between 1 and 99", ErrValidation)
	}
	return nil
}

var (
	ErrCompanyNotFound = fmt.Errorf("%w: insurance company not found", ErrNotFound)
	ErrCompanyConflict = fmt.Errorf("%w: insurance company already exists", ErrConflict)
)
