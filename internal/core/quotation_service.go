package core

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/brokercore/motorquote/internal/events"
	"github.com/brokercore/motorquote/internal/platform/ids"
)

type QuotationService interface {
	// Create builds the quotation aggregate. When the input carries manual
	// company quotes they are persisted verbatim, deduplicated and ranked;
	// otherwise the quotation is stored alone for later auto-generation.
	Create(ctx context.Context, in QuotationInput) (Quotation, error)

	// Get retrieves a quotation with its company quotes.
	Get(ctx context.Context, id string) (Quotation, error)

	// List returns quotations with optional filtering and pagination.
	List(ctx context.Context, filter QuotationFilter, limit, offset int) ([]Quotation, int64, error)

	// Update replaces the quotation's scalar fields and rebuilds its company
	// quotes from the new payload (delete-and-recreate, no diffing).
	Update(ctx context.Context, id string, in QuotationInput) (Quotation, error)

	// Delete removes the quotation and its company quotes.
	Delete(ctx context.Context, id string) error

	// GenerateCompanyQuotes prices the quotation against the active insurers
	// and replaces any existing company quotes with the result.
	GenerateCompanyQuotes(ctx context.Context, quotationID string) ([]CompanyQuote, error)

	// Rerank re-runs ranking over the stored company quotes and persists the
	// assignment. Idempotent.
	Rerank(ctx context.Context, quotationID string) ([]CompanyQuote, error)
}

type quotationService struct {
	quotations QuotationRepo
	companies  CompanyRepo
	calc       *PremiumCalculator
	sink       events.Publisher
	clock      func() time.Time
}

func NewQuotationService(quotations QuotationRepo, companies CompanyRepo, calc *PremiumCalculator, sink events.Publisher) QuotationService {
	return &quotationService{
		quotations: quotations,
		companies:  companies,
		calc:       calc,
		sink:       sink,
		clock:      time.Now,
	}
}

func (s *quotationService) Create(ctx context.Context, in QuotationInput) (Quotation, error) {
	// 1) validate inputs
	if err := in.Validate(); err != nil {
		return Quotation{}, err
	}

	// 2) reserve a quotation sequence number
	seq, err := s.quotations.NextQuotationSeq(ctx)
	if err != nil {
		return Quotation{}, fmt.Errorf("next quotation seq: %w", err)
	}

	// 3) build the aggregate root
	now := s.clock()
	q := s.applyInput(Quotation{
		ID:        ids.New(),
		Seq:       seq,
		CreatedBy: in.ActorID,
		CreatedAt: now,
	}, in, now)

	// 4) materialize manual company quotes, first occurrence wins on
	//    identical payloads
	if len(in.CompanyQuotes) > 0 {
		manual := dedupManualQuotes(in.CompanyQuotes)
		quotes := make([]CompanyQuote, 0, len(manual))
		for _, mq := range manual {
			quotes = append(quotes, s.manualQuote(ctx, q, mq, now))
		}
		q.Quotes = RankQuotes(quotes)
	}

	// 5) persist quotation + children as one atomic unit
	if err := s.quotations.Create(ctx, q); err != nil {
		return Quotation{}, err
	}

	// 6) signal downstream after the commit
	s.publishGenerated(q.ID, now)

	return q, nil
}

func (s *quotationService) Get(ctx context.Context, id string) (Quotation, error) {
	if id == "" {
		return Quotation{}, fmt.Errorf("%w: missing quotation ID", ErrValidation)
	}
	return s.quotations.Get(ctx, id)
}

func (s *quotationService) List(ctx context.Context, filter QuotationFilter, limit, offset int) ([]Quotation, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.quotations.List(ctx, filter, limit, offset)
}

func (s *quotationService) Update(ctx context.Context, id string, in QuotationInput) (Quotation, error) {
	if id == "" {
		return Quotation{}, fmt.Errorf("%w: missing quotation ID", ErrValidation)
	}
	if err := in.Validate(); err != nil {
		return Quotation{}, err
	}

	// 1) load current aggregate; identity and audit trail survive the update
	existing, err := s.quotations.Get(ctx, id)
	if err != nil {
		return Quotation{}, err
	}

	// 2) replace scalars and recompute total IDV
	now := s.clock()
	q := s.applyInput(existing, in, now)
	q.UpdatedBy = in.ActorID

	// 3) rebuild children from the new payload: all existing company quotes
	//    are deleted and recreated, never merged
	manual := dedupManualQuotes(in.CompanyQuotes)
	quotes := make([]CompanyQuote, 0, len(manual))
	for _, mq := range manual {
		quotes = append(quotes, s.manualQuote(ctx, q, mq, now))
	}
	q.Quotes = RankQuotes(quotes)

	// 4) one transaction covers the scalar update and the child replacement
	if err := s.quotations.Update(ctx, q); err != nil {
		return Quotation{}, err
	}

	return q, nil
}

func (s *quotationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing quotation ID", ErrValidation)
	}
	return s.quotations.Delete(ctx, id)
}

func (s *quotationService) GenerateCompanyQuotes(ctx context.Context, quotationID string) ([]CompanyQuote, error) {
	if quotationID == "" {
		return nil, fmt.Errorf("%w: missing quotation ID", ErrValidation)
	}

	// 1) load the quotation
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	// 2) pick the participating insurers
	companies, err := s.companies.ListActive(ctx, MaxAutoQuoteCompanies)
	if err != nil {
		return nil, fmt.Errorf("list active companies: %w", err)
	}
	if len(companies) == 0 {
		return nil, fmt.Errorf("%w: no active insurance companies", ErrInvalidState)
	}

	// 3) price one quote per company
	now := s.clock()
	quotes := make([]CompanyQuote, 0, len(companies))
	for _, company := range companies {
		cq := s.calc.Quote(q, company)
		cq.ID = ids.New()
		cq.QuoteNumber = quoteNumber(now, q.Seq, company.Code)
		cq.CreatedAt = now
		quotes = append(quotes, cq)
	}

	// 4) rank, then replace the child set atomically
	ranked := RankQuotes(quotes)
	if err := s.quotations.ReplaceQuotes(ctx, q.ID, ranked); err != nil {
		return nil, err
	}

	// 5) signal downstream after the commit
	s.publishGenerated(q.ID, now)

	return ranked, nil
}

func (s *quotationService) Rerank(ctx context.Context, quotationID string) ([]CompanyQuote, error) {
	q, err := s.quotations.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if len(q.Quotes) == 0 {
		return nil, nil
	}

	ranked := RankQuotes(q.Quotes)
	if err := s.quotations.UpdateQuoteRanking(ctx, q.ID, ranked); err != nil {
		return nil, err
	}
	return ranked, nil
}

// applyInput copies scalar fields from the input onto the quotation and
// recomputes the total IDV from its components.
func (s *quotationService) applyInput(q Quotation, in QuotationInput, now time.Time) Quotation {
	q.CustomerID = in.CustomerID
	q.PolicyTypeID = in.PolicyTypeID
	q.Vehicle = in.Vehicle
	q.IDV = in.IDV
	q.TotalIDV = in.IDV.Total()
	q.Addons = in.Addons
	q.NCBPercent = in.NCBPercent
	q.PreviousNCB = in.PreviousNCB
	q.ODDiscount = in.ODDiscount
	q.Remarks = in.Remarks
	// An empty status keeps whatever the quotation already has; a fresh
	// quotation defaults to pending.
	if in.Status != "" {
		q.Status = in.Status
	}
	if q.Status == "" {
		q.Status = QuotationStatusPending
	}
	q.UpdatedAt = now
	return q
}

// manualQuote builds a CompanyQuote from a caller-supplied payload. Premium
// figures are trusted verbatim; ranking and the recommended flag start at
// their zero values until RankQuotes assigns them.
func (s *quotationService) manualQuote(ctx context.Context, q Quotation, mq ManualQuoteInput, now time.Time) CompanyQuote {
	number := mq.QuoteNumber
	if number == "" {
		number = quoteNumber(now, q.Seq, s.resolveCompanyCode(ctx, mq.CompanyID))
	}
	return CompanyQuote{
		ID:                 ids.New(),
		QuotationID:        q.ID,
		CompanyID:          mq.CompanyID,
		QuoteNumber:        number,
		BasicODPremium:     mq.BasicODPremium,
		CNGLPGPremium:      mq.CNGLPGPremium,
		TotalODPremium:     mq.TotalODPremium,
		AddonBreakup:       mq.AddonBreakup,
		TotalAddonPremium:  mq.TotalAddonPremium,
		NetPremium:         mq.NetPremium,
		SGST:               mq.SGST,
		CGST:               mq.CGST,
		TotalPremium:       mq.TotalPremium,
		RoadsideAssistance: mq.RoadsideAssistance,
		FinalPremium:       mq.FinalPremium,
		Benefits:           mq.Benefits,
		Exclusions:         mq.Exclusions,
		CreatedAt:          now,
	}
}

func (s *quotationService) publishGenerated(quotationID string, now time.Time) {
	if s.sink == nil {
		return
	}
	s.sink.Publish(events.Event{
		Type:        events.TypeQuotationGenerated,
		QuotationID: quotationID,
		OccurredAt:  now,
	})
}

// dedupManualQuotes drops wholly-identical repeated company payloads,
// keeping the first occurrence. Identity is company + quote number + every
// premium figure; payloads differing in any figure are both kept.
func dedupManualQuotes(in []ManualQuoteInput) []ManualQuoteInput {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]ManualQuoteInput, 0, len(in))
	for _, mq := range in {
		key := mq.CompanyID + "|" + mq.QuoteNumber + "|" +
			premiumKey(mq.BasicODPremium, mq.CNGLPGPremium, mq.TotalODPremium,
				mq.TotalAddonPremium, mq.NetPremium, mq.SGST, mq.CGST,
				mq.TotalPremium, mq.RoadsideAssistance, mq.FinalPremium)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, mq)
	}
	return out
}

func premiumKey(figures ...float64) string {
	key := ""
	for _, f := range figures {
		key += strconv.FormatFloat(f, 'f', -1, 64) + "|"
	}
	return key
}

// quoteSuffix makes quote numbers unique under rapid successive calls: the
// wall clock alone is not enough entropy, so a process-wide counter is mixed
// in.
var quoteSuffix atomic.Uint64

func init() {
	quoteSuffix.Store(uint64(time.Now().UnixNano()))
}

// quoteNumber formats QT/{yy}/{seq:04}{company:02}{suffix:08}.
func quoteNumber(now time.Time, seq int64, companyCode int) string {
	suffix := quoteSuffix.Add(1) % 100000000
	return fmt.Sprintf("QT/%02d/%04d%02d%08d",
		now.Year()%100, seq%10000, companyCode%100, suffix)
}

// resolveCompanyCode returns the insurer's directory code for embedding in
// generated quote numbers. Unknown company IDs fall back to a hash-derived
// slot.
func (s *quotationService) resolveCompanyCode(ctx context.Context, companyID string) int {
	if s.companies != nil {
		if c, err := s.companies.GetByID(ctx, companyID); err == nil && c.Code > 0 {
			return c.Code
		}
	}
	return companyCodeFromID(companyID)
}

// companyCodeFromID derives a stable two-digit slot for manual payloads that
// reference a company by opaque ID.
func companyCodeFromID(id string) int {
	var h uint32
	for i := 0; i < len(id); i++ {
		h = h*31 + uint32(id[i])
	}
	return int(h%99) + 1
}
