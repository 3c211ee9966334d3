package core

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokercore/motorquote/internal/events"
)

// --- Mock implementations ---

type mockQuotationRepo struct {
	quotations map[string]Quotation
	seq        int64

	createErr  error
	replaceErr error

	rankingCalls  int
	lastRankedSet []CompanyQuote
}

func newMockQuotationRepo() *mockQuotationRepo {
	return &mockQuotationRepo{quotations: make(map[string]Quotation)}
}

func (m *mockQuotationRepo) Create(_ context.Context, q Quotation) error {
	if m.createErr != nil {
		// Simulated mid-transaction failure: nothing is stored.
		return m.createErr
	}
	m.quotations[q.ID] = q
	return nil
}

func (m *mockQuotationRepo) Get(_ context.Context, id string) (Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return Quotation{}, ErrQuotationNotFound
	}
	return q, nil
}

func (m *mockQuotationRepo) List(_ context.Context, _ QuotationFilter, _, _ int) ([]Quotation, int64, error) {
	out := make([]Quotation, 0, len(m.quotations))
	for _, q := range m.quotations {
		out = append(out, q)
	}
	return out, int64(len(out)), nil
}

func (m *mockQuotationRepo) Update(_ context.Context, q Quotation) error {
	if _, ok := m.quotations[q.ID]; !ok {
		return ErrQuotationNotFound
	}
	m.quotations[q.ID] = q
	return nil
}

func (m *mockQuotationRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.quotations[id]; !ok {
		return ErrQuotationNotFound
	}
	delete(m.quotations, id)
	return nil
}

func (m *mockQuotationRepo) ReplaceQuotes(_ context.Context, quotationID string, quotes []CompanyQuote) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	q, ok := m.quotations[quotationID]
	if !ok {
		return ErrQuotationNotFound
	}
	q.Quotes = quotes
	m.quotations[quotationID] = q
	return nil
}

func (m *mockQuotationRepo) UpdateQuoteRanking(_ context.Context, quotationID string, quotes []CompanyQuote) error {
	m.rankingCalls++
	m.lastRankedSet = quotes
	q, ok := m.quotations[quotationID]
	if !ok {
		return ErrQuotationNotFound
	}
	q.Quotes = quotes
	m.quotations[quotationID] = q
	return nil
}

func (m *mockQuotationRepo) NextQuotationSeq(_ context.Context) (int64, error) {
	m.seq++
	return m.seq, nil
}

type mockCompanyRepo struct {
	companies []InsuranceCompany
	lastLimit int
}

func (m *mockCompanyRepo) List(_ context.Context) ([]InsuranceCompany, error) {
	return m.companies, nil
}

func (m *mockCompanyRepo) ListActive(_ context.Context, limit int) ([]InsuranceCompany, error) {
	m.lastLimit = limit
	var active []InsuranceCompany
	for _, c := range m.companies {
		if !c.Active {
			continue
		}
		active = append(active, c)
		if limit > 0 && len(active) == limit {
			break
		}
	}
	return active, nil
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id string) (InsuranceCompany, error) {
	for _, c := range m.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return InsuranceCompany{}, ErrCompanyNotFound
}

func (m *mockCompanyRepo) UpsertByCode(_ context.Context, c InsuranceCompany) error {
	m.companies = append(m.companies, c)
	return nil
}

type mockSink struct {
	published []events.Event
}

func (m *mockSink) Publish(e events.Event) { m.published = append(m.published, e) }

func newTestService(repo *mockQuotationRepo, companies *mockCompanyRepo, sink *mockSink) *quotationService {
	calc := NewPremiumCalculator(DefaultRatingTable())
	calc.clock = fixedClock(2025)
	svc := NewQuotationService(repo, companies, calc, sink).(*quotationService)
	svc.clock = fixedClock(2025)
	return svc
}

func validInput() QuotationInput {
	return QuotationInput{
		CustomerID:   "cust-1",
		PolicyTypeID: "pt-motor",
		Vehicle: VehicleDetails{
			Make:              "Hyundai",
			Model:             "i20",
			ManufacturingYear: 2023,
			RegistrationYear:  2023,
			FuelType:          "Petrol",
		},
		IDV: IDVBreakup{
			Vehicle:    450000,
			CNGLPGKit:  50000,
			Electrical: 10000,
		},
		Addons:  []string{AddonRoadSideAssist},
		ActorID: "staff-7",
	}
}

var quoteNumberRe = regexp.MustCompile(`^QT/\d{2}/\d{14}$`)

// --- Tests ---

func TestQuotationService_Create(t *testing.T) {
	t.Run("computes total IDV and defaults status to pending", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

		q, err := svc.Create(context.Background(), validInput())

		require.NoError(t, err)
		assert.Equal(t, 510000.00, q.TotalIDV)
		assert.Equal(t, QuotationStatusPending, q.Status)
		assert.Equal(t, int64(1), q.Seq)
		assert.Equal(t, "staff-7", q.CreatedBy)
		assert.Empty(t, q.Quotes)

		stored, err := repo.Get(context.Background(), q.ID)
		require.NoError(t, err)
		assert.Equal(t, q.TotalIDV, stored.TotalIDV)
	})

	t.Run("persists manual company quotes verbatim and ranks them", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

		in := validInput()
		in.CompanyQuotes = []ManualQuoteInput{
			{CompanyID: "co-1", QuoteNumber: "QT/25/000101AAA", FinalPremium: 12000, NetPremium: 10000},
			{CompanyID: "co-2", QuoteNumber: "QT/25/000102BBB", FinalPremium: 9500, NetPremium: 8000},
			{CompanyID: "co-3", FinalPremium: 11000},
		}

		q, err := svc.Create(context.Background(), in)

		require.NoError(t, err)
		require.Len(t, q.Quotes, 3)

		assert.Equal(t, "co-2", q.Quotes[0].CompanyID)
		assert.Equal(t, 1, q.Quotes[0].Ranking)
		assert.True(t, q.Quotes[0].IsRecommended)
		assert.Equal(t, 8000.00, q.Quotes[0].NetPremium)

		assert.Equal(t, "co-3", q.Quotes[1].CompanyID)
		assert.False(t, q.Quotes[1].IsRecommended)
		// Missing quote number was generated.
		assert.Regexp(t, quoteNumberRe, q.Quotes[1].QuoteNumber)

		assert.Equal(t, "co-1", q.Quotes[2].CompanyID)
		assert.Equal(t, 3, q.Quotes[2].Ranking)
		// Omitted numeric fields default to zero.
		assert.Equal(t, 0.00, q.Quotes[2].SGST)
	})

	t.Run("generated quote numbers embed the company's directory code", func(t *testing.T) {
		repo := newMockQuotationRepo()
		companies := &mockCompanyRepo{companies: []InsuranceCompany{
			{ID: "co-bajaj", Code: 4, Name: "Bajaj Allianz", Active: true},
		}}
		svc := newTestService(repo, companies, &mockSink{})

		in := validInput()
		in.CompanyQuotes = []ManualQuoteInput{
			{CompanyID: "co-bajaj", FinalPremium: 9000},
		}

		q, err := svc.Create(context.Background(), in)

		require.NoError(t, err)
		require.Len(t, q.Quotes, 1)
		assert.Regexp(t, quoteNumberRe, q.Quotes[0].QuoteNumber)
		// QT/yy/SSSSCC########: seq 0001, directory code 04.
		assert.True(t, strings.HasPrefix(q.Quotes[0].QuoteNumber, "QT/25/000104"),
			"got %s", q.Quotes[0].QuoteNumber)
	})

	t.Run("drops wholly identical duplicate company payloads", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

		dup := ManualQuoteInput{CompanyID: "co-1", QuoteNumber: "QT/25/X", FinalPremium: 9000, NetPremium: 7500}
		in := validInput()
		in.CompanyQuotes = []ManualQuoteInput{
			dup,
			dup, // identical: dropped
			{CompanyID: "co-1", QuoteNumber: "QT/25/X", FinalPremium: 9100, NetPremium: 7500}, // differs: kept
		}

		q, err := svc.Create(context.Background(), in)

		require.NoError(t, err)
		assert.Len(t, q.Quotes, 2)
	})

	t.Run("rejects invalid input before touching the store", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

		in := validInput()
		in.CustomerID = ""

		_, err := svc.Create(context.Background(), in)

		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, repo.quotations)
	})

	t.Run("publishes quotation generated after commit", func(t *testing.T) {
		repo := newMockQuotationRepo()
		sink := &mockSink{}
		svc := newTestService(repo, &mockCompanyRepo{}, sink)

		q, err := svc.Create(context.Background(), validInput())

		require.NoError(t, err)
		require.Len(t, sink.published, 1)
		assert.Equal(t, events.TypeQuotationGenerated, sink.published[0].Type)
		assert.Equal(t, q.ID, sink.published[0].QuotationID)
	})

	t.Run("persistence failure rolls back and propagates unchanged", func(t *testing.T) {
		repo := newMockQuotationRepo()
		repo.createErr = errors.New("company quote insert failed")
		sink := &mockSink{}
		svc := newTestService(repo, &mockCompanyRepo{}, sink)

		in := validInput()
		in.CompanyQuotes = []ManualQuoteInput{
			{CompanyID: "co-1", FinalPremium: 9000},
			{CompanyID: "co-2", FinalPremium: 9500},
		}

		_, err := svc.Create(context.Background(), in)

		assert.EqualError(t, err, "company quote insert failed")
		assert.Empty(t, repo.quotations, "no quotation row survives a failed create")
		assert.Empty(t, sink.published, "no event without a commit")
	})
}

func TestQuotationService_Update(t *testing.T) {
	seed := func(t *testing.T, repo *mockQuotationRepo, svc *quotationService) Quotation {
		t.Helper()
		in := validInput()
		in.CompanyQuotes = []ManualQuoteInput{
			{CompanyID: "old-co", QuoteNumber: "QT/25/OLD", FinalPremium: 8000},
		}
		q, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
		return q
	}

	t.Run("replaces scalars and recomputes total IDV", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})
		created := seed(t, repo, svc)

		in := validInput()
		in.IDV = IDVBreakup{Vehicle: 300000}
		in.Status = QuotationStatusSent
		in.ActorID = "staff-9"

		updated, err := svc.Update(context.Background(), created.ID, in)

		require.NoError(t, err)
		assert.Equal(t, 300000.00, updated.TotalIDV)
		assert.Equal(t, QuotationStatusSent, updated.Status)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.Seq, updated.Seq)
		assert.Equal(t, "staff-7", updated.CreatedBy)
		assert.Equal(t, "staff-9", updated.UpdatedBy)
	})

	t.Run("deletes and recreates company quotes from the new payload", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})
		created := seed(t, repo, svc)

		in := validInput()
		in.CompanyQuotes = []ManualQuoteInput{
			{CompanyID: "new-a", FinalPremium: 7000},
			{CompanyID: "new-b", FinalPremium: 6500},
		}

		updated, err := svc.Update(context.Background(), created.ID, in)

		require.NoError(t, err)
		require.Len(t, updated.Quotes, 2)
		for _, cq := range updated.Quotes {
			assert.NotEqual(t, "old-co", cq.CompanyID)
		}
		assert.Equal(t, "new-b", updated.Quotes[0].CompanyID)
		assert.True(t, updated.Quotes[0].IsRecommended)
	})

	t.Run("empty status in the payload keeps the stored status", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})
		created := seed(t, repo, svc)

		in := validInput()
		in.Status = QuotationStatusSent
		_, err := svc.Update(context.Background(), created.ID, in)
		require.NoError(t, err)

		in = validInput()
		in.Status = ""
		updated, err := svc.Update(context.Background(), created.ID, in)

		require.NoError(t, err)
		assert.Equal(t, QuotationStatusSent, updated.Status)
	})

	t.Run("empty payload clears the child set", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})
		created := seed(t, repo, svc)

		updated, err := svc.Update(context.Background(), created.ID, validInput())

		require.NoError(t, err)
		assert.Empty(t, updated.Quotes)
	})

	t.Run("unknown quotation", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

		_, err := svc.Update(context.Background(), "missing", validInput())

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestQuotationService_GenerateCompanyQuotes(t *testing.T) {
	activeCompanies := func(n int) []InsuranceCompany {
		names := []string{"TATA AIG", "HDFC ERGO", "ICICI Lombard", "Bajaj Allianz", "Reliance General", "Extra Mutual"}
		out := make([]InsuranceCompany, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, InsuranceCompany{
				ID:     names[i],
				Code:   i + 1,
				Name:   names[i],
				Active: true,
			})
		}
		return out
	}

	t.Run("prices one quote per active company and ranks them", func(t *testing.T) {
		repo := newMockQuotationRepo()
		companies := &mockCompanyRepo{companies: activeCompanies(5)}
		svc := newTestService(repo, companies, &mockSink{})

		created, err := svc.Create(context.Background(), validInput())
		require.NoError(t, err)

		quotes, err := svc.GenerateCompanyQuotes(context.Background(), created.ID)

		require.NoError(t, err)
		require.Len(t, quotes, 5)
		assert.Equal(t, MaxAutoQuoteCompanies, companies.lastLimit)

		// Reliance General carries the lowest factor, so it must win.
		assert.Equal(t, "Reliance General", quotes[0].CompanyID)
		assert.Equal(t, 1, quotes[0].Ranking)
		assert.True(t, quotes[0].IsRecommended)
		for i := 1; i < len(quotes); i++ {
			assert.False(t, quotes[i].IsRecommended)
			assert.Equal(t, i+1, quotes[i].Ranking)
			assert.LessOrEqual(t, quotes[i-1].FinalPremium, quotes[i].FinalPremium)
		}

		for _, cq := range quotes {
			assert.Regexp(t, quoteNumberRe, cq.QuoteNumber)
		}

		stored, err := repo.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Quotes, 5)
	})

	t.Run("quote numbers are unique under rapid successive calls", func(t *testing.T) {
		repo := newMockQuotationRepo()
		companies := &mockCompanyRepo{companies: activeCompanies(5)}
		svc := newTestService(repo, companies, &mockSink{})

		created, err := svc.Create(context.Background(), validInput())
		require.NoError(t, err)

		seen := make(map[string]struct{})
		for i := 0; i < 10; i++ {
			quotes, err := svc.GenerateCompanyQuotes(context.Background(), created.ID)
			require.NoError(t, err)
			for _, cq := range quotes {
				_, dup := seen[cq.QuoteNumber]
				assert.False(t, dup, "duplicate quote number %s", cq.QuoteNumber)
				seen[cq.QuoteNumber] = struct{}{}
			}
		}
	})

	t.Run("no active companies", func(t *testing.T) {
		repo := newMockQuotationRepo()
		svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

		created, err := svc.Create(context.Background(), validInput())
		require.NoError(t, err)

		_, err = svc.GenerateCompanyQuotes(context.Background(), created.ID)

		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("publishes quotation generated after replacement", func(t *testing.T) {
		repo := newMockQuotationRepo()
		sink := &mockSink{}
		svc := newTestService(repo, &mockCompanyRepo{companies: activeCompanies(2)}, sink)

		created, err := svc.Create(context.Background(), validInput())
		require.NoError(t, err)
		sink.published = nil

		_, err = svc.GenerateCompanyQuotes(context.Background(), created.ID)

		require.NoError(t, err)
		require.Len(t, sink.published, 1)
		assert.Equal(t, created.ID, sink.published[0].QuotationID)
	})

	t.Run("replacement failure propagates and publishes nothing", func(t *testing.T) {
		repo := newMockQuotationRepo()
		sink := &mockSink{}
		svc := newTestService(repo, &mockCompanyRepo{companies: activeCompanies(2)}, sink)

		created, err := svc.Create(context.Background(), validInput())
		require.NoError(t, err)
		sink.published = nil
		repo.replaceErr = errors.New("transact write canceled")

		_, err = svc.GenerateCompanyQuotes(context.Background(), created.ID)

		assert.EqualError(t, err, "transact write canceled")
		assert.Empty(t, sink.published)
	})
}

func TestQuotationService_Rerank(t *testing.T) {
	repo := newMockQuotationRepo()
	svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

	in := validInput()
	in.CompanyQuotes = []ManualQuoteInput{
		{CompanyID: "a", FinalPremium: 12000},
		{CompanyID: "b", FinalPremium: 9500},
		{CompanyID: "c", FinalPremium: 11000},
	}
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	first, err := svc.Rerank(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := svc.Rerank(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second, "reranking an already ranked set is a no-op")
	assert.Equal(t, 2, repo.rankingCalls)
	assert.Equal(t, "b", first[0].CompanyID)
	assert.True(t, first[0].IsRecommended)
}

func TestQuotationService_Delete(t *testing.T) {
	repo := newMockQuotationRepo()
	svc := newTestService(repo, &mockCompanyRepo{}, &mockSink{})

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}
