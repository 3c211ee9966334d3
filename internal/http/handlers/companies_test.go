package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokercore/motorquote/internal/core"
)

type mockCompanyRepo struct {
	companies []core.InsuranceCompany
	upserted  []core.InsuranceCompany
}

func (m *mockCompanyRepo) List(_ context.Context) ([]core.InsuranceCompany, error) {
	return m.companies, nil
}

func (m *mockCompanyRepo) ListActive(_ context.Context, limit int) ([]core.InsuranceCompany, error) {
	var active []core.InsuranceCompany
	for _, c := range m.companies {
		if c.Active {
			active = append(active, c)
		}
		if limit > 0 && len(active) == limit {
			break
		}
	}
	return active, nil
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id string) (core.InsuranceCompany, error) {
	for _, c := range m.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return core.InsuranceCompany{}, core.ErrCompanyNotFound
}

func (m *mockCompanyRepo) UpsertByCode(_ context.Context, c core.InsuranceCompany) error {
	m.upserted = append(m.upserted, c)
	return nil
}

func newCompanyRouter(repo core.CompanyRepo) http.Handler {
	r := chi.NewRouter()
	NewCompanyHandler(repo, testLogger()).Mount(r)
	return r
}

func TestCompanyHandler_List(t *testing.T) {
	t.Run("returns all companies", func(t *testing.T) {
		repo := &mockCompanyRepo{companies: []core.InsuranceCompany{
			{ID: "c-1", Code: 1, Name: "TATA AIG", Active: true},
			{ID: "c-2", Code: 2, Name: "HDFC ERGO", Active: false},
		}}

		req := httptest.NewRequest(http.MethodGet, "/companies", nil)
		rec := httptest.NewRecorder()
		newCompanyRouter(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got []core.InsuranceCompany
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Len(t, got, 2)
	})

	t.Run("returns an empty array instead of null", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/companies", nil)
		rec := httptest.NewRecorder()
		newCompanyRouter(&mockCompanyRepo{}).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})
}

func TestCompanyHandler_Get(t *testing.T) {
	repo := &mockCompanyRepo{companies: []core.InsuranceCompany{
		{ID: "c-1", Code: 1, Name: "TATA AIG", Active: true},
	}}

	t.Run("returns the company", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/companies/c-1", nil)
		rec := httptest.NewRecorder()
		newCompanyRouter(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got core.InsuranceCompany
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "TATA AIG", got.Name)
	})

	t.Run("maps missing companies to 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/companies/nope", nil)
		rec := httptest.NewRecorder()
		newCompanyRouter(repo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCompanyHandler_Upsert(t *testing.T) {
	t.Run("stores a valid company", func(t *testing.T) {
		repo := &mockCompanyRepo{}
		body := `{"code":3,"name":"ICICI Lombard","active":true}`

		req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newCompanyRouter(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, repo.upserted, 1)
		assert.Equal(t, "ICICI Lombard", repo.upserted[0].Name)
	})

	t.Run("rejects a company without a name", func(t *testing.T) {
		repo := &mockCompanyRepo{}
		body := `{"code":3,"active":true}`

		req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newCompanyRouter(repo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, repo.upserted)
	})
}
