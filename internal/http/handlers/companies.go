package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brokercore/motorquote/internal/core"
	"github.com/brokercore/motorquote/pkg/problem"
)

type CompanyHandler struct {
	Repo core.CompanyRepo
	Log  *slog.Logger
}

func NewCompanyHandler(repo core.CompanyRepo, log *slog.Logger) *CompanyHandler {
	return &CompanyHandler{Repo: repo, Log: log}
}

func (h *CompanyHandler) Mount(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{company_id}", h.Get)
		r.Post("/", h.Upsert)
	})
}

// List returns all insurance companies ordered by code.
// 200: JSON; 500: internal error.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list companies")
		return
	}

	if companies == nil {
		companies = []core.InsuranceCompany{}
	}
	if err := json.NewEncoder(w).Encode(companies); err != nil {
		h.Log.Error("failed to encode companies", "err", err)
	}
}

// Get retrieves one company by ID.
// 200: JSON; 400: missing ID; 404: not found; 500: internal error.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "company_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Company ID", "Path parameter company_id is required.")
		return
	}

	company, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get company")
		return
	}

	if err := json.NewEncoder(w).Encode(company); err != nil {
		h.Log.Error("failed to encode company", "company_id", id, "err", err)
	}
}

// Upsert creates or replaces a company keyed by its code.
// 200: JSON; 400: bad JSON/validation; 500: internal error.
func (h *CompanyHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var c core.InsuranceCompany
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid JSON", "Body could not be decoded.")
		return
	}
	if err := c.Validate(); err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := h.Repo.UpsertByCode(r.Context(), c); err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to upsert company")
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode company", "err", err)
	}
}
