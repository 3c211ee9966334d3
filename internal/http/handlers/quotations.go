package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brokercore/motorquote/internal/core"
	"github.com/brokercore/motorquote/pkg/problem"
)

type QuotationHandler struct {
	Svc core.QuotationService
	Log *slog.Logger
}

func NewQuotationHandler(svc core.QuotationService, log *slog.Logger) *QuotationHandler {
	return &QuotationHandler{Svc: svc, Log: log}
}

func (h *QuotationHandler) Mount(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{quotation_id}", h.Get)
		r.Put("/{quotation_id}", h.Update)
		r.Delete("/{quotation_id}", h.Delete)
		r.Post("/{quotation_id}:generate", h.Generate)
		r.Post("/{quotation_id}:rerank", h.Rerank)
	})
}

// Create creates a quotation, optionally with manually supplied company quotes.
// 201: JSON; 400: bad JSON/validation; 409: duplicate; 500: internal error.
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in core.QuotationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid JSON", "Body could not be decoded.")
		return
	}

	q, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(q); err != nil {
		h.Log.Error("failed to encode quotation", "err", err)
	}
}

// List returns quotations filtered by customer_id and status.
// 200: JSON; 500: internal error.
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := core.QuotationFilter{
		CustomerID: r.URL.Query().Get("customer_id"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = core.QuotationStatus(status)
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	quotations, total, err := h.Svc.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list quotations")
		return
	}

	// Return empty array instead of null
	if quotations == nil {
		quotations = []core.Quotation{}
	}

	response := map[string]interface{}{
		"items":  quotations,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Log.Error("failed to encode quotations", "err", err)
	}
}

// Get retrieves a quotation with its ranked company quotes.
// 200: JSON; 400: missing ID; 404: not found; 500: internal error.
func (h *QuotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "quotation_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Quotation ID", "Path parameter quotation_id is required.")
		return
	}

	q, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get quotation")
		return
	}

	if err := json.NewEncoder(w).Encode(q); err != nil {
		h.Log.Error("failed to encode quotation", "quotation_id", id, "err", err)
	}
}

// Update replaces the quotation's fields and rebuilds its company quotes.
// 200: JSON; 400: bad JSON/validation; 404: not found; 500: internal error.
func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "quotation_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Quotation ID", "Path parameter quotation_id is required.")
		return
	}

	var in core.QuotationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid JSON", "Body could not be decoded.")
		return
	}

	q, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(q); err != nil {
		h.Log.Error("failed to encode quotation", "quotation_id", id, "err", err)
	}
}

// Delete removes a quotation and all of its company quotes.
// 204: empty; 400: missing ID; 404: not found; 500: internal error.
func (h *QuotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "quotation_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Quotation ID", "Path parameter quotation_id is required.")
		return
	}

	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to delete quotation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Generate prices the quotation against the active insurers, replacing any
// existing company quotes.
// 200: JSON; 404: not found; 422: no active insurers; 500: internal error.
func (h *QuotationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "quotation_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Quotation ID", "Path parameter quotation_id is required.")
		return
	}

	quotes, err := h.Svc.GenerateCompanyQuotes(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(quotes); err != nil {
		h.Log.Error("failed to encode company quotes", "quotation_id", id, "err", err)
	}
}

// Rerank re-runs ranking over the stored company quotes.
// 200: JSON; 404: not found; 500: internal error.
func (h *QuotationHandler) Rerank(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "quotation_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Quotation ID", "Path parameter quotation_id is required.")
		return
	}

	quotes, err := h.Svc.Rerank(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(quotes); err != nil {
		h.Log.Error("failed to encode company quotes", "quotation_id", id, "err", err)
	}
}
