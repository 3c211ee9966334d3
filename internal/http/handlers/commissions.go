package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/brokercore/motorquote/internal/core"
	"github.com/brokercore/motorquote/pkg/problem"
)

type CommissionHandler struct {
	Log *slog.Logger
}

func NewCommissionHandler(log *slog.Logger) *CommissionHandler {
	return &CommissionHandler{Log: log}
}

func (h *CommissionHandler) Mount(r chi.Router) {
	r.Post("/commissions:calculate", h.Calculate)
}

type commissionRequest struct {
	CommissionOn string          `json:"commission_on"`
	NetPremium   decimal.Decimal `json:"net_premium"`
	ODPremium    decimal.Decimal `json:"od_premium"`
	TPPremium    decimal.Decimal `json:"tp_premium"`

	OwnPercent       *decimal.Decimal `json:"own_commission_percent"`
	TransferPercent  *decimal.Decimal `json:"transfer_commission_percent"`
	ReferencePercent *decimal.Decimal `json:"reference_commission_percent"`
}

// Calculate computes a commission breakdown from the posted premium figures.
// The result is returned to the caller and never persisted.
// 200: JSON; 400: bad JSON; 500: internal error.
func (h *CommissionHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req commissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid JSON", "Body could not be decoded.")
		return
	}

	breakdown := core.CalculateCommission(core.CommissionInput{
		CommissionOn:     req.CommissionOn,
		NetPremium:       req.NetPremium,
		ODPremium:        req.ODPremium,
		TPPremium:        req.TPPremium,
		OwnPercent:       req.OwnPercent,
		TransferPercent:  req.TransferPercent,
		ReferencePercent: req.ReferencePercent,
	})

	if err := json.NewEncoder(w).Encode(breakdown); err != nil {
		h.Log.Error("failed to encode commission breakdown", "err", err)
	}
}
