package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommissionRouter() http.Handler {
	r := chi.NewRouter()
	NewCommissionHandler(testLogger()).Mount(r)
	return r
}

func TestCommissionHandler_Calculate(t *testing.T) {
	t.Run("computes the three-tier split on od premium", func(t *testing.T) {
		body := `{
			"commission_on": "od_premium",
			"net_premium": "12000",
			"od_premium": "5000",
			"tp_premium": "3000",
			"own_commission_percent": "15",
			"transfer_commission_percent": "3",
			"reference_commission_percent": "2"
		}`

		req := httptest.NewRequest(http.MethodPost, "/commissions:calculate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newCommissionRouter().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			CommissionOn        string `json:"commission_on"`
			BasePremium         string `json:"base_premium"`
			MyCommission        string `json:"my_commission"`
			TransferCommission  string `json:"transfer_commission"`
			ReferenceCommission string `json:"reference_commission"`
			ActualEarnings      string `json:"actual_earnings"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "od_premium", got.CommissionOn)
		assert.Equal(t, "5000", got.BasePremium)
		assert.Equal(t, "750", got.MyCommission)
		assert.Equal(t, "150", got.TransferCommission)
		assert.Equal(t, "100", got.ReferenceCommission)
		assert.Equal(t, "500", got.ActualEarnings)
	})

	t.Run("defaults unknown discriminators to net premium", func(t *testing.T) {
		body := `{"commission_on":"gross_premium","net_premium":"10000","own_commission_percent":"10"}`

		req := httptest.NewRequest(http.MethodPost, "/commissions:calculate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newCommissionRouter().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			CommissionOn string `json:"commission_on"`
			MyCommission string `json:"my_commission"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "net_premium", got.CommissionOn)
		assert.Equal(t, "1000", got.MyCommission)
	})

	t.Run("omitted percentages compute to zero", func(t *testing.T) {
		body := `{"net_premium":"10000"}`

		req := httptest.NewRequest(http.MethodPost, "/commissions:calculate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		newCommissionRouter().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			MyCommission   string `json:"my_commission"`
			ActualEarnings string `json:"actual_earnings"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "0", got.MyCommission)
		assert.Equal(t, "0", got.ActualEarnings)
	})

	t.Run("returns 400 for malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/commissions:calculate", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		newCommissionRouter().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
