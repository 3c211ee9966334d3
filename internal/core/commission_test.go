package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestParseCommissionBase(t *testing.T) {
	assert.Equal(t, CommissionOnNet, ParseCommissionBase("net_premium"))
	assert.Equal(t, CommissionOnOD, ParseCommissionBase("od_premium"))
	assert.Equal(t, CommissionOnTP, ParseCommissionBase("tp_premium"))
	assert.Equal(t, CommissionOnNet, ParseCommissionBase(""))
	assert.Equal(t, CommissionOnNet, ParseCommissionBase("gross_premium"))
	assert.Equal(t, CommissionOnNet, ParseCommissionBase("OD_PREMIUM"))
}

func TestCalculateCommission(t *testing.T) {
	t.Run("od premium base with three tiers", func(t *testing.T) {
		out := CalculateCommission(CommissionInput{
			CommissionOn:     "od_premium",
			NetPremium:       dec("99999"),
			ODPremium:        dec("5000"),
			TPPremium:        dec("800"),
			OwnPercent:       decPtr("15"),
			TransferPercent:  decPtr("3"),
			ReferencePercent: decPtr("2"),
		})

		assert.Equal(t, CommissionOnOD, out.Base)
		assert.True(t, out.BasePremium.Equal(dec("5000")))
		assert.True(t, out.MyCommission.Equal(dec("750")))
		assert.True(t, out.TransferCommission.Equal(dec("150")))
		assert.True(t, out.ReferenceCommission.Equal(dec("100")))
		assert.True(t, out.ActualEarnings.Equal(dec("500")))
	})

	t.Run("exact product, no rounding", func(t *testing.T) {
		out := CalculateCommission(CommissionInput{
			CommissionOn: "net_premium",
			NetPremium:   dec("10000"),
			OwnPercent:   decPtr("10"),
		})

		assert.True(t, out.MyCommission.Equal(dec("1000")))
		assert.True(t, out.ActualEarnings.Equal(dec("1000")))
	})

	t.Run("unset discriminator defaults to net premium", func(t *testing.T) {
		out := CalculateCommission(CommissionInput{
			NetPremium: dec("2000"),
			ODPremium:  dec("1500"),
			OwnPercent: decPtr("10"),
		})

		assert.Equal(t, CommissionOnNet, out.Base)
		assert.True(t, out.BasePremium.Equal(dec("2000")))
		assert.True(t, out.MyCommission.Equal(dec("200")))
	})

	t.Run("nil percentages are zero", func(t *testing.T) {
		out := CalculateCommission(CommissionInput{
			CommissionOn: "tp_premium",
			TPPremium:    dec("3000"),
		})

		assert.True(t, out.MyCommission.IsZero())
		assert.True(t, out.TransferCommission.IsZero())
		assert.True(t, out.ReferenceCommission.IsZero())
		assert.True(t, out.ActualEarnings.IsZero())
	})

	t.Run("earnings may be negative", func(t *testing.T) {
		out := CalculateCommission(CommissionInput{
			CommissionOn:     "net_premium",
			NetPremium:       dec("10000"),
			OwnPercent:       decPtr("5"),
			TransferPercent:  decPtr("8"),
			ReferencePercent: decPtr("2"),
		})

		assert.True(t, out.ActualEarnings.Equal(dec("-500")))
	})

	t.Run("earnings law holds across inputs", func(t *testing.T) {
		bases := []string{"100", "9999.99", "0", "123456.78"}
		splits := [][3]string{{"10", "0", "0"}, {"12.5", "2.5", "1.25"}, {"0", "7", "3"}}

		for _, b := range bases {
			for _, s := range splits {
				out := CalculateCommission(CommissionInput{
					NetPremium:       dec(b),
					OwnPercent:       decPtr(s[0]),
					TransferPercent:  decPtr(s[1]),
					ReferencePercent: decPtr(s[2]),
				})

				want := dec(b).Mul(dec(s[0])).
					Sub(dec(b).Mul(dec(s[1]))).
					Sub(dec(b).Mul(dec(s[2]))).
					Div(dec("100"))
				assert.True(t, out.ActualEarnings.Equal(want),
					"base=%s split=%v got=%s want=%s", b, s, out.ActualEarnings, want)
			}
		}
	})
}
