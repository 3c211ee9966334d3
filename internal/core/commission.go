package core

import "github.com/shopspring/decimal"

// CommissionBase selects which premium figure commissions are computed on.
type CommissionBase string

const (
	CommissionOnNet CommissionBase = "net_premium"
	CommissionOnOD  CommissionBase = "od_premium"
	CommissionOnTP  CommissionBase = "tp_premium"
)

// ParseCommissionBase maps a discriminator string to a base. Empty and
// unrecognized values resolve to net premium.
func ParseCommissionBase(s string) CommissionBase {
	switch CommissionBase(s) {
	case CommissionOnOD:
		return CommissionOnOD
	case CommissionOnTP:
		return CommissionOnTP
	case CommissionOnNet:
		return CommissionOnNet
	default:
		return CommissionOnNet
	}
}

// CommissionInput carries the premium figures and the three-tier percentage
// split. Nil percentages are treated as zero.
type CommissionInput struct {
	CommissionOn string
	NetPremium   decimal.Decimal
	ODPremium    decimal.Decimal
	TPPremium    decimal.Decimal

	OwnPercent       *decimal.Decimal
	TransferPercent  *decimal.Decimal
	ReferencePercent *decimal.Decimal
}

// CommissionBreakdown is ephemeral: computed on demand, never persisted on
// its own.
type CommissionBreakdown struct {
	Base                CommissionBase  `json:"commission_on"`
	BasePremium         decimal.Decimal `json:"base_premium"`
	MyCommission        decimal.Decimal `json:"my_commission"`
	TransferCommission  decimal.Decimal `json:"transfer_commission"`
	ReferenceCommission decimal.Decimal `json:"reference_commission"`
	ActualEarnings      decimal.Decimal `json:"actual_earnings"`
}

// CalculateCommission computes the three commission amounts as exact
// products (base × pct / 100, no rounding) and the actual earnings as
// own − transfer − reference. Earnings may be negative; they are not
// clamped.
func CalculateCommission(in CommissionInput) CommissionBreakdown {
	base := ParseCommissionBase(in.CommissionOn)

	var basePremium decimal.Decimal
	switch base {
	case CommissionOnOD:
		basePremium = in.ODPremium
	case CommissionOnTP:
		basePremium = in.TPPremium
	default:
		basePremium = in.NetPremium
	}

	own := commissionAmount(basePremium, in.OwnPercent)
	transfer := commissionAmount(basePremium, in.TransferPercent)
	reference := commissionAmount(basePremium, in.ReferencePercent)

	return CommissionBreakdown{
		Base:                base,
		BasePremium:         basePremium,
		MyCommission:        own,
		TransferCommission:  transfer,
		ReferenceCommission: reference,
		ActualEarnings:      own.Sub(transfer).Sub(reference),
	}
}

func commissionAmount(base decimal.Decimal, pct *decimal.Decimal) decimal.Decimal {
	if pct == nil {
		return decimal.Zero
	}
	return base.Mul(*pct).Div(hundred)
}
