package domain

import "github.com/shopspring/decimal"

// TotalReturn devuelve el rendimiento acumulado: último valor - 1.
// Una curva vacía rinde 0.
func TotalReturn(cf *CashFlow) decimal.Decimal {
	if cf.Size() == 0 {
		return decimal.Zero
	}
	return cf.values[len(cf.values)-1].Sub(decimal.NewFromInt(1))
}

// MaxDrawdown devuelve la mayor caída relativa desde un máximo previo,
// (peak - v) / peak, como fracción entre 0 y 1.
func MaxDrawdown(cf *CashFlow) decimal.Decimal {
	maxDD := decimal.Zero
	if cf.Size() == 0 {
		return maxDD
	}

	peak := cf.values[0]
	for _, v := range cf.values {
		if v.GreaterThan(peak) {
			peak = v
			continue
		}
		if !peak.IsPositive() {
			continue
		}
		dd := divSignificant(peak.Sub(v), peak)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD
}
