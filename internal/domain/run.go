package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scenario es la entrada de un backtest: precios, ventana opcional y trades
// expresados en índices locales de la serie efectiva.
type Scenario struct {
	Name   string
	Prices []decimal.Decimal
	Window *WindowBounds // nil = serie completa
	Trades []Trade
}

// WindowBounds son los límites inclusive de una ventana sobre Prices.
type WindowBounds struct {
	Begin int
	End   int
}

// Series devuelve la serie efectiva del escenario: la completa o su ventana.
func (s Scenario) Series() (PriceSeries, error) {
	full := NewSeries(s.Prices)
	if s.Window == nil {
		return full, nil
	}
	return NewWindow(full, s.Window.Begin, s.Window.End)
}

// Run es el resultado persistible de aplicar CashFlow a un escenario.
type Run struct {
	ID          string
	Scenario    string
	CreatedAt   time.Time
	Prices      []decimal.Decimal // precios de la serie efectiva (índices locales)
	Trades      []Trade
	Values      []decimal.Decimal
	TotalReturn decimal.Decimal
	MaxDrawdown decimal.Decimal
}

// FinalValue devuelve el último valor de la curva, o 1 si está vacía.
func (r Run) FinalValue() decimal.Decimal {
	if len(r.Values) == 0 {
		return decimal.NewFromInt(1)
	}
	return r.Values[len(r.Values)-1]
}

// Summary reduce el run a lo que se lista en el histórico.
func (r Run) Summary() RunSummary {
	return RunSummary{
		ID:          r.ID,
		Scenario:    r.Scenario,
		CreatedAt:   r.CreatedAt,
		Points:      len(r.Values),
		Trades:      len(r.Trades),
		FinalValue:  r.FinalValue(),
		TotalReturn: r.TotalReturn,
		MaxDrawdown: r.MaxDrawdown,
	}
}

// RunSummary es una fila del histórico de runs.
type RunSummary struct {
	ID          string
	Scenario    string
	CreatedAt   time.Time
	Points      int
	Trades      int
	FinalValue  decimal.Decimal
	TotalReturn decimal.Decimal
	MaxDrawdown decimal.Decimal
}
