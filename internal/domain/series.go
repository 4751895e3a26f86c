package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidWindow se devuelve cuando los límites de una ventana no caben en la serie base.
var ErrInvalidWindow = errors.New("invalid series window")

// PriceSeries es la capacidad mínima que consume CashFlow: longitud y acceso
// aleatorio al precio en su propio espacio de índices.
type PriceSeries interface {
	Size() int
	Price(i int) decimal.Decimal
}

// Series es una serie de precios respaldada por un slice.
type Series struct {
	prices []decimal.Decimal
}

// NewSeries crea una serie a partir de precios decimales. El slice se copia.
func NewSeries(prices []decimal.Decimal) *Series {
	cp := make([]decimal.Decimal, len(prices))
	copy(cp, prices)
	return &Series{prices: cp}
}

// NewSeriesFromFloats crea una serie a partir de float64 (útil en tests y fixtures).
func NewSeriesFromFloats(prices ...float64) *Series {
	ds := make([]decimal.Decimal, len(prices))
	for i, p := range prices {
		ds[i] = decimal.NewFromFloat(p)
	}
	return &Series{prices: ds}
}

// Size devuelve el número de precios.
func (s *Series) Size() int { return len(s.prices) }

// Price devuelve el precio en el índice i. Un índice fuera de rango es un
// error de programación y provoca panic, igual que un slice.
func (s *Series) Price(i int) decimal.Decimal { return s.prices[i] }

// Window es una vista restringida [begin, end] (ambos inclusive) sobre otra serie.
// El índice local 0 corresponde a begin en la serie base.
type Window struct {
	backing PriceSeries
	begin   int
	end     int
}

// NewWindow crea la vista. Falla si los límites no son válidos para la serie base.
func NewWindow(backing PriceSeries, begin, end int) (*Window, error) {
	if begin < 0 || end < begin || end >= backing.Size() {
		return nil, fmt.Errorf("domain.NewWindow: [%d, %d] over %d prices: %w",
			begin, end, backing.Size(), ErrInvalidWindow)
	}
	return &Window{backing: backing, begin: begin, end: end}, nil
}

// Size devuelve la longitud de la ventana.
func (w *Window) Size() int { return w.end - w.begin + 1 }

// Price traduce el índice local al de la serie base.
func (w *Window) Price(i int) decimal.Decimal {
	if i < 0 || i >= w.Size() {
		panic(fmt.Sprintf("domain.Window.Price: index %d out of range [0, %d)", i, w.Size()))
	}
	return w.backing.Price(w.begin + i)
}

// Begin devuelve el índice en la serie base donde empieza la ventana.
func (w *Window) Begin() int { return w.begin }

// End devuelve el último índice (inclusive) de la ventana en la serie base.
func (w *Window) End() int { return w.end }
