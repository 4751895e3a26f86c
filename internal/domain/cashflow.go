package domain

// cashflow.go — curva de valor normalizado de una estrategia.
//
// Fuera de un trade el valor queda congelado (cash). Durante un trade sigue
// el ratio de precios respecto a la entrada: directo si es long, inverso si
// es short. Al salir, ese valor pasa a ser la base de todo lo que sigue.

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DivisionPrecision es el número de dígitos significativos que conserva cada división.
const DivisionPrecision int32 = 24

// ErrIndexOutOfRange se devuelve al pedir un valor fuera de [0, Size()).
var ErrIndexOutOfRange = errors.New("index out of range")

// CashFlow es la secuencia de valores, una por índice de la serie.
// Es inmutable tras la construcción y se puede leer desde varias goroutines.
type CashFlow struct {
	values []decimal.Decimal
}

// NewCashFlow calcula la curva en una sola pasada.
//
// Los trades deben venir ordenados y sin solapes; no se validan aquí
// (ver ValidateTrades). El cursor de trades avanza de forma monótona con i.
func NewCashFlow(series PriceSeries, trades []Trade) *CashFlow {
	n := series.Size()
	values := make([]decimal.Decimal, n)

	base := decimal.NewFromInt(1)
	k := 0
	var entryPrice decimal.Decimal
	entryCached := -1

	for i := 0; i < n; i++ {
		for k < len(trades) && trades[k].Exit.Index < i {
			k++
		}

		if k >= len(trades) || trades[k].Entry.Index >= i {
			// flat, o índice de entrada (ratio 1)
			values[i] = base
			continue
		}

		t := trades[k]
		if entryCached != k {
			entryPrice = series.Price(t.Entry.Index)
			entryCached = k
		}

		price := series.Price(i)
		if t.Direction() == Short {
			values[i] = divSignificant(base.Mul(entryPrice), price)
		} else {
			values[i] = divSignificant(base.Mul(price), entryPrice)
		}

		if i == t.Exit.Index {
			base = values[i]
			k++
		}
	}

	return &CashFlow{values: values}
}

// Size devuelve la longitud de la serie sobre la que se calculó.
func (c *CashFlow) Size() int { return len(c.values) }

// Value devuelve el valor en el índice i.
func (c *CashFlow) Value(i int) (decimal.Decimal, error) {
	if i < 0 || i >= len(c.values) {
		return decimal.Decimal{}, fmt.Errorf("domain.CashFlow.Value: %d not in [0, %d): %w",
			i, len(c.values), ErrIndexOutOfRange)
	}
	return c.values[i], nil
}

// Values devuelve una copia de toda la secuencia.
func (c *CashFlow) Values() []decimal.Decimal {
	cp := make([]decimal.Decimal, len(c.values))
	copy(cp, c.values)
	return cp
}

// divSignificant divide num/den redondeando a DivisionPrecision dígitos
// significativos: la escala depende del orden de magnitud del cociente, así
// un valor muy pequeño no se redondea a cero.
func divSignificant(num, den decimal.Decimal) decimal.Decimal {
	if num.IsZero() {
		return decimal.Zero
	}
	// magnitude(x) = dígitos a la izquierda del punto (negativo si x < 1)
	quotientMag := magnitude(num) - magnitude(den)
	places := max(int64(DivisionPrecision)-quotientMag+1, 0)
	return num.DivRound(den, int32(places))
}

func magnitude(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent())
}
