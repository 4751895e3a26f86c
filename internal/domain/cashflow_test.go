package domain

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireValues compara la curva completa con valores construidos en float64.
func requireValues(t *testing.T, cf *CashFlow, want ...float64) {
	t.Helper()
	require.Equal(t, len(want), cf.Size())
	for i, w := range want {
		v, err := cf.Value(i)
		require.NoError(t, err)
		assert.InDelta(t, w, v.InexactFloat64(), 1e-12, "index %d", i)
	}
}

func TestCashFlow_Size(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(1, 2, 3, 4, 5), nil)
	assert.Equal(t, 5, cf.Size())
}

func TestCashFlow_BuyWithOnlyOneTrade(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(1, 2), []Trade{NewTrade(0, 1, Buy)})

	v0, err := cf.Value(0)
	require.NoError(t, err)
	v1, err := cf.Value(1)
	require.NoError(t, err)

	assert.True(t, v0.Equal(decimal.NewFromInt(1)), "got %s", v0)
	assert.True(t, v1.Equal(decimal.NewFromInt(2)), "got %s", v1)
}

func TestCashFlow_SellAndBuyOperations(t *testing.T) {
	trades := []Trade{
		NewTrade(0, 1, Buy),
		NewTrade(3, 4, Buy),
		NewTrade(5, 6, Sell),
	}
	cf := NewCashFlow(NewSeriesFromFloats(2, 1, 3, 5, 6, 3, 20), trades)

	requireValues(t, cf, 1, .5, .5, .5, .6, .6, .09)
}

func TestCashFlow_Sell(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(1, 2, 4, 8, 16, 32), []Trade{NewTrade(2, 3, Sell)})

	requireValues(t, cf, 1, 1, 1, .5, .5, .5)
}

// Trades adyacentes: el índice compartido toma el valor de salida del primero
// y el segundo arranca con ratio 1 en ese mismo índice.
func TestCashFlow_AdjacentTradesShareBoundary(t *testing.T) {
	trades := []Trade{
		NewTrade(0, 2, Buy),
		NewTrade(2, 4, Sell),
		NewTrade(4, 5, Buy),
	}
	cf := NewCashFlow(NewSeriesFromFloats(1, 2, 4, 8, 16, 32), trades)

	requireValues(t, cf, 1, 2, 4, 2, 1, 2)
}

func TestCashFlow_GapBeforeTrade(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(1, 1, 2), []Trade{NewTrade(1, 2, Buy)})

	requireValues(t, cf, 1, 1, 2)
}

func TestCashFlow_GapAfterTrade(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(1, 2, 2), []Trade{NewTrade(0, 1, Buy)})

	assert.Equal(t, 3, cf.Size())
	requireValues(t, cf, 1, 2, 2)
}

func TestCashFlow_TwoTradesWithLongIdleTime(t *testing.T) {
	trades := []Trade{
		NewTrade(1, 2, Buy),
		NewTrade(4, 5, Buy),
	}
	cf := NewCashFlow(NewSeriesFromFloats(1, 2, 4, 8, 16, 32), trades)

	requireValues(t, cf, 1, 1, 2, 2, 2, 4)
}

func TestCashFlow_Compounding(t *testing.T) {
	series := NewSeriesFromFloats(3, 2, 5, 1000, 5000, 0.0001, 4, 7, 6, 7, 8, 5, 6)
	trades := []Trade{
		NewTrade(0, 2, Buy),
		NewTrade(6, 8, Buy),
		NewTrade(9, 11, Buy),
	}
	cf := NewCashFlow(series, trades)

	requireValues(t, cf,
		1,
		2.0/3,
		5.0/3,
		5.0/3,
		5.0/3,
		5.0/3,
		5.0/3,
		5.0/3*7/4,
		5.0/3*6/4,
		5.0/3*6/4,
		5.0/3*6/4*8/7,
		5.0/3*6/4*5/7,
		5.0/3*6/4*5/7,
	)
}

func TestCashFlow_NoTrades(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(3, 2, 5, 4, 7, 6, 7, 8, 5, 6), nil)

	assert.Equal(t, 10, cf.Size())
	for i := 0; i < cf.Size(); i++ {
		v, err := cf.Value(i)
		require.NoError(t, err)
		assert.True(t, v.Equal(decimal.NewFromInt(1)), "index %d: %s", i, v)
	}
}

func TestCashFlow_ValueOutOfRange(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(3, 2, 5, 4, 7, 6, 7, 8, 5, 6), nil)

	_, err := cf.Value(10)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = cf.Value(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCashFlow_ValueOutOfRange_EmptySeries(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(), nil)

	assert.Equal(t, 0, cf.Size())
	_, err := cf.Value(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCashFlow_WindowedSeries(t *testing.T) {
	backing := NewSeriesFromFloats(5, 6, 3, 7, 8, 6, 10, 15, 6)
	w, err := NewWindow(backing, 4, 8)
	require.NoError(t, err)

	trades := []Trade{
		NewTrade(0, 1, Buy),
		NewTrade(2, 4, Buy),
	}
	cf := NewCashFlow(w, trades)

	requireValues(t, cf, 1, 6.0/8, 6.0/8, 6.0/8*15/10, 6.0/8*6/10)
}

func TestCashFlow_ShortRatioLaw(t *testing.T) {
	series := NewSeriesFromFloats(10, 12, 8, 5, 20)
	cf := NewCashFlow(series, []Trade{NewTrade(1, 4, Sell)})

	entry, err := cf.Value(1)
	require.NoError(t, err)
	for i := 2; i <= 4; i++ {
		v, err := cf.Value(i)
		require.NoError(t, err)
		want := series.Price(1).DivRound(series.Price(i), DivisionPrecision)
		got := v.DivRound(entry, DivisionPrecision)
		assert.InDelta(t, want.InexactFloat64(), got.InexactFloat64(), 1e-15, "index %d", i)
	}
}

func TestCashFlow_ValuesReturnsCopy(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(1, 2), []Trade{NewTrade(0, 1, Buy)})

	vs := cf.Values()
	vs[1] = decimal.NewFromInt(100)

	v, err := cf.Value(1)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(2)))
}

func TestCashFlow_ConcurrentReaders(t *testing.T) {
	cf := NewCashFlow(NewSeriesFromFloats(1, 2, 4, 8), []Trade{NewTrade(0, 3, Buy)})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < cf.Size(); i++ {
				_, _ = cf.Value(i)
			}
		}()
	}
	wg.Wait()

	v, err := cf.Value(3)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(8)))
}

func TestCashFlow_ReallyLong(t *testing.T) {
	const size = 1000000
	prices := make([]decimal.Decimal, size)
	ten := decimal.NewFromInt(10)
	for i := range prices {
		prices[i] = ten
	}

	cf := NewCashFlow(NewSeries(prices), []Trade{NewTrade(0, size-1, Buy)})

	v, err := cf.Value(size - 1)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(1)), "got %s", v)
}

// Caídas o subidas extremas: el valor debe seguir siendo positivo y con al
// menos la precisión de un float64, en términos relativos.
func TestCashFlow_ExtremePriceMovesKeepRelativePrecision(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		side   OperationType
		want   float64
	}{
		{"long drop of 1e25", []float64{1e12, 1e-13}, Buy, 1e-13 / 1e12},
		{"long drop to tiny price", []float64{3, 1e-13}, Buy, 1e-13 / 3},
		{"short rally of 1e25", []float64{1e-13, 1e12}, Sell, 1e-13 / 1e12},
		{"long rally of 1e25", []float64{1e-13, 1e12}, Buy, 1e12 / 1e-13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := NewCashFlow(NewSeriesFromFloats(tt.prices...), []Trade{NewTrade(0, 1, tt.side)})

			v, err := cf.Value(1)
			require.NoError(t, err)
			assert.True(t, v.IsPositive(), "got %s", v)
			assert.InEpsilon(t, tt.want, v.InexactFloat64(), 1e-15)
		})
	}
}

func TestCashFlow_TinyValuesCompound(t *testing.T) {
	trades := []Trade{
		NewTrade(0, 1, Buy),
		NewTrade(2, 3, Buy),
	}
	cf := NewCashFlow(NewSeriesFromFloats(1e12, 1e-13, 1e12, 1e-13), trades)

	v, err := cf.Value(3)
	require.NoError(t, err)
	assert.True(t, v.IsPositive(), "got %s", v)
	assert.InEpsilon(t, 1e-50, v.InexactFloat64(), 1e-14)
}
