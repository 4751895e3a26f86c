package scenario_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/cashflow/internal/adapters/scenario"
	"github.com/alejandrodnm/cashflow/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
name: windowed
prices: [5, 6, 3, 7, 8, 6, 10, 15, 6]
window: {begin: 4, end: 8}
trades:
  - {entry: 0, exit: 1, side: BUY}
  - {entry: 2, exit: 4, side: sell}
`

func TestParse_Windowed(t *testing.T) {
	sc, err := scenario.Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "windowed", sc.Name)
	require.Len(t, sc.Prices, 9)
	require.NotNil(t, sc.Window)
	assert.Equal(t, domain.WindowBounds{Begin: 4, End: 8}, *sc.Window)

	require.Len(t, sc.Trades, 2)
	assert.Equal(t, domain.NewTrade(0, 1, domain.Buy), sc.Trades[0])
	assert.Equal(t, domain.Short, sc.Trades[1].Direction())

	series, err := sc.Series()
	require.NoError(t, err)
	assert.Equal(t, 5, series.Size())
	assert.True(t, series.Price(0).Equal(decimal.NewFromInt(8)))
}

func TestParse_PricesKeepDecimalText(t *testing.T) {
	sc, err := scenario.Parse([]byte("prices: [0.1, 0.2, 0.30000000000000000001]\n"))
	require.NoError(t, err)

	assert.Equal(t, "0.30000000000000000001", sc.Prices[2].String())
	assert.Nil(t, sc.Window)
	assert.Empty(t, sc.Trades)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no prices", "name: x\n"},
		{"zero price", "prices: [1, 0, 2]\n"},
		{"negative price", "prices: [1, -2]\n"},
		{"unknown side", "prices: [1, 2]\ntrades:\n  - {entry: 0, exit: 1, side: HOLD}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, scenario.ErrInvalidScenario)
		})
	}
}

func TestParse_BadPriceText(t *testing.T) {
	_, err := scenario.Parse([]byte("prices: [1, abc]\n"))
	assert.Error(t, err)
}

func TestLoad_DefaultsNameToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prices: [1, 2]\n"), 0o600))

	sc, err := scenario.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, sc.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := scenario.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Fixtures(t *testing.T) {
	for _, name := range []string{"compounding.yaml", "windowed.yaml", "long_short.yaml"} {
		t.Run(name, func(t *testing.T) {
			sc, err := scenario.Load(filepath.Join("testdata", name))
			require.NoError(t, err)

			series, err := sc.Series()
			require.NoError(t, err)
			assert.NoError(t, domain.ValidateTrades(sc.Trades, series.Size()))
		})
	}
}
