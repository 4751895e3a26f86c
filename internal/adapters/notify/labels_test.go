package notify

import (
	"testing"

	"github.com/alejandrodnm/cashflow/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPositionLabels(t *testing.T) {
	trades := []domain.Trade{
		domain.NewTrade(1, 3, domain.Buy),
		domain.NewTrade(3, 5, domain.Sell),
	}

	got := positionLabels(7, trades)

	assert.Equal(t, []string{
		"",
		"LONG entry",
		"LONG",
		"LONG exit / SHORT entry",
		"SHORT",
		"SHORT exit",
		"",
	}, got)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "0.00%", percent(domain.TotalReturn(domain.NewCashFlow(domain.NewSeriesFromFloats(1), nil))))
}
