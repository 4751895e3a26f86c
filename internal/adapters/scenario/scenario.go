package scenario

// scenario.go — carga escenarios de backtest desde YAML.
//
//	name: sample
//	prices: [1, 2, 4, 8, 16, 32]
//	window: {begin: 1, end: 5}   # opcional
//	trades:
//	  - {entry: 0, exit: 2, side: BUY}
//
// `side` es la operación de entrada; la salida es siempre la opuesta.
// Los índices de los trades son locales a la serie efectiva (la ventana si existe).

import (
	"errors"
	"fmt"
	"os"

	"github.com/alejandrodnm/cashflow/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario se devuelve cuando el archivo es sintácticamente válido
// pero su contenido no describe un escenario usable.
var ErrInvalidScenario = errors.New("invalid scenario")

type file struct {
	Name   string      `yaml:"name"`
	Prices []price     `yaml:"prices"`
	Window *windowSpec `yaml:"window"`
	Trades []tradeSpec `yaml:"trades"`
}

type windowSpec struct {
	Begin int `yaml:"begin"`
	End   int `yaml:"end"`
}

type tradeSpec struct {
	Entry int    `yaml:"entry"`
	Exit  int    `yaml:"exit"`
	Side  string `yaml:"side"`
}

// price se parsea desde el texto del nodo YAML para no pasar por float64.
type price struct {
	decimal.Decimal
}

func (p *price) UnmarshalYAML(node *yaml.Node) error {
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("price %q (line %d): %w", node.Value, node.Line, err)
	}
	p.Decimal = d
	return nil
}

// Load lee y parsea el escenario en path.
func Load(path string) (domain.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("scenario.Load: read %q: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("scenario.Load: %q: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Parse convierte el YAML en un domain.Scenario.
func Parse(data []byte) (domain.Scenario, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Scenario{}, fmt.Errorf("scenario.Parse: parse YAML: %w", err)
	}

	if len(f.Prices) == 0 {
		return domain.Scenario{}, fmt.Errorf("scenario.Parse: no prices: %w", ErrInvalidScenario)
	}

	prices := make([]decimal.Decimal, len(f.Prices))
	for i, p := range f.Prices {
		if !p.IsPositive() {
			return domain.Scenario{}, fmt.Errorf("scenario.Parse: price %d is %s, must be positive: %w",
				i, p.String(), ErrInvalidScenario)
		}
		prices[i] = p.Decimal
	}

	trades := make([]domain.Trade, 0, len(f.Trades))
	for i, t := range f.Trades {
		side, err := domain.ParseOperationType(t.Side)
		if err != nil {
			return domain.Scenario{}, fmt.Errorf("scenario.Parse: trade %d: %v: %w", i, err, ErrInvalidScenario)
		}
		trades = append(trades, domain.NewTrade(t.Entry, t.Exit, side))
	}

	sc := domain.Scenario{
		Name:   f.Name,
		Prices: prices,
		Trades: trades,
	}
	if f.Window != nil {
		sc.Window = &domain.WindowBounds{Begin: f.Window.Begin, End: f.Window.End}
	}
	return sc, nil
}
