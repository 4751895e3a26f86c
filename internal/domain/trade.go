package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTrade se devuelve cuando la lista de trades rompe el orden,
// se solapa, o empareja mal las operaciones.
var ErrInvalidTrade = errors.New("invalid trade")

// OperationType es el lado de una operación: BUY o SELL.
type OperationType int

const (
	Buy OperationType = iota
	Sell
)

func (t OperationType) String() string {
	switch t {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("OperationType(%d)", int(t))
	}
}

// Opposite devuelve el lado contrario (el que cierra una posición abierta con t).
func (t OperationType) Opposite() OperationType {
	if t == Buy {
		return Sell
	}
	return Buy
}

// ParseOperationType acepta "BUY"/"SELL" sin distinguir mayúsculas.
func ParseOperationType(s string) (OperationType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return 0, fmt.Errorf("domain.ParseOperationType: unknown side %q", s)
}

// Operation es una orden ejecutada en un índice de la serie.
type Operation struct {
	Index int
	Type  OperationType
}

// Direction distingue posiciones largas y cortas.
type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	if d == Short {
		return "SHORT"
	}
	return "LONG"
}

// Trade es un par entrada/salida. Long si la entrada es BUY, short si es SELL.
type Trade struct {
	Entry Operation
	Exit  Operation
}

// NewTrade arma un trade que entra con `side` en entry y sale con el lado opuesto en exit.
func NewTrade(entry, exit int, side OperationType) Trade {
	return Trade{
		Entry: Operation{Index: entry, Type: side},
		Exit:  Operation{Index: exit, Type: side.Opposite()},
	}
}

// Direction devuelve Long o Short según la operación de entrada.
func (t Trade) Direction() Direction {
	if t.Entry.Type == Sell {
		return Short
	}
	return Long
}

// ValidateTrades comprueba que los trades sean válidos para una serie de longitud size:
// índices en rango, entry < exit, lados opuestos, y sin solapes
// (trade[k].Exit.Index <= trade[k+1].Entry.Index).
func ValidateTrades(trades []Trade, size int) error {
	prevExit := -1
	for k, t := range trades {
		switch {
		case t.Entry.Index < 0 || t.Exit.Index >= size:
			return fmt.Errorf("domain.ValidateTrades: trade %d [%d, %d] outside series of %d: %w",
				k, t.Entry.Index, t.Exit.Index, size, ErrInvalidTrade)
		case t.Entry.Index >= t.Exit.Index:
			return fmt.Errorf("domain.ValidateTrades: trade %d entry %d not before exit %d: %w",
				k, t.Entry.Index, t.Exit.Index, ErrInvalidTrade)
		case t.Entry.Type == t.Exit.Type:
			return fmt.Errorf("domain.ValidateTrades: trade %d enters and exits with %s: %w",
				k, t.Entry.Type, ErrInvalidTrade)
		case t.Entry.Index < prevExit:
			return fmt.Errorf("domain.ValidateTrades: trade %d entry %d overlaps previous exit %d: %w",
				k, t.Entry.Index, prevExit, ErrInvalidTrade)
		}
		prevExit = t.Exit.Index
	}
	return nil
}
