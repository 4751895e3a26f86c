package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/cashflow/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

const defaultMaxRows = 50

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	table   bool
	maxRows int
}

// NewConsole crea un notificador que escribe a stdout.
// maxRows <= 0 usa el límite por defecto.
func NewConsole(table bool, maxRows int) *Console {
	return NewConsoleWriter(os.Stdout, table, maxRows)
}

// NewConsoleWriter crea un notificador sobre cualquier writer (tests).
func NewConsoleWriter(w io.Writer, table bool, maxRows int) *Console {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Console{out: w, table: table, maxRows: maxRows}
}

// Notify imprime el run en el modo configurado.
func (c *Console) Notify(_ context.Context, run domain.Run) error {
	if len(run.Values) == 0 {
		fmt.Fprintf(c.out, "[%s] %s: empty series\n", clock(run.CreatedAt), run.Scenario)
		return nil
	}

	if c.table {
		c.printFull(run)
	} else {
		c.printCompact(run)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(run domain.Run) {
	fmt.Fprintf(c.out, "[%s] %s → %d pts %d trades | final %s | ret %s | dd %s | id %s\n",
		clock(run.CreatedAt),
		compactName(run.Scenario, 30),
		len(run.Values), len(run.Trades),
		run.FinalValue().StringFixed(4),
		percent(run.TotalReturn),
		percent(run.MaxDrawdown.Neg()),
		shortID(run.ID),
	)
}

// printFull imprime la tabla índice a índice y el resumen.
func (c *Console) printFull(run domain.Run) {
	fmt.Fprintf(c.out, "\n[%s] %s — %d points, %d trades\n",
		clock(run.CreatedAt), run.Scenario, len(run.Values), len(run.Trades))

	c.printTable(run)
	c.printSummary(run)
}

func (c *Console) printTable(run domain.Run) {
	positions := positionLabels(len(run.Values), run.Trades)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Price", "Position", "Value")

	shown := min(len(run.Values), c.maxRows)
	for i := 0; i < shown; i++ {
		price := "-"
		if i < len(run.Prices) {
			price = run.Prices[i].String()
		}
		table.Append(
			fmt.Sprintf("%d", i),
			price,
			positions[i],
			run.Values[i].StringFixed(6),
		)
	}

	table.Render()

	if rest := len(run.Values) - shown; rest > 0 {
		fmt.Fprintf(c.out, "  ... %d more rows (last value %s)\n", rest, run.FinalValue().StringFixed(6))
	}
}

func (c *Console) printSummary(run domain.Run) {
	long, short := 0, 0
	for _, t := range run.Trades {
		if t.Direction() == domain.Short {
			short++
		} else {
			long++
		}
	}

	fmt.Fprintf(c.out, "\n=== SUMMARY (run %s) ===\n", run.ID)
	fmt.Fprintf(c.out, "  Trades:       %d (long %d, short %d)\n", len(run.Trades), long, short)
	fmt.Fprintf(c.out, "  Final value:  %s\n", run.FinalValue().StringFixed(6))
	fmt.Fprintf(c.out, "  Total return: %s\n", percent(run.TotalReturn))
	fmt.Fprintf(c.out, "  Max drawdown: %s\n\n", percent(run.MaxDrawdown.Neg()))
}

// PrintHistory imprime los runs guardados.
func (c *Console) PrintHistory(runs []domain.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no runs stored in the requested range")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Created", "Scenario", "Points", "Trades", "Final", "Return", "Max DD")
	for _, r := range runs {
		table.Append(
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(r.Scenario, 30),
			fmt.Sprintf("%d", r.Points),
			fmt.Sprintf("%d", r.Trades),
			r.FinalValue.StringFixed(4),
			percent(r.TotalReturn),
			percent(r.MaxDrawdown.Neg()),
		)
	}
	table.Render()
}

// positionLabels etiqueta cada índice con el estado del trade que lo cubre.
// Recorre los trades con un cursor, igual que el cálculo de la curva.
func positionLabels(n int, trades []domain.Trade) []string {
	labels := make([]string, n)
	k := 0
	for i := 0; i < n; i++ {
		for k < len(trades) && trades[k].Exit.Index < i {
			k++
		}
		if k >= len(trades) || trades[k].Entry.Index > i {
			continue
		}

		t := trades[k]
		dir := t.Direction().String()
		switch {
		case i == t.Exit.Index && k+1 < len(trades) && trades[k+1].Entry.Index == i:
			labels[i] = fmt.Sprintf("%s exit / %s entry", dir, trades[k+1].Direction())
		case i == t.Entry.Index:
			labels[i] = dir + " entry"
		case i == t.Exit.Index:
			labels[i] = dir + " exit"
		default:
			labels[i] = dir
		}
	}
	return labels
}

func clock(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Local().Format("15:04:05")
}

func percent(d decimal.Decimal) string {
	p := d.Mul(decimal.NewFromInt(100))
	if p.IsPositive() {
		return "+" + p.StringFixed(2) + "%"
	}
	return p.StringFixed(2) + "%"
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
