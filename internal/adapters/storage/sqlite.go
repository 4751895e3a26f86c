package storage

// sqlite.go — persistencia de runs de cash flow.
//
// Tablas:
//   - `runs`: una fila por run con los totales (valores decimales como TEXT).
//   - `run_trades`: los trades del run, en orden.
//   - `run_values`: precio y valor por índice local de la serie.
//
// Los decimales se guardan como TEXT para no perder precisión al volver a leerlos.
// Prune automático al arrancar: runs de más de 30 días.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/cashflow/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound se devuelve cuando no existe un run con el ID pedido.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    scenario     TEXT    NOT NULL,
    created_at   INTEGER NOT NULL,  -- unix nanos UTC
    points       INTEGER NOT NULL DEFAULT 0,
    trades       INTEGER NOT NULL DEFAULT 0,
    final_value  TEXT    NOT NULL,
    total_return TEXT    NOT NULL,
    max_drawdown TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS run_trades (
    run_id      TEXT    NOT NULL,
    seq         INTEGER NOT NULL,
    entry_index INTEGER NOT NULL,
    entry_side  TEXT    NOT NULL,
    exit_index  INTEGER NOT NULL,
    exit_side   TEXT    NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS run_values (
    run_id TEXT    NOT NULL,
    idx    INTEGER NOT NULL,
    price  TEXT    NOT NULL,
    value  TEXT    NOT NULL,
    PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

const retentionRuns = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia runs antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.pruneOld(context.Background(), time.Now().UTC().Add(-retentionRuns)); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: %w", err)
	}
	return s, nil
}

// SaveRun guarda el run, sus trades y sus valores en una sola transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("storage.SaveRun: empty run ID")
	}
	if len(run.Prices) != len(run.Values) {
		return fmt.Errorf("storage.SaveRun: %d prices for %d values", len(run.Prices), len(run.Values))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, created_at, points, trades, final_value, total_return, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Scenario,
		run.CreatedAt.UTC().UnixNano(),
		len(run.Values),
		len(run.Trades),
		run.FinalValue().String(),
		run.TotalReturn.String(),
		run.MaxDrawdown.String(),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_trades (run_id, seq, entry_index, entry_side, exit_index, exit_side)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare trades: %w", err)
	}
	defer tradeStmt.Close()

	for i, t := range run.Trades {
		if _, err := tradeStmt.ExecContext(ctx,
			run.ID, i,
			t.Entry.Index, t.Entry.Type.String(),
			t.Exit.Index, t.Exit.Type.String(),
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert trade %d: %w", i, err)
		}
	}

	valueStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_values (run_id, idx, price, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare values: %w", err)
	}
	defer valueStmt.Close()

	for i, v := range run.Values {
		if _, err := valueStmt.ExecContext(ctx, run.ID, i, run.Prices[i].String(), v.String()); err != nil {
			return fmt.Errorf("storage.SaveRun: insert value %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// GetRun devuelve el run con sus trades y valores.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (domain.Run, error) {
	var (
		run                    domain.Run
		createdAt              int64
		points, trades         int
		finalValue, ret, maxDD string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, created_at, points, trades, final_value, total_return, max_drawdown
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Scenario, &createdAt, &points, &trades, &finalValue, &ret, &maxDD)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: query run: %w", err)
	}

	run.CreatedAt = time.Unix(0, createdAt).UTC()
	if run.TotalReturn, err = decimal.NewFromString(ret); err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: total_return: %w", err)
	}
	if run.MaxDrawdown, err = decimal.NewFromString(maxDD); err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: max_drawdown: %w", err)
	}

	if run.Trades, err = s.loadTrades(ctx, id, trades); err != nil {
		return domain.Run{}, err
	}
	if run.Prices, run.Values, err = s.loadValues(ctx, id, points); err != nil {
		return domain.Run{}, err
	}
	return run, nil
}

// ListRuns devuelve los runs cuyo created_at está en el rango dado, más recientes primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context, from, to time.Time) ([]domain.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, created_at, points, trades, final_value, total_return, max_drawdown
		FROM runs
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC
	`, from.UTC().UnixNano(), to.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			rs                     domain.RunSummary
			createdAt              int64
			finalValue, ret, maxDD string
		)
		if err := rows.Scan(&rs.ID, &rs.Scenario, &createdAt, &rs.Points, &rs.Trades,
			&finalValue, &ret, &maxDD); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}
		rs.CreatedAt = time.Unix(0, createdAt).UTC()
		if rs.FinalValue, err = decimal.NewFromString(finalValue); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: %s: final_value: %w", rs.ID, err)
		}
		if rs.TotalReturn, err = decimal.NewFromString(ret); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: %s: total_return: %w", rs.ID, err)
		}
		if rs.MaxDrawdown, err = decimal.NewFromString(maxDD); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: %s: max_drawdown: %w", rs.ID, err)
		}
		runs = append(runs, rs)
	}

	return runs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func (s *SQLiteStorage) loadTrades(ctx context.Context, id string, n int) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_index, entry_side, exit_index, exit_side
		FROM run_trades WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRun: query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0, n)
	for rows.Next() {
		var t domain.Trade
		var entrySide, exitSide string
		if err := rows.Scan(&t.Entry.Index, &entrySide, &t.Exit.Index, &exitSide); err != nil {
			return nil, fmt.Errorf("storage.GetRun: scan trade: %w", err)
		}
		if t.Entry.Type, err = domain.ParseOperationType(entrySide); err != nil {
			return nil, fmt.Errorf("storage.GetRun: %w", err)
		}
		if t.Exit.Type, err = domain.ParseOperationType(exitSide); err != nil {
			return nil, fmt.Errorf("storage.GetRun: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *SQLiteStorage) loadValues(ctx context.Context, id string, n int) ([]decimal.Decimal, []decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT price, value FROM run_values WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("storage.GetRun: query values: %w", err)
	}
	defer rows.Close()

	prices := make([]decimal.Decimal, 0, n)
	values := make([]decimal.Decimal, 0, n)
	for rows.Next() {
		var p, v string
		if err := rows.Scan(&p, &v); err != nil {
			return nil, nil, fmt.Errorf("storage.GetRun: scan value: %w", err)
		}
		pd, err := decimal.NewFromString(p)
		if err != nil {
			return nil, nil, fmt.Errorf("storage.GetRun: price %q: %w", p, err)
		}
		vd, err := decimal.NewFromString(v)
		if err != nil {
			return nil, nil, fmt.Errorf("storage.GetRun: value %q: %w", v, err)
		}
		prices = append(prices, pd)
		values = append(values, vd)
	}
	return prices, values, rows.Err()
}

// pruneOld elimina runs anteriores a cutoff junto con sus trades y valores.
func (s *SQLiteStorage) pruneOld(ctx context.Context, cutoff time.Time) error {
	stmts := []string{
		`DELETE FROM runs WHERE created_at < ?`,
		`DELETE FROM run_trades WHERE run_id NOT IN (SELECT id FROM runs)`,
		`DELETE FROM run_values WHERE run_id NOT IN (SELECT id FROM runs)`,
	}
	for i, q := range stmts {
		var err error
		if i == 0 {
			_, err = s.db.ExecContext(ctx, q, cutoff.UnixNano())
		} else {
			_, err = s.db.ExecContext(ctx, q)
		}
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
	}
	return nil
}
