package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cashflow/internal/domain"
	"github.com/alejandrodnm/cashflow/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoStorage se devuelve al consultar el histórico sin storage (dry-run).
var ErrNoStorage = errors.New("no storage configured")

// Config contiene la configuración del servicio.
type Config struct {
	Validate bool // rechazar trades mal formados antes de calcular
	Workers  int  // goroutines para RunAll (0 = NumCPU)
}

// Service orquesta escenario → cash flow → storage → notifier.
type Service struct {
	cfg      Config
	store    ports.Storage // nil = dry-run, no se persiste nada
	notifier ports.Notifier
	now      func() time.Time
}

// New crea el servicio con sus dependencias inyectadas. store puede ser nil.
func New(cfg Config, store ports.Storage, notifier ports.Notifier) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Compute calcula el run de un escenario sin efectos secundarios.
func (s *Service) Compute(sc domain.Scenario) (domain.Run, error) {
	series, err := sc.Series()
	if err != nil {
		return domain.Run{}, fmt.Errorf("flow.Compute: %s: %w", sc.Name, err)
	}

	if s.cfg.Validate {
		if err := domain.ValidateTrades(sc.Trades, series.Size()); err != nil {
			slog.Warn("scenario rejected", "scenario", sc.Name, "err", err)
			return domain.Run{}, fmt.Errorf("flow.Compute: %s: %w", sc.Name, err)
		}
	}

	cf := domain.NewCashFlow(series, sc.Trades)

	prices := make([]decimal.Decimal, series.Size())
	for i := range prices {
		prices[i] = series.Price(i)
	}

	return domain.Run{
		ID:          uuid.NewString(),
		Scenario:    sc.Name,
		CreatedAt:   s.now(),
		Prices:      prices,
		Trades:      sc.Trades,
		Values:      cf.Values(),
		TotalReturn: domain.TotalReturn(cf),
		MaxDrawdown: domain.MaxDrawdown(cf),
	}, nil
}

// Run calcula, persiste y notifica un escenario.
func (s *Service) Run(ctx context.Context, sc domain.Scenario) (domain.Run, error) {
	slog.Info("computing cash flow", "scenario", sc.Name, "prices", len(sc.Prices), "trades", len(sc.Trades))

	run, err := s.Compute(sc)
	if err != nil {
		return domain.Run{}, err
	}
	if err := s.publish(ctx, run); err != nil {
		return domain.Run{}, err
	}
	return run, nil
}

// RunAll calcula todos los escenarios en paralelo y luego persiste y
// notifica en el orden de entrada. Un escenario inválido no detiene a los demás;
// los errores se devuelven juntos.
func (s *Service) RunAll(ctx context.Context, scenarios []domain.Scenario) ([]domain.Run, error) {
	results := s.computeConcurrent(ctx, scenarios)

	var (
		runs []domain.Run
		errs []error
	)
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if err := s.publish(ctx, r.run); err != nil {
			errs = append(errs, err)
			continue
		}
		runs = append(runs, r.run)
	}
	return runs, errors.Join(errs...)
}

// History devuelve los runs guardados en la ventana [now-since, now].
func (s *Service) History(ctx context.Context, since time.Duration) ([]domain.RunSummary, error) {
	if s.store == nil {
		return nil, fmt.Errorf("flow.History: %w", ErrNoStorage)
	}
	now := s.now()
	runs, err := s.store.ListRuns(ctx, now.Add(-since), now)
	if err != nil {
		return nil, fmt.Errorf("flow.History: %w", err)
	}
	return runs, nil
}

// Show carga un run guardado y lo vuelve a notificar.
func (s *Service) Show(ctx context.Context, id string) (domain.Run, error) {
	if s.store == nil {
		return domain.Run{}, fmt.Errorf("flow.Show: %w", ErrNoStorage)
	}
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return domain.Run{}, fmt.Errorf("flow.Show: %w", err)
	}
	if err := s.notifier.Notify(ctx, run); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return run, nil
}

func (s *Service) publish(ctx context.Context, run domain.Run) error {
	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("flow.Run: save %s: %w", run.ID, err)
		}
	}

	// El notifier no es crítico: un fallo de presentación no invalida el run.
	if err := s.notifier.Notify(ctx, run); err != nil {
		slog.Warn("notifier error", "run", run.ID, "err", err)
	}

	slog.Info("cash flow computed",
		"run", run.ID,
		"scenario", run.Scenario,
		"final", run.FinalValue().StringFixed(6),
		"persisted", s.store != nil,
	)
	return nil
}
