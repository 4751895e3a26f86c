package flow

// concurrent.go — worker pool para calcular varios escenarios a la vez.
//
// El cálculo es CPU puro; storage y notifier se ejercen después, en orden,
// desde una sola goroutine.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/cashflow/internal/domain"
)

type result struct {
	run domain.Run
	err error
}

// computeConcurrent calcula cada escenario en un worker y devuelve los
// resultados en el mismo orden que la entrada.
//
// Si cfg.Workers <= 0 usa runtime.NumCPU().
func (s *Service) computeConcurrent(ctx context.Context, scenarios []domain.Scenario) []result {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(scenarios), 1))

	results := make([]result, len(scenarios))
	workCh := make(chan int, len(scenarios))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if err := ctx.Err(); err != nil {
					results[idx] = result{err: err}
					continue
				}
				run, err := s.Compute(scenarios[idx])
				results[idx] = result{run: run, err: err}
			}
		}()
	}

	for i := range scenarios {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	slog.Debug("concurrent compute complete",
		"scenarios", len(scenarios),
		"workers", workers,
	)
	return results
}
