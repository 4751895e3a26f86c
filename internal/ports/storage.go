package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/cashflow/internal/domain"
)

// Storage persiste los runs calculados.
type Storage interface {
	// SaveRun guarda el run completo: escenario, trades y curva de valores.
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRun devuelve un run por ID con todos sus valores.
	GetRun(ctx context.Context, id string) (domain.Run, error)

	// ListRuns devuelve los runs creados en el rango dado, más recientes primero.
	ListRuns(ctx context.Context, from, to time.Time) ([]domain.RunSummary, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
