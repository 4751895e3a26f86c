package ports

import (
	"context"

	"github.com/alejandrodnm/cashflow/internal/domain"
)

// Notifier presenta el resultado de un run al usuario.
type Notifier interface {
	// Notify muestra la curva del run y su resumen.
	// En la implementación de consola, imprime una línea o una tabla formateada.
	Notify(ctx context.Context, run domain.Run) error
}
