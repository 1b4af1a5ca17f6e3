package repositories

import (
	"context"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
)

// OrderSource materializes every order created inside rng whose status is one
// of statuses. Implementations report retrieval progress to sink.
type OrderSource interface {
	Orders(ctx context.Context, rng models.DateRange, statuses []string, sink progress.Sink) ([]models.Order, error)
}
