package factories

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
	"github.com/sirupsen/logrus"
)

// DemoSource serves synthetic orders spread evenly over the requested range,
// so the analyses can run without a store.
type DemoSource struct {
	seed      int64
	orders    int
	customers int
	logger    logrus.FieldLogger
}

func NewDemoSource(cfg *models.Config, logger logrus.FieldLogger) *DemoSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DemoSource{
		seed:      cfg.DemoSeed,
		orders:    cfg.DemoOrders,
		customers: cfg.DemoCustomers,
		logger:    logger,
	}
}

// Orders generates the demo order stream for rng and keeps those whose status
// is in statuses. The stream depends only on the seed and rng.
func (s *DemoSource) Orders(ctx context.Context, rng models.DateRange, statuses []string, sink progress.Sink) ([]models.Order, error) {
	if sink == nil {
		sink = progress.Discard
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generate demo orders: %w", err)
	}
	span := rng.End.Sub(rng.Start)
	if span < 0 || s.orders <= 0 {
		return nil, nil
	}
	sink.SetProgress(30, "retrieving data")

	allowed := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}

	factory := NewOrderFactory(s.seed, s.customers)
	step := span / time.Duration(s.orders)
	var out []models.Order
	for i := 0; i < s.orders; i++ {
		created := rng.Start.Add(step*time.Duration(i) + time.Duration(factory.rnd.Int63n(int64(step)+1)))
		if created.After(rng.End) {
			created = rng.End
		}
		o := factory.CreateOrder(int64(i+1), created)
		if len(allowed) > 0 && !allowed[o.Status] {
			continue
		}
		out = append(out, o)
	}

	s.logger.WithFields(logrus.Fields{
		"source": models.SourceDemo,
		"orders": len(out),
	}).Debug("generated demo orders")
	sink.SetProgress(60, "retrieving data")
	return out, nil
}
