package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Querier is the part of *pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OrderRepository reads orders from a Postgres mirror of the store, one row
// per order with line items kept as jsonb.
type OrderRepository struct {
	db    Querier
	query string
}

// Connect opens a pool on databaseURL and checks it answers.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

func NewOrderRepository(db Querier, table string) (*OrderRepository, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid orders table name %q", table)
	}
	query := fmt.Sprintf(`
        SELECT id, customer_id, date_created, total::text, status, line_items
        FROM %s
        WHERE date_created >= $1 AND date_created <= $2
          AND (cardinality($3::text[]) = 0 OR status = ANY($3))
        ORDER BY date_created, id`, table)
	return &OrderRepository{db: db, query: query}, nil
}

func (r *OrderRepository) Orders(ctx context.Context, rng models.DateRange, statuses []string, sink progress.Sink) ([]models.Order, error) {
	if sink == nil {
		sink = progress.Discard
	}
	if statuses == nil {
		statuses = []string{}
	}
	sink.SetProgress(30, "retrieving data")

	rows, err := r.db.Query(ctx, r.query, rng.Start, rng.End, statuses)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			o         models.Order
			created   time.Time
			total     string
			lineItems []byte
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &created, &total, &o.Status, &lineItems); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.DateCreated = models.NewTimestamp(created)
		o.Total = models.Amount(total)
		if len(lineItems) > 0 {
			if err := json.Unmarshal(lineItems, &o.LineItems); err != nil {
				return nil, fmt.Errorf("order %d: decode line_items: %w", o.ID, err)
			}
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}

	sink.SetProgress(60, "retrieving data")
	return orders, nil
}
