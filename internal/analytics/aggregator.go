// Package analytics reduces an order list to the dashboard's revenue, product,
// category and customer figures.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
	"github.com/shopspring/decimal"
)

// TopN is how many products and categories the rollups keep.
const TopN = 5

type Aggregator struct {
	loc  *time.Location
	sink progress.Sink
}

func NewAggregator(loc *time.Location, sink progress.Sink) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	if sink == nil {
		sink = progress.Discard
	}
	return &Aggregator{loc: loc, sink: sink}
}

type productAcc struct {
	name     string
	quantity int
	revenue  decimal.Decimal
}

type categoryAcc struct {
	name     string
	revenue  decimal.Decimal
	orders   int
	products int
}

// Aggregate walks orders once. rng only selects the revenue series granularity.
// A line item listed under several categories adds its full total to each of them.
func (a *Aggregator) Aggregate(orders []models.Order, rng models.DateRange) (models.AggregateResult, error) {
	var (
		totalRevenue  = decimal.Zero
		totalProducts int
		perCustomer   = make(map[int64]int)
		products      = make(map[int64]*productAcc)
		categories    = make(map[int64]*categoryAcc)
		series        = newRevenueSeries(rng, a.loc)
	)

	for i, order := range orders {
		orderTotal, err := parseAmount(order.ID, "total", order.Total)
		if err != nil {
			return models.AggregateResult{}, err
		}
		if order.DateCreated.IsZero() && order.DateCreatedGMT.IsZero() {
			return models.AggregateResult{}, &models.MalformedRecordError{OrderID: order.ID, Field: "date_created", Err: models.ErrMissingValue}
		}
		totalRevenue = totalRevenue.Add(orderTotal)
		perCustomer[order.CustomerID]++
		series.add(order.CreatedAt(a.loc), orderTotal)

		for _, item := range order.LineItems {
			itemTotal, err := parseAmount(order.ID, "line_items.total", item.Total)
			if err != nil {
				return models.AggregateResult{}, err
			}
			totalProducts += item.Quantity

			p, ok := products[item.ProductID]
			if !ok {
				p = &productAcc{name: item.Name, revenue: decimal.Zero}
				products[item.ProductID] = p
			}
			p.quantity += item.Quantity
			p.revenue = p.revenue.Add(itemTotal)

			for _, cat := range item.Categories {
				c, ok := categories[cat.ID]
				if !ok {
					c = &categoryAcc{name: cat.Name, revenue: decimal.Zero}
					categories[cat.ID] = c
				}
				c.revenue = c.revenue.Add(itemTotal)
				c.orders++
				c.products += item.Quantity
			}
		}

		if i%10 == 0 {
			a.sink.SetProgress(60+math.Min(float64(i)/float64(len(orders))*20, 20), "analyzing data")
		}
	}

	repeat := 0
	for _, n := range perCustomer {
		if n > 1 {
			repeat++
		}
	}

	totalOrders := len(orders)
	result := models.AggregateResult{
		TotalRevenue:      totalRevenue,
		TotalOrders:       totalOrders,
		AverageOrderValue: decimal.Zero,
		TotalProductsSold: totalProducts,
		RevenueData:       series.buckets(),
		TopProducts:       topProducts(products),
		CustomerMetrics: models.CustomerMetrics{
			Total:  len(perCustomer),
			Repeat: repeat,
			New:    len(perCustomer) - repeat,
		},
		AdvancedMetrics: models.AdvancedMetrics{
			TopCategories: topCategories(categories),
		},
	}
	if totalOrders > 0 {
		result.AverageOrderValue = totalRevenue.Div(decimal.NewFromInt(int64(totalOrders)))
		result.AdvancedMetrics.AverageItemsPerOrder = float64(totalProducts) / float64(totalOrders)
	}
	if len(perCustomer) > 0 {
		result.AdvancedMetrics.RepeatPurchaseRate = float64(repeat) / float64(len(perCustomer)) * 100
	}
	return result, nil
}

func parseAmount(orderID int64, field string, a models.Amount) (decimal.Decimal, error) {
	d, err := a.Decimal()
	if err != nil {
		return decimal.Zero, &models.MalformedRecordError{OrderID: orderID, Field: field, Value: string(a), Err: err}
	}
	return d, nil
}

func topProducts(acc map[int64]*productAcc) []models.ProductSummary {
	out := make([]models.ProductSummary, 0, len(acc))
	for id, p := range acc {
		out = append(out, models.ProductSummary{
			ProductID: id,
			Name:      p.name,
			Sales:     p.quantity,
			Revenue:   p.revenue,
			Quantity:  p.quantity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

func topCategories(acc map[int64]*categoryAcc) []models.CategorySummary {
	out := make([]models.CategorySummary, 0, len(acc))
	for id, c := range acc {
		out = append(out, models.CategorySummary{
			CategoryID: id,
			Name:       c.name,
			Revenue:    c.revenue,
			Orders:     c.orders,
			Products:   c.products,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}
