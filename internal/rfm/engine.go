// Package rfm scores customers on recency, frequency and monetary value and
// groups them into segments.
package rfm

import (
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/shopspring/decimal"
)

type Engine struct {
	loc *time.Location
}

func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc}
}

type customerRaw struct {
	id  int64
	raw models.RawCustomerScore
}

// Analyze runs the full pipeline over orders. Recency is measured in whole days
// back from referenceDate.
func (e *Engine) Analyze(orders []models.Order, referenceDate time.Time) (models.RFMResult, error) {
	raws, err := e.rawScores(groupByCustomer(orders), referenceDate)
	if err != nil {
		return models.RFMResult{}, err
	}

	quantiles := quantilesOf(raws)
	scores := assignScores(raws, quantiles)

	segments := make(map[models.Segment]int)
	for _, s := range scores {
		segments[s.Segment]++
	}

	return models.RFMResult{
		Segments:       segments,
		TotalCustomers: len(scores),
		Metrics:        aggregateMetrics(raws),
		Quantiles:      quantiles,
		Customers:      scores,
	}, nil
}

func groupByCustomer(orders []models.Order) map[int64][]models.Order {
	groups := make(map[int64][]models.Order)
	for _, o := range orders {
		groups[o.CustomerID] = append(groups[o.CustomerID], o)
	}
	return groups
}

func (e *Engine) rawScores(groups map[int64][]models.Order, ref time.Time) ([]customerRaw, error) {
	out := make([]customerRaw, 0, len(groups))
	for id, orders := range groups {
		var last time.Time
		monetary := decimal.Zero
		for _, o := range orders {
			total, err := o.Total.Decimal()
			if err != nil {
				return nil, &models.MalformedRecordError{OrderID: o.ID, Field: "total", Value: string(o.Total), Err: err}
			}
			if o.DateCreated.IsZero() && o.DateCreatedGMT.IsZero() {
				return nil, &models.MalformedRecordError{OrderID: o.ID, Field: "date_created", Err: models.ErrMissingValue}
			}
			monetary = monetary.Add(total)
			if created := o.CreatedAt(e.loc); created.After(last) {
				last = created
			}
		}

		recency := int(math.Floor(ref.Sub(last).Hours() / 24))
		if recency < 0 {
			recency = 0
		}
		out = append(out, customerRaw{id: id, raw: models.RawCustomerScore{
			RecencyDays: recency,
			Frequency:   len(orders),
			Monetary:    monetary,
		}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}

func quantilesOf(raws []customerRaw) models.Quantiles {
	recency := make([]float64, len(raws))
	frequency := make([]float64, len(raws))
	monetary := make([]float64, len(raws))
	for i, c := range raws {
		recency[i] = float64(c.raw.RecencyDays)
		frequency[i] = float64(c.raw.Frequency)
		monetary[i] = c.raw.Monetary.InexactFloat64()
	}
	return models.Quantiles{
		Recency:   NewQuantileTable(recency),
		Frequency: NewQuantileTable(frequency),
		Monetary:  NewQuantileTable(monetary),
	}
}

func assignScores(raws []customerRaw, q models.Quantiles) []models.RFMScore {
	out := make([]models.RFMScore, len(raws))
	for i, c := range raws {
		r := scoreLowerBetter(float64(c.raw.RecencyDays), q.Recency)
		f := scoreHigherBetter(float64(c.raw.Frequency), q.Frequency)
		m := scoreHigherBetter(c.raw.Monetary.InexactFloat64(), q.Monetary)
		out[i] = models.RFMScore{
			CustomerID: c.id,
			R:          r,
			F:          f,
			M:          m,
			Segment:    Classify(r, f, m),
			Raw:        c.raw,
		}
	}
	return out
}

func aggregateMetrics(raws []customerRaw) models.RFMMetrics {
	if len(raws) == 0 {
		return models.RFMMetrics{}
	}
	first := raws[0].raw
	m := models.RFMMetrics{
		RecencyRange:   models.IntRange{Min: first.RecencyDays, Max: first.RecencyDays},
		FrequencyRange: models.IntRange{Min: first.Frequency, Max: first.Frequency},
		MonetaryRange:  models.DecimalRange{Min: first.Monetary, Max: first.Monetary},
	}

	var recencySum, frequencySum int
	monetarySum := decimal.Zero
	for _, c := range raws {
		recencySum += c.raw.RecencyDays
		frequencySum += c.raw.Frequency
		monetarySum = monetarySum.Add(c.raw.Monetary)

		m.RecencyRange.Min = min(m.RecencyRange.Min, c.raw.RecencyDays)
		m.RecencyRange.Max = max(m.RecencyRange.Max, c.raw.RecencyDays)
		m.FrequencyRange.Min = min(m.FrequencyRange.Min, c.raw.Frequency)
		m.FrequencyRange.Max = max(m.FrequencyRange.Max, c.raw.Frequency)
		m.MonetaryRange.Min = decimal.Min(m.MonetaryRange.Min, c.raw.Monetary)
		m.MonetaryRange.Max = decimal.Max(m.MonetaryRange.Max, c.raw.Monetary)
	}

	n := len(raws)
	m.AverageRecency = float64(recencySum) / float64(n)
	m.AverageFrequency = float64(frequencySum) / float64(n)
	m.AverageMonetary = monetarySum.Div(decimal.NewFromInt(int64(n)))
	return m
}
