package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/shopspring/decimal"
)

const dayLabelLayout = "2 Jan"

// revenueSeries buckets order totals by hour when the requested range is a
// single calendar day, and by calendar day otherwise.
type revenueSeries struct {
	loc    *time.Location
	hourly bool
	hours  [24]decimal.Decimal
	days   map[time.Time]decimal.Decimal
}

func newRevenueSeries(rng models.DateRange, loc *time.Location) *revenueSeries {
	s := &revenueSeries{loc: loc, hourly: rng.SingleDay(loc)}
	if !s.hourly {
		s.days = make(map[time.Time]decimal.Decimal)
	}
	return s
}

func (s *revenueSeries) add(at time.Time, value decimal.Decimal) {
	at = at.In(s.loc)
	if s.hourly {
		s.hours[at.Hour()] = s.hours[at.Hour()].Add(value)
		return
	}
	y, m, d := at.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	s.days[day] = s.days[day].Add(value)
}

func (s *revenueSeries) buckets() []models.RevenueBucket {
	if s.hourly {
		out := make([]models.RevenueBucket, 24)
		for h := range out {
			out[h] = models.RevenueBucket{Label: fmt.Sprintf("%02d:00", h), Value: s.hours[h]}
		}
		return out
	}

	days := make([]time.Time, 0, len(s.days))
	for d := range s.days {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]models.RevenueBucket, len(days))
	for i, d := range days {
		out[i] = models.RevenueBucket{Label: d.Format(dayLabelLayout), Value: s.days[d]}
	}
	return out
}
