package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/wooinsights/internal/daterange"
	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type fakeSource struct {
	orders   []models.Order
	err      error
	pages    int
	gotRange models.DateRange
	statuses []string
}

func (f *fakeSource) Orders(ctx context.Context, rng models.DateRange, statuses []string, sink progress.Sink) ([]models.Order, error) {
	f.gotRange = rng
	f.statuses = statuses
	for page := 1; page <= f.pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sink.SetProgress(float64(min(20+page*10, 60)), "retrieving data")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

type updates struct {
	mu  sync.Mutex
	got []progress.Update
}

func (u *updates) record(up progress.Update) {
	u.mu.Lock()
	u.got = append(u.got, up)
	u.mu.Unlock()
}

func (u *updates) percents() []int {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]int, len(u.got))
	for i, up := range u.got {
		out[i] = up.Progress
	}
	return out
}

func newService(t *testing.T, src *fakeSource) (*AnalysisService, *updates) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	resolver := daterange.NewResolver(time.UTC, daterange.WithClock(func() time.Time { return clock }), daterange.WithLogger(logger))
	reporter := progress.NewReporter()
	rec := &updates{}
	t.Cleanup(reporter.Subscribe(rec.record))
	return NewAnalysisService(src, resolver, reporter, WithLogger(logger)), rec
}

func order(id, customer int64, at time.Time, total string) models.Order {
	return models.Order{
		ID:          id,
		CustomerID:  customer,
		DateCreated: models.NewTimestamp(at),
		Total:       models.Amount(total),
		Status:      "completed",
		LineItems: []models.LineItem{
			{ProductID: 9, Name: "Mug", Quantity: 1, Total: models.Amount(total)},
		},
	}
}

func TestDashboardProgressSequence(t *testing.T) {
	src := &fakeSource{pages: 2, orders: []models.Order{
		order(1, 1, clock.AddDate(0, 0, -2), "10.00"),
		order(2, 1, clock.AddDate(0, 0, -3), "15.00"),
		order(3, 2, clock.AddDate(0, 0, -4), "5.00"),
	}}
	svc, rec := newService(t, src)

	res, err := svc.Dashboard(context.Background(), RangeRequest{Token: daterange.Last7Days})
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalOrders)
	assert.Equal(t, "30", res.TotalRevenue.String())
	assert.Equal(t, []int{0, 10, 20, 30, 40, 60, 60, 80, 100}, rec.percents())
	assert.Equal(t, progress.Update{Progress: 100, Message: "completed"}, svc.Reporter().Snapshot())
	assert.Equal(t, DefaultDashboardStatuses, src.statuses)
}

func TestDashboardDefaultsToLastFiveDays(t *testing.T) {
	src := &fakeSource{}
	svc, _ := newService(t, src)

	_, err := svc.Dashboard(context.Background(), RangeRequest{})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), src.gotRange.Start)
	assert.Equal(t, time.Date(2024, 3, 14, 23, 59, 59, 999000000, time.UTC), src.gotRange.End)
}

func TestDashboardCustomRange(t *testing.T) {
	src := &fakeSource{}
	svc, _ := newService(t, src)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Dashboard(context.Background(), RangeRequest{Token: daterange.Custom, Start: start, End: end})
	require.NoError(t, err)
	assert.Equal(t, start, src.gotRange.Start)
	assert.Equal(t, time.Date(2024, 2, 10, 23, 59, 59, 999000000, time.UTC), src.gotRange.End)

	_, err = svc.Dashboard(context.Background(), RangeRequest{Token: daterange.Custom, Start: start})
	assert.ErrorIs(t, err, ErrMissingBounds)

	_, err = svc.Dashboard(context.Background(), RangeRequest{Start: end, End: start})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestDashboardPropagatesRetrievalFailure(t *testing.T) {
	boom := errors.New("HTTP error! status: 500")
	svc, rec := newService(t, &fakeSource{pages: 1, err: boom})

	_, err := svc.Dashboard(context.Background(), RangeRequest{Token: daterange.Today})
	require.ErrorIs(t, err, boom)

	// no completion is reported after a failure
	assert.Equal(t, []int{0, 10, 20, 30}, rec.percents())
}

func TestDashboardReportsMalformedOrders(t *testing.T) {
	src := &fakeSource{orders: []models.Order{order(77, 1, clock, "abc")}}
	svc, _ := newService(t, src)

	_, err := svc.Dashboard(context.Background(), RangeRequest{Token: daterange.Today})

	var merr *models.MalformedRecordError
	require.ErrorAs(t, err, &merr)
	assert.EqualValues(t, 77, merr.OrderID)
}

func TestDashboardStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc, _ := newService(t, &fakeSource{pages: 3})

	_, err := svc.Dashboard(ctx, RangeRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRFMUsesRangeEndAsReference(t *testing.T) {
	src := &fakeSource{orders: []models.Order{
		order(1, 1, time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC), "50"),
		order(2, 2, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), "20"),
	}}
	svc, rec := newService(t, src)

	res, err := svc.RFM(context.Background(), RangeRequest{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), src.gotRange.Start)
	assert.Equal(t, DefaultRFMStatuses, src.statuses)
	assert.Equal(t, 2, res.TotalCustomers)
	// range ends 2024-03-14 23:59:59.999
	assert.Equal(t, 15, res.Customers[0].Raw.RecencyDays)
	assert.Equal(t, []int{10, 30, 60, 100}, rec.percents())
}

func TestRFMExplicitReferenceDate(t *testing.T) {
	src := &fakeSource{orders: []models.Order{order(1, 1, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "50")}}
	svc, _ := newService(t, src)

	res, err := svc.RFM(context.Background(), RangeRequest{Token: daterange.LastMonth}, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Customers[0].Raw.RecencyDays)
}

func TestRFMPropagatesRetrievalFailure(t *testing.T) {
	boom := errors.New("unavailable")
	svc, _ := newService(t, &fakeSource{err: boom})

	_, err := svc.RFM(context.Background(), RangeRequest{}, time.Time{})
	assert.ErrorIs(t, err, boom)
}

func TestWithStatusesOverridesDefaults(t *testing.T) {
	src := &fakeSource{}
	svc, _ := newService(t, src)
	WithStatuses([]string{"processing"}, nil)(svc)

	_, err := svc.Dashboard(context.Background(), RangeRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"processing"}, src.statuses)
	assert.Equal(t, DefaultRFMStatuses, svc.rfmStatuses)
}

func TestWindowsMatchAnalysedRange(t *testing.T) {
	src := &fakeSource{}
	svc, _ := newService(t, src)

	want, err := svc.RFMWindow(RangeRequest{})
	require.NoError(t, err)
	_, err = svc.RFM(context.Background(), RangeRequest{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, want, src.gotRange)

	want, err = svc.DashboardWindow(RangeRequest{Token: daterange.Yesterday})
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), RangeRequest{Token: daterange.Yesterday})
	require.NoError(t, err)
	assert.Equal(t, want, src.gotRange)
}
