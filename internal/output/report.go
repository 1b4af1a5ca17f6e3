// Package output renders a finished analysis as a one-shot report in JSON,
// CSV or parquet.
package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/lucsky/cuid"
	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatParquet:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

func (f Format) contentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/json"
	}
}

const (
	KindDashboard = "dashboard"
	KindRFM       = "rfm"
)

// Report is the rendered form of one analysis run.
type Report struct {
	RunID       string                  `json:"runId"`
	Kind        string                  `json:"kind"`
	Title       string                  `json:"title,omitempty"`
	GeneratedAt time.Time               `json:"generatedAt"`
	RangeStart  time.Time               `json:"rangeStart"`
	RangeEnd    time.Time               `json:"rangeEnd"`
	Dashboard   *models.AggregateResult `json:"dashboard,omitempty"`
	RFM         *models.RFMResult       `json:"rfm,omitempty"`
}

func NewDashboardReport(title string, rng models.DateRange, res models.AggregateResult, generatedAt time.Time) Report {
	return Report{
		RunID:       cuid.New(),
		Kind:        KindDashboard,
		Title:       title,
		GeneratedAt: generatedAt,
		RangeStart:  rng.Start,
		RangeEnd:    rng.End,
		Dashboard:   &res,
	}
}

func NewRFMReport(title string, rng models.DateRange, res models.RFMResult, generatedAt time.Time) Report {
	return Report{
		RunID:       cuid.New(),
		Kind:        KindRFM,
		Title:       title,
		GeneratedAt: generatedAt,
		RangeStart:  rng.Start,
		RangeEnd:    rng.End,
		RFM:         &res,
	}
}

// DashboardRow is one flattened dashboard figure. Section is one of summary,
// revenue, product or category.
type DashboardRow struct {
	RunID    string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Section  string `parquet:"name=section, type=BYTE_ARRAY, convertedtype=UTF8"`
	Key      string `parquet:"name=key, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label    string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value    string `parquet:"name=value, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantity int64  `parquet:"name=quantity, type=INT64"`
	Orders   int64  `parquet:"name=orders, type=INT64"`
}

var dashboardHeader = []string{"run_id", "section", "key", "label", "value", "quantity", "orders"}

func (r DashboardRow) record() []string {
	return []string{r.RunID, r.Section, r.Key, r.Label, r.Value,
		strconv.FormatInt(r.Quantity, 10), strconv.FormatInt(r.Orders, 10)}
}

// CustomerRow is one scored customer.
type CustomerRow struct {
	RunID       string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerID  int64  `parquet:"name=customer_id, type=INT64"`
	RecencyDays int32  `parquet:"name=recency_days, type=INT32"`
	Frequency   int32  `parquet:"name=frequency, type=INT32"`
	Monetary    string `parquet:"name=monetary, type=BYTE_ARRAY, convertedtype=UTF8"`
	R           int32  `parquet:"name=r, type=INT32"`
	F           int32  `parquet:"name=f, type=INT32"`
	M           int32  `parquet:"name=m, type=INT32"`
	Segment     string `parquet:"name=segment, type=BYTE_ARRAY, convertedtype=UTF8"`
}

var customerHeader = []string{"run_id", "customer_id", "recency_days", "frequency", "monetary", "r", "f", "m", "segment"}

func (r CustomerRow) record() []string {
	itoa := func(v int32) string { return strconv.FormatInt(int64(v), 10) }
	return []string{r.RunID, strconv.FormatInt(r.CustomerID, 10), itoa(r.RecencyDays), itoa(r.Frequency),
		r.Monetary, itoa(r.R), itoa(r.F), itoa(r.M), r.Segment}
}

func (r Report) dashboardRows() []DashboardRow {
	d := r.Dashboard
	row := func(section, key, label, value string) DashboardRow {
		return DashboardRow{RunID: r.RunID, Section: section, Key: key, Label: label, Value: value}
	}
	float := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	rows := []DashboardRow{
		row("summary", "totalRevenue", "Total revenue", d.TotalRevenue.StringFixed(2)),
		row("summary", "totalOrders", "Total orders", strconv.Itoa(d.TotalOrders)),
		row("summary", "averageOrderValue", "Average order value", d.AverageOrderValue.StringFixed(2)),
		row("summary", "totalProductsSold", "Products sold", strconv.Itoa(d.TotalProductsSold)),
		row("summary", "customers", "Customers", strconv.Itoa(d.CustomerMetrics.Total)),
		row("summary", "repeatCustomers", "Repeat customers", strconv.Itoa(d.CustomerMetrics.Repeat)),
		row("summary", "newCustomers", "New customers", strconv.Itoa(d.CustomerMetrics.New)),
		row("summary", "repeatPurchaseRate", "Repeat purchase rate", float(d.AdvancedMetrics.RepeatPurchaseRate)),
		row("summary", "averageItemsPerOrder", "Average items per order", float(d.AdvancedMetrics.AverageItemsPerOrder)),
	}
	for i, b := range d.RevenueData {
		rows = append(rows, row("revenue", strconv.Itoa(i), b.Label, b.Value.StringFixed(2)))
	}
	for _, p := range d.TopProducts {
		pr := row("product", strconv.FormatInt(p.ProductID, 10), p.Name, p.Revenue.StringFixed(2))
		pr.Quantity = int64(p.Quantity)
		rows = append(rows, pr)
	}
	for _, c := range d.AdvancedMetrics.TopCategories {
		cr := row("category", strconv.FormatInt(c.CategoryID, 10), c.Name, c.Revenue.StringFixed(2))
		cr.Quantity = int64(c.Products)
		cr.Orders = int64(c.Orders)
		rows = append(rows, cr)
	}
	return rows
}

func (r Report) customerRows() []CustomerRow {
	rows := make([]CustomerRow, len(r.RFM.Customers))
	for i, c := range r.RFM.Customers {
		rows[i] = CustomerRow{
			RunID:       r.RunID,
			CustomerID:  c.CustomerID,
			RecencyDays: int32(c.Raw.RecencyDays),
			Frequency:   int32(c.Raw.Frequency),
			Monetary:    c.Raw.Monetary.StringFixed(2),
			R:           int32(c.R),
			F:           int32(c.F),
			M:           int32(c.M),
			Segment:     string(c.Segment),
		}
	}
	return rows
}

// SegmentSummary lists the populated segments, largest first with ties in
// rule order, and their share of all customers.
func SegmentSummary(res models.RFMResult) []SegmentShare {
	var out []SegmentShare
	for _, seg := range models.Segments {
		n, ok := res.Segments[seg]
		if !ok {
			continue
		}
		share := decimal.Zero
		if res.TotalCustomers > 0 {
			share = decimal.NewFromInt(int64(n) * 100).Div(decimal.NewFromInt(int64(res.TotalCustomers)))
		}
		out = append(out, SegmentShare{Segment: seg, Customers: n, Percent: share.Round(1)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Customers > out[j].Customers })
	return out
}

type SegmentShare struct {
	Segment   models.Segment  `json:"segment"`
	Customers int             `json:"customers"`
	Percent   decimal.Decimal `json:"percent"`
}
