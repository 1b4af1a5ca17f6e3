package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/wooinsights/internal/cloudwriter"
	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	generated = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	window    = models.DateRange{
		Start: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 14, 23, 59, 59, 999000000, time.UTC),
	}
)

func dashboardReport() Report {
	res := models.AggregateResult{
		TotalRevenue:      decimal.RequireFromString("120.5"),
		TotalOrders:       3,
		AverageOrderValue: decimal.RequireFromString("40.1666"),
		TotalProductsSold: 7,
		RevenueData: []models.RevenueBucket{
			{Label: "10 Mar", Value: decimal.RequireFromString("100.5")},
			{Label: "12 Mar", Value: decimal.NewFromInt(20)},
		},
		TopProducts: []models.ProductSummary{
			{ProductID: 11, Name: "Espresso, double", Sales: 4, Revenue: decimal.NewFromInt(80), Quantity: 4},
		},
		CustomerMetrics: models.CustomerMetrics{Total: 2, Repeat: 1, New: 1},
		AdvancedMetrics: models.AdvancedMetrics{
			RepeatPurchaseRate:   50,
			AverageItemsPerOrder: 7.0 / 3,
			TopCategories: []models.CategorySummary{
				{CategoryID: 3, Name: "Coffee", Revenue: decimal.NewFromInt(80), Orders: 2, Products: 4},
			},
		},
	}
	return NewDashboardReport("Shop", window, res, generated)
}

func rfmReport() Report {
	res := models.RFMResult{
		Segments:       map[models.Segment]int{models.SegmentChampions: 1, models.SegmentLost: 2},
		TotalCustomers: 3,
		Customers: []models.RFMScore{
			{CustomerID: 1, R: 5, F: 5, M: 5, Segment: models.SegmentChampions,
				Raw: models.RawCustomerScore{RecencyDays: 1, Frequency: 4, Monetary: decimal.RequireFromString("310.2")}},
			{CustomerID: 2, R: 1, F: 1, M: 2, Segment: models.SegmentLost,
				Raw: models.RawCustomerScore{RecencyDays: 80, Frequency: 1, Monetary: decimal.NewFromInt(12)}},
		},
	}
	return NewRFMReport("Shop", window, res, generated)
}

func newExporter(cloud cloudwriter.CloudWriterFactory) (*Exporter, *bytes.Buffer) {
	logger, _ := test.NewNullLogger()
	var stdout bytes.Buffer
	return NewExporter(&stdout, cloud, logger), &stdout
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, " csv ": FormatCSV, "parquet": FormatParquet} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestReportsGetDistinctRunIDs(t *testing.T) {
	a, b := dashboardReport(), dashboardReport()
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestExportJSONToStdout(t *testing.T) {
	e, stdout := newExporter(nil)
	report := dashboardReport()

	require.NoError(t, e.Export(report, FormatJSON, ""))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, "dashboard", decoded["kind"])
	assert.Equal(t, report.RunID, decoded["runId"])
	dash := decoded["dashboard"].(map[string]any)
	assert.Equal(t, "120.5", dash["totalRevenue"])
	assert.NotContains(t, decoded, "rfm")
	assert.True(t, strings.HasPrefix(stdout.String(), "{\n  \""))
}

func TestDashboardCSVRows(t *testing.T) {
	e, stdout := newExporter(nil)
	report := dashboardReport()
	require.NoError(t, e.Export(report, FormatCSV, "-"))

	records, err := csv.NewReader(stdout).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, dashboardHeader, records[0])
	// 9 summary figures, 2 revenue buckets, 1 product, 1 category
	require.Len(t, records, 1+9+2+1+1)
	assert.Equal(t, []string{report.RunID, "summary", "totalRevenue", "Total revenue", "120.50", "0", "0"}, records[1])
	assert.Equal(t, []string{report.RunID, "revenue", "0", "10 Mar", "100.50", "0", "0"}, records[10])
	assert.Equal(t, []string{report.RunID, "product", "11", "Espresso, double", "80.00", "4", "0"}, records[12])
	assert.Equal(t, []string{report.RunID, "category", "3", "Coffee", "80.00", "4", "2"}, records[13])
}

func TestRFMCSVRowsToLocalFile(t *testing.T) {
	e, stdout := newExporter(nil)
	dest := filepath.Join(t.TempDir(), "rfm.csv")
	report := rfmReport()

	require.NoError(t, e.Export(report, FormatCSV, dest))
	assert.Zero(t, stdout.Len())

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, customerHeader, records[0])
	assert.Equal(t, []string{report.RunID, "1", "1", "4", "310.20", "5", "5", "5", "Champions"}, records[1])
	assert.Equal(t, []string{report.RunID, "2", "80", "1", "12.00", "1", "1", "2", "Lost"}, records[2])
}

func TestParquetExportWritesMagic(t *testing.T) {
	e, stdout := newExporter(nil)
	dest := filepath.Join(t.TempDir(), "rfm.parquet")

	require.NoError(t, e.Export(rfmReport(), FormatParquet, dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PAR1")))
	assert.True(t, bytes.HasSuffix(data, []byte("PAR1")))

	require.NoError(t, e.Export(dashboardReport(), FormatParquet, "-"))
	assert.True(t, bytes.HasPrefix(stdout.Bytes(), []byte("PAR1")))
	assert.True(t, bytes.HasSuffix(stdout.Bytes(), []byte("PAR1")))
}

type memoryCloud struct {
	objects map[string]*memoryObject
}

type memoryObject struct {
	bytes.Buffer
	contentType string
	closed      bool
	aborted     bool
}

func (o *memoryObject) Close() error {
	o.closed = true
	return nil
}

func (o *memoryObject) Abort() {
	o.aborted = true
	o.Reset()
}

func (m *memoryCloud) NewWriter(bucket, objectPath, contentType string) (cloudwriter.CloudWriter, error) {
	obj := &memoryObject{contentType: contentType}
	m.objects[bucket+"/"+objectPath] = obj
	return obj, nil
}

func TestExportToS3Destination(t *testing.T) {
	cloud := &memoryCloud{objects: map[string]*memoryObject{}}
	e, _ := newExporter(cloud)

	require.NoError(t, e.Export(rfmReport(), FormatJSON, "s3://reports/shop/rfm.json"))

	obj := cloud.objects["reports/shop/rfm.json"]
	require.NotNil(t, obj)
	assert.True(t, obj.closed)
	assert.Equal(t, "application/json", obj.contentType)
	assert.Contains(t, obj.String(), `"kind": "rfm"`)
}

func TestFailedRenderAbortsS3Upload(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatParquet} {
		t.Run(string(format), func(t *testing.T) {
			cloud := &memoryCloud{objects: map[string]*memoryObject{}}
			e, _ := newExporter(cloud)

			err := e.Export(Report{RunID: "empty"}, format, "s3://reports/shop/empty")
			assert.ErrorContains(t, err, "has no result")

			obj := cloud.objects["reports/shop/empty"]
			require.NotNil(t, obj)
			assert.True(t, obj.aborted)
			assert.False(t, obj.closed)
		})
	}
}

func TestFailedRenderLeavesNoLocalFile(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatParquet} {
		t.Run(string(format), func(t *testing.T) {
			e, _ := newExporter(nil)
			dest := filepath.Join(t.TempDir(), "empty."+string(format))

			err := e.Export(Report{RunID: "empty"}, format, dest)
			assert.ErrorContains(t, err, "has no result")

			_, statErr := os.Stat(dest)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestExportToS3WithoutCloudFails(t *testing.T) {
	e, _ := newExporter(nil)
	assert.Error(t, e.Export(rfmReport(), FormatJSON, "s3://reports/rfm.json"))
}

func TestSegmentSummary(t *testing.T) {
	res := models.RFMResult{
		TotalCustomers: 4,
		Segments:       map[models.Segment]int{models.SegmentLost: 1, models.SegmentChampions: 1, models.SegmentLoyal: 2},
	}

	got := SegmentSummary(res)

	require.Len(t, got, 3)
	assert.Equal(t, models.SegmentLoyal, got[0].Segment)
	assert.Equal(t, models.SegmentChampions, got[1].Segment)
	assert.Equal(t, models.SegmentLost, got[2].Segment)
	assert.Equal(t, "50", got[0].Percent.String())
}
