package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetParallelism = 4

// WriteJSON writes the whole report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode %s report: %w", r.Kind, err)
	}
	return nil
}

// WriteCSV writes the flattened rows: dashboard figures, or one line per
// scored customer.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	switch {
	case r.Dashboard != nil:
		if err := cw.Write(dashboardHeader); err != nil {
			return err
		}
		for _, row := range r.dashboardRows() {
			if err := cw.Write(row.record()); err != nil {
				return err
			}
		}
	case r.RFM != nil:
		if err := cw.Write(customerHeader); err != nil {
			return err
		}
		for _, row := range r.customerRows() {
			if err := cw.Write(row.record()); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("report %s has no result", r.RunID)
	}
	cw.Flush()
	return cw.Error()
}

// WriteParquet writes the same rows as WriteCSV into fw. The caller closes fw.
func (r Report) WriteParquet(fw source.ParquetFile) error {
	var (
		schema interface{}
		rows   []interface{}
	)
	switch {
	case r.Dashboard != nil:
		schema = new(DashboardRow)
		for _, row := range r.dashboardRows() {
			rows = append(rows, row)
		}
	case r.RFM != nil:
		schema = new(CustomerRow)
		for _, row := range r.customerRows() {
			rows = append(rows, row)
		}
	default:
		return fmt.Errorf("report %s has no result", r.RunID)
	}

	pw, err := writer.NewParquetWriter(fw, schema, parquetParallelism)
	if err != nil {
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}
