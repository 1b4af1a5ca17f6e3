package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order mirrors the subset of the WooCommerce order resource used by the analyses.
type Order struct {
	ID             int64      `json:"id"`
	CustomerID     int64      `json:"customer_id"`
	DateCreated    Timestamp  `json:"date_created"`
	DateCreatedGMT Timestamp  `json:"date_created_gmt,omitempty"`
	Total          Amount     `json:"total"`
	Status         string     `json:"status"`
	LineItems      []LineItem `json:"line_items"`
}

type LineItem struct {
	ProductID  int64      `json:"product_id"`
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	Total      Amount     `json:"total"`
	Categories []Category `json:"categories,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreatedAt returns the creation instant in loc. The GMT field wins when present
// because the plain field carries the store's wall clock without an offset.
func (o Order) CreatedAt(loc *time.Location) time.Time {
	if !o.DateCreatedGMT.IsZero() {
		return o.DateCreatedGMT.UTC().In(loc)
	}
	t := o.DateCreated.Time
	if o.DateCreated.zoned {
		return t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// Amount keeps a monetary value as the decimal text received on the wire.
// WooCommerce sends totals as strings; numbers are accepted too.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

// Decimal parses the amount. An empty amount yields ErrMissingValue.
func (a Amount) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, ErrMissingValue
	}
	return decimal.NewFromString(s)
}

// AmountOf formats d the way the store API does.
func AmountOf(d decimal.Decimal) Amount {
	return Amount(d.StringFixed(2))
}

const wooTimeLayout = "2006-01-02T15:04:05"

// Timestamp decodes both RFC3339 instants and WooCommerce's zone-less local
// timestamps. zoned records whether the wire value carried an offset.
type Timestamp struct {
	time.Time
	zoned bool
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, zoned: true}
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*ts = Timestamp{Time: t, zoned: true}
		return nil
	}
	t, err := time.Parse(wooTimeLayout, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	*ts = Timestamp{Time: t}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	if ts.zoned {
		return json.Marshal(ts.Time.Format(time.RFC3339))
	}
	return json.Marshal(ts.Time.Format(wooTimeLayout))
}
