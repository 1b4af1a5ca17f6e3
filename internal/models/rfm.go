package models

import "github.com/shopspring/decimal"

// Segment is a customer cohort derived from combined R/F/M scores.
type Segment string

const (
	SegmentChampions Segment = "Champions"
	SegmentLoyal     Segment = "Loyal"
	SegmentPotential Segment = "Potential"
	SegmentNew       Segment = "New"
	SegmentAtRisk    Segment = "At Risk"
	SegmentLost      Segment = "Lost"
)

// Segments lists every segment in rule order.
var Segments = []Segment{
	SegmentChampions,
	SegmentLoyal,
	SegmentPotential,
	SegmentNew,
	SegmentAtRisk,
	SegmentLost,
}

type RawCustomerScore struct {
	RecencyDays int             `json:"recency"`
	Frequency   int             `json:"frequency"`
	Monetary    decimal.Decimal `json:"monetary"`
}

// QuantileTable holds the bucket boundaries of one metric; values never decrease
// from Min to Max.
type QuantileTable struct {
	Min float64 `json:"min"`
	Q20 float64 `json:"q20"`
	Q40 float64 `json:"q40"`
	Q60 float64 `json:"q60"`
	Q80 float64 `json:"q80"`
	Max float64 `json:"max"`
}

type Quantiles struct {
	Recency   QuantileTable `json:"recency"`
	Frequency QuantileTable `json:"frequency"`
	Monetary  QuantileTable `json:"monetary"`
}

type RFMScore struct {
	CustomerID int64            `json:"customerId"`
	R          int              `json:"r"`
	F          int              `json:"f"`
	M          int              `json:"m"`
	Segment    Segment          `json:"segment"`
	Raw        RawCustomerScore `json:"raw"`
}

type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type DecimalRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

type RFMMetrics struct {
	AverageRecency   float64         `json:"averageRecency"`
	AverageFrequency float64         `json:"averageFrequency"`
	AverageMonetary  decimal.Decimal `json:"averageMonetary"`
	RecencyRange     IntRange        `json:"recencyRange"`
	FrequencyRange   IntRange        `json:"frequencyRange"`
	MonetaryRange    DecimalRange    `json:"monetaryRange"`
}

// RFMResult is the segmentation payload handed to the presentation layer.
// Segments only contains segments with at least one customer.
type RFMResult struct {
	Segments       map[Segment]int `json:"segments"`
	TotalCustomers int             `json:"totalCustomers"`
	Metrics        RFMMetrics      `json:"metrics"`
	Quantiles      Quantiles       `json:"quantiles"`
	Customers      []RFMScore      `json:"customers,omitempty"`
}
