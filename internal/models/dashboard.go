package models

import "github.com/shopspring/decimal"

// AggregateResult is the dashboard payload handed to the presentation layer.
type AggregateResult struct {
	TotalRevenue      decimal.Decimal  `json:"totalRevenue"`
	TotalOrders       int              `json:"totalOrders"`
	AverageOrderValue decimal.Decimal  `json:"averageOrderValue"`
	TotalProductsSold int              `json:"totalProductsSold"`
	RevenueData       []RevenueBucket  `json:"revenueData"`
	TopProducts       []ProductSummary `json:"topProducts"`
	CustomerMetrics   CustomerMetrics  `json:"customerMetrics"`
	AdvancedMetrics   AdvancedMetrics  `json:"advancedMetrics"`
}

// RevenueBucket is one point of the revenue series, either an hour or a day.
type RevenueBucket struct {
	Label string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type ProductSummary struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Sales     int             `json:"sales"`
	Revenue   decimal.Decimal `json:"revenue"`
	Quantity  int             `json:"quantity"`
}

type CategorySummary struct {
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	Revenue    decimal.Decimal `json:"revenue"`
	Orders     int             `json:"orders"`
	Products   int             `json:"products"`
}

type CustomerMetrics struct {
	Total  int `json:"total"`
	Repeat int `json:"repeat"`
	New    int `json:"new"`
}

type AdvancedMetrics struct {
	RepeatPurchaseRate   float64           `json:"repeatPurchaseRate"` // percent, 0..100
	AverageItemsPerOrder float64           `json:"averageItemsPerOrder"`
	TopCategories        []CategorySummary `json:"topCategories"`
}
