// Package service runs the two top-level analyses end to end: resolve the
// window, pull the orders, reduce them, and narrate progress along the way.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/wooinsights/internal/analytics"
	"github.com/chrisdamba/wooinsights/internal/daterange"
	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
	"github.com/chrisdamba/wooinsights/internal/repositories"
	"github.com/chrisdamba/wooinsights/internal/rfm"
	"github.com/sirupsen/logrus"
)

var (
	DefaultDashboardStatuses = []string{"completed", "processing", "on-hold"}
	DefaultRFMStatuses       = []string{"completed"}
)

// ErrMissingBounds is returned for a custom range without both bounds.
var ErrMissingBounds = errors.New("custom range needs both start and end")

// RangeRequest selects the analysis window. Start and End are used when Token
// is daterange.Custom or when both are set.
type RangeRequest struct {
	Token daterange.Token
	Start time.Time
	End   time.Time
}

type AnalysisService struct {
	source            repositories.OrderSource
	resolver          *daterange.Resolver
	reporter          *progress.Reporter
	logger            logrus.FieldLogger
	dashboardStatuses []string
	rfmStatuses       []string
}

type Option func(*AnalysisService)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *AnalysisService) { s.logger = logger }
}

// WithStatuses overrides the order statuses each analysis asks for. Empty
// lists leave the defaults in place.
func WithStatuses(dashboard, rfm []string) Option {
	return func(s *AnalysisService) {
		if len(dashboard) > 0 {
			s.dashboardStatuses = dashboard
		}
		if len(rfm) > 0 {
			s.rfmStatuses = rfm
		}
	}
}

func NewAnalysisService(source repositories.OrderSource, resolver *daterange.Resolver, reporter *progress.Reporter, opts ...Option) *AnalysisService {
	s := &AnalysisService{
		source:            source,
		resolver:          resolver,
		reporter:          reporter,
		logger:            logrus.StandardLogger(),
		dashboardStatuses: DefaultDashboardStatuses,
		rfmStatuses:       DefaultRFMStatuses,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = progress.NewReporter()
	}
	return s
}

func (s *AnalysisService) Reporter() *progress.Reporter {
	return s.reporter
}

// Dashboard computes the revenue, product, category and customer figures for
// the requested window.
func (s *AnalysisService) Dashboard(ctx context.Context, req RangeRequest) (models.AggregateResult, error) {
	s.reporter.Reset()
	s.reporter.SetProgress(10, "initializing")

	rng, err := s.DashboardWindow(req)
	if err != nil {
		return models.AggregateResult{}, err
	}
	log := s.logger.WithFields(logrus.Fields{"range_start": rng.Start, "range_end": rng.End})

	s.reporter.SetProgress(20, "retrieving orders")
	orders, err := s.source.Orders(ctx, rng, s.dashboardStatuses, s.reporter)
	if err != nil {
		log.WithError(err).Error("dashboard retrieval failed")
		return models.AggregateResult{}, fmt.Errorf("retrieve orders: %w", err)
	}

	s.reporter.SetProgress(60, "analyzing data")
	result, err := analytics.NewAggregator(s.resolver.Location(), s.reporter).Aggregate(orders, rng)
	if err != nil {
		return models.AggregateResult{}, fmt.Errorf("aggregate orders: %w", err)
	}

	s.reporter.SetProgress(80, "preparing report")
	log.WithField("orders", result.TotalOrders).Info("dashboard computed")
	s.reporter.SetProgress(100, "completed")
	return result, nil
}

// RFM scores every customer with orders in the requested window. A zero
// referenceDate measures recency from the end of the window.
func (s *AnalysisService) RFM(ctx context.Context, req RangeRequest, referenceDate time.Time) (models.RFMResult, error) {
	s.reporter.SetProgress(10, "initializing RFM analysis")

	rng, err := s.RFMWindow(req)
	if err != nil {
		return models.RFMResult{}, err
	}
	if referenceDate.IsZero() {
		referenceDate = rng.End
	}
	log := s.logger.WithFields(logrus.Fields{"range_start": rng.Start, "range_end": rng.End})

	s.reporter.SetProgress(30, "retrieving order history")
	orders, err := s.source.Orders(ctx, rng, s.rfmStatuses, s.reporter)
	if err != nil {
		log.WithError(err).Error("rfm retrieval failed")
		return models.RFMResult{}, fmt.Errorf("retrieve orders: %w", err)
	}

	s.reporter.SetProgress(60, "computing RFM metrics")
	result, err := rfm.NewEngine(s.resolver.Location()).Analyze(orders, referenceDate)
	if err != nil {
		return models.RFMResult{}, fmt.Errorf("score customers: %w", err)
	}

	log.WithFields(logrus.Fields{
		"orders":    len(orders),
		"customers": result.TotalCustomers,
	}).Info("rfm analysis computed")
	s.reporter.SetProgress(100, "RFM analysis completed")
	return result, nil
}

// DashboardWindow is the range Dashboard would analyse for req.
func (s *AnalysisService) DashboardWindow(req RangeRequest) (models.DateRange, error) {
	return s.resolve(req, daterange.Default)
}

// RFMWindow is the range RFM would analyse for req.
func (s *AnalysisService) RFMWindow(req RangeRequest) (models.DateRange, error) {
	return s.resolve(req, daterange.Last3Month)
}

func (s *AnalysisService) resolve(req RangeRequest, fallback daterange.Token) (models.DateRange, error) {
	if req.Token == daterange.Custom || (!req.Start.IsZero() && !req.End.IsZero()) {
		if req.Start.IsZero() || req.End.IsZero() {
			return models.DateRange{}, ErrMissingBounds
		}
		return s.resolver.Custom(req.Start, req.End)
	}
	token := req.Token
	if token == "" {
		token = fallback
	}
	return s.resolver.Resolve(token), nil
}
