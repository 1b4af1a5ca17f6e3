// Package woocommerce retrieves paginated collections from the WooCommerce REST API.
package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
	"github.com/sirupsen/logrus"
)

// PageSize is the number of records requested per page.
const PageSize = 100

const isoLayout = "2006-01-02T15:04:05.000Z"

type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         logrus.FieldLogger
	cache          *responseCache
	now            func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient validates the connection settings in cfg before anything is fetched.
func NewClient(cfg *models.Config, opts ...Option) (*Client, error) {
	var missing []string
	if cfg.APIURL == "" {
		missing = append(missing, "api_url")
	}
	if cfg.ConsumerKey == "" {
		missing = append(missing, "consumer_key")
	}
	if cfg.ConsumerSecret == "" {
		missing = append(missing, "consumer_secret")
	}
	if len(missing) > 0 {
		return nil, &models.ConfigError{Missing: missing}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:        strings.TrimRight(cfg.APIURL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logrus.StandardLogger(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	cache, err := newResponseCache(cfg.CacheSize, cfg.CacheTTL, c.now)
	if err != nil {
		return nil, fmt.Errorf("unable to create response cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// Orders retrieves every order created inside rng whose status is one of statuses.
func (c *Client) Orders(ctx context.Context, rng models.DateRange, statuses []string, sink progress.Sink) ([]models.Order, error) {
	query := url.Values{}
	query.Set("after", rng.Start.UTC().Format(isoLayout))
	query.Set("before", rng.End.UTC().Format(isoLayout))
	if len(statuses) > 0 {
		query.Set("status", strings.Join(statuses, ","))
	}

	records, err := c.Fetch(ctx, "orders", query, sink)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, len(records))
	for i, raw := range records {
		if err := json.Unmarshal(raw, &orders[i]); err != nil {
			return nil, fmt.Errorf("decode order record %d: %w", i, err)
		}
	}
	return orders, nil
}

// Fetch walks the pages of resource in order and returns all records. Any
// failure discards what was accumulated so far.
func (c *Client) Fetch(ctx context.Context, resource string, query url.Values, sink progress.Sink) ([]json.RawMessage, error) {
	if sink == nil {
		sink = progress.Discard
	}
	log := c.logger.WithField("resource", resource)

	key := resource + "?" + query.Encode()
	if records, ok := c.cache.get(key); ok {
		log.WithField("records", len(records)).Debug("serving retrieval from cache")
		return append([]json.RawMessage(nil), records...), nil
	}

	var all []json.RawMessage
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		sink.SetProgress(math.Min(20+float64(page)*10, 60), "retrieving data")

		records, err := c.fetchPage(ctx, resource, query, page)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		log.WithFields(logrus.Fields{"page": page, "records": len(records)}).Debug("page retrieved")

		if len(records) < PageSize {
			break
		}
	}

	c.cache.put(key, all)
	log.WithField("records", len(all)).Info("retrieval complete")
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, resource string, query url.Values, page int) ([]json.RawMessage, error) {
	params := url.Values{}
	for k, v := range query {
		params[k] = v
	}
	params.Set("consumer_key", c.consumerKey)
	params.Set("consumer_secret", c.consumerSecret)
	params.Set("per_page", strconv.Itoa(PageSize))
	params.Set("page", strconv.Itoa(page))

	endpoint := fmt.Sprintf("%s/wc/v3/%s?%s", c.baseURL, strings.TrimLeft(resource, "/"), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("retrieve %s page %d: %w", resource, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.retrievalError(resp, resource, page)
	}

	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("decode %s page %d: %w", resource, page, err)
	}
	return records, nil
}

func (c *Client) retrievalError(resp *http.Response, resource string, page int) error {
	rerr := &RetrievalError{
		Resource:   resource,
		Page:       page,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return rerr
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		rerr.Message = payload.Message
	}
	return rerr
}
