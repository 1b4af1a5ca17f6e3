// Package daterange turns symbolic range tokens into concrete instant intervals.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"
)

type Token string

const (
	Today      Token = "today"
	Yesterday  Token = "yesterday"
	Last5Days  Token = "last5days"
	Last7Days  Token = "last7days"
	ThisMonth  Token = "thisMonth"
	LastMonth  Token = "lastMonth"
	Last3Month Token = "last3months"
	ThisYear   Token = "thisYear"
	Custom     Token = "custom"
)

// Default is used whenever a token is not recognized.
const Default = Last5Days

var ErrInvalidRange = errors.New("range start is after range end")

// Tokens returns every symbolic token in display order.
func Tokens() []Token {
	return []Token{Today, Yesterday, Last5Days, Last7Days, ThisMonth, LastMonth, Last3Month, ThisYear}
}

var ErrUnknownToken = errors.New("unknown date range token")

// ParseToken matches s against the symbolic tokens and custom, ignoring case
// and surrounding space.
func ParseToken(s string) (Token, error) {
	s = strings.TrimSpace(s)
	for _, k := range append(Tokens(), Custom) {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return Token(s), fmt.Errorf("%w: %q", ErrUnknownToken, s)
}

// Known reports whether t is one of the symbolic tokens.
func Known(t Token) bool {
	for _, k := range Tokens() {
		if k == t {
			return true
		}
	}
	return false
}

type Resolver struct {
	loc    *time.Location
	clock  func() time.Time
	logger logrus.FieldLogger
}

type Option func(*Resolver)

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) { r.clock = clock }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func NewResolver(loc *time.Location, opts ...Option) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	r := &Resolver{loc: loc, clock: time.Now, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve maps a symbolic token to a range. Unknown tokens resolve like
// last5days; the fallback is logged but never an error.
func (r *Resolver) Resolve(token Token) models.DateRange {
	today := r.day(r.clock())
	yesterday := today.AddDate(0, 0, -1)
	end := endOfDay(yesterday)

	var start time.Time
	switch token {
	case Today:
		start, end = today, endOfDay(today)
	case Yesterday:
		start = yesterday
	case Last5Days:
		start = yesterday.AddDate(0, 0, -4)
	case Last7Days:
		start = yesterday.AddDate(0, 0, -6)
	case ThisMonth:
		start = r.at(today).BeginningOfMonth()
	case LastMonth:
		start = r.at(today).BeginningOfMonth().AddDate(0, -1, 0)
		end = endOfDay(r.at(start).EndOfMonth())
	case Last3Month:
		start = r.at(today).BeginningOfMonth().AddDate(0, -3, 0)
	case ThisYear:
		start = r.at(today).BeginningOfYear()
	default:
		r.logger.WithField("token", string(token)).Warnf("unrecognized date range, using %s", Default)
		start = yesterday.AddDate(0, 0, -4)
	}

	// thisMonth on the 1st and thisYear on Jan 1 start today, after yesterday ends.
	if start.After(end) {
		end = endOfDay(today)
	}
	return models.DateRange{Start: start, End: end}
}

// Custom keeps start as given and stretches end to the end of its day.
func (r *Resolver) Custom(start, end time.Time) (models.DateRange, error) {
	rng := models.DateRange{Start: start.In(r.loc), End: endOfDay(r.day(end))}
	if rng.Start.After(rng.End) {
		return models.DateRange{}, ErrInvalidRange
	}
	return rng, nil
}

func (r *Resolver) at(t time.Time) *now.Now {
	return now.With(t.In(r.loc))
}

func (r *Resolver) day(t time.Time) time.Time {
	return r.at(t).BeginningOfDay()
}

// endOfDay is 23:59:59.999 on t's day, in t's location.
func endOfDay(t time.Time) time.Time {
	e := now.With(t).EndOfDay()
	return e.Add(-time.Duration(e.Nanosecond() % int(time.Millisecond)))
}
