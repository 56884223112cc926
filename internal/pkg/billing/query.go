package billing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (Page-1)*PageSize inside an int32 offset.
	MaxPage    = math.MaxInt32 / MaxPageSize
	dateLayout = "2006-01-02"
)

// Normalize clamps paging values. Page stays within [1, MaxPage] and
// PageSize within [1, MaxPageSize].
func (q PaymentQuery) Normalize() PaymentQuery {
	switch {
	case q.Page < 1:
		q.Page = 1
	case q.Page > MaxPage:
		q.Page = MaxPage
	}
	switch {
	case q.PageSize < 1:
		q.PageSize = 1
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	q.Q = strings.TrimSpace(q.Q)
	return q
}

// ParsePaymentQuery builds a query from raw request parameters. Dates use
// YYYY-MM-DD and dateTo covers the whole day. Unparsable dates are ignored,
// unparsable page values fall back to their defaults.
func ParsePaymentQuery(q, dateFrom, dateTo, page, pageSize string) PaymentQuery {
	out := PaymentQuery{
		Q:        q,
		Page:     parseIntDefault(page, 1),
		PageSize: parseIntDefault(pageSize, DefaultPageSize),
	}
	if t, ok := parseDate(dateFrom); ok {
		out.CreatedFrom = &t
	}
	if t, ok := parseDate(dateTo); ok {
		end := t.AddDate(0, 0, 1)
		out.CreatedBefore = &end
	}
	return out.Normalize()
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseIntDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
