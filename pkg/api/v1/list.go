// Package v1 holds the request and error vocabulary shared by the VitaNote
// services and the HTTP API.
package v1

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPageSize is used when a list request does not set page_size.
	DefaultPageSize = 20
	// MaxPageSize caps page_size on list requests.
	MaxPageSize = 100
	// MaxPage caps page so the row offset cannot overflow.
	MaxPage = 1_000_000
)

// ListOptions selects a page of records inside an optional time range.
// From is inclusive, To is exclusive. Zero times leave that side open.
type ListOptions struct {
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// Normalize fills defaults and validates the options.
func (o ListOptions) Normalize() (ListOptions, error) {
	if o.Page == 0 {
		o.Page = 1
	}
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Page < 1 || o.Page > MaxPage {
		return o, fmt.Errorf("%w: page must be between 1 and %d", ErrInvalidRequest, MaxPage)
	}
	if o.PageSize < 1 || o.PageSize > MaxPageSize {
		return o, fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidRequest, MaxPageSize)
	}
	if !o.From.IsZero() && !o.To.IsZero() && !o.From.Before(o.To) {
		return o, fmt.Errorf("%w: from must be before to", ErrInvalidRequest)
	}
	return o, nil
}

// Offset returns the number of rows to skip for the current page. Options
// that did not pass Normalize are clamped to the first or last page.
func (o ListOptions) Offset() int {
	if o.Page < 1 || o.PageSize < 1 {
		return 0
	}
	return (min(o.Page, MaxPage) - 1) * min(o.PageSize, MaxPageSize)
}

// Page is one page of list results.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPage builds a page, replacing a nil slice with an empty one so it
// serializes as [].
func NewPage[T any](items []T, total int, opts ListOptions) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: opts.Page, PageSize: opts.PageSize}
}

// ParseTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC
// midnight). An empty string yields the zero time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q (use RFC 3339 or YYYY-MM-DD)", ErrInvalidRequest, s)
}

// ParseInt parses an optional integer query value.
func ParseInt(name, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidRequest, name)
	}
	return n, nil
}
