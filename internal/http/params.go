package http

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wosledon/vitanote/internal/statistics"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

// bind decodes the request body, reporting malformed JSON as 400.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// listOptions reads from, to, page and page_size.
func listOptions(c echo.Context) (v1.ListOptions, error) {
	var (
		opts v1.ListOptions
		err  error
	)
	if opts.From, err = v1.ParseTime(c.QueryParam("from")); err != nil {
		return opts, err
	}
	if opts.To, err = v1.ParseTime(c.QueryParam("to")); err != nil {
		return opts, err
	}
	if opts.Page, err = v1.ParseInt("page", c.QueryParam("page")); err != nil {
		return opts, err
	}
	if opts.PageSize, err = v1.ParseInt("page_size", c.QueryParam("page_size")); err != nil {
		return opts, err
	}
	return opts, nil
}

// statsRange reads from, to and days.
func statsRange(c echo.Context) (statistics.Range, error) {
	from, err := v1.ParseTime(c.QueryParam("from"))
	if err != nil {
		return statistics.Range{}, err
	}
	to, err := v1.ParseTime(c.QueryParam("to"))
	if err != nil {
		return statistics.Range{}, err
	}
	days, err := v1.ParseInt("days", c.QueryParam("days"))
	if err != nil {
		return statistics.Range{}, err
	}
	return statistics.ResolveRange(from, to, days, time.Now())
}
