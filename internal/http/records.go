package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/pkg/auth"
)

var recordRoutes = map[string]records.RecordType{
	"/glucose":        records.TypeGlucose,
	"/blood-pressure": records.TypeBloodPressure,
	"/weight":         records.TypeWeight,
}

func (s *Server) registerRecordRoutes(g *echo.Group) {
	for path, typ := range recordRoutes {
		g.GET(path, s.listRecords(typ))
		g.POST(path, s.createRecord(typ))
		g.GET(path+"/:id", s.getRecord(typ))
		g.PUT(path+"/:id", s.updateRecord(typ))
		g.DELETE(path+"/:id", s.deleteRecord(typ))
	}

	g.GET("/health-records", s.handleListHealthRecords)
	g.GET("/health-records/:id", s.getRecord(""))
	g.DELETE("/health-records/:id", s.deleteRecord(""))
}

func (s *Server) listRecords(typ records.RecordType) echo.HandlerFunc {
	return func(c echo.Context) error {
		opts, err := listOptions(c)
		if err != nil {
			return err
		}
		page, err := s.services.Records().List(c.Request().Context(), auth.UserID(c), typ, opts)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, page)
	}
}

func (s *Server) handleListHealthRecords(c echo.Context) error {
	var typ records.RecordType
	if q := c.QueryParam("type"); q != "" {
		var err error
		if typ, err = records.ParseRecordType(q); err != nil {
			return err
		}
	}
	return s.listRecords(typ)(c)
}

func (s *Server) createRecord(typ records.RecordType) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in records.Input
		if err := bind(c, &in); err != nil {
			return err
		}
		in.Type = typ
		res, err := s.services.Records().Create(c.Request().Context(), auth.UserID(c), in)
		if err != nil {
			return err
		}
		s.metrics.RecordsCreated.WithLabelValues(string(typ)).Inc()
		for _, a := range res.Alerts {
			s.metrics.Alerts.WithLabelValues(string(a.Type)).Inc()
		}
		return c.JSON(http.StatusCreated, res)
	}
}

func (s *Server) getRecord(typ records.RecordType) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := s.services.Records().Get(c.Request().Context(), auth.UserID(c), c.Param("id"), typ)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, r)
	}
}

func (s *Server) updateRecord(typ records.RecordType) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in records.Input
		if err := bind(c, &in); err != nil {
			return err
		}
		ctx := c.Request().Context()
		userID, id := auth.UserID(c), c.Param("id")
		if _, err := s.services.Records().Get(ctx, userID, id, typ); err != nil {
			return err
		}
		in.Type = typ
		r, err := s.services.Records().Update(ctx, userID, id, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, r)
	}
}

func (s *Server) deleteRecord(typ records.RecordType) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.services.Records().Delete(c.Request().Context(), auth.UserID(c), c.Param("id"), typ); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
