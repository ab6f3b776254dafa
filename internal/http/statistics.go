package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wosledon/vitanote/internal/statistics"
	"github.com/wosledon/vitanote/pkg/auth"
)

// statsHandler adapts one statistics operation to a GET endpoint.
func statsHandler[T any](s *Server, fn func(*statistics.Service, context.Context, string, statistics.Range) (T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := statsRange(c)
		if err != nil {
			return err
		}
		out, err := fn(s.services.Statistics(), c.Request().Context(), auth.UserID(c), r)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleOverview(c echo.Context) error {
	return statsHandler(s, (*statistics.Service).Overview)(c)
}

func (s *Server) handleGlucoseStats(c echo.Context) error {
	return statsHandler(s, (*statistics.Service).Glucose)(c)
}

func (s *Server) handleBloodPressureStats(c echo.Context) error {
	return statsHandler(s, (*statistics.Service).BloodPressure)(c)
}

func (s *Server) handleWeightStats(c echo.Context) error {
	return statsHandler(s, (*statistics.Service).Weight)(c)
}

func (s *Server) handleFoodStats(c echo.Context) error {
	return statsHandler(s, (*statistics.Service).Food)(c)
}

func (s *Server) handleMedicationStats(c echo.Context) error {
	return statsHandler(s, (*statistics.Service).Medications)(c)
}

func (s *Server) handleDaily(c echo.Context) error {
	return statsHandler(s, (*statistics.Service).Daily)(c)
}
