package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/pkg/auth"
)

func (s *Server) handleListFoods(c echo.Context) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	page, err := s.services.Food().List(c.Request().Context(), auth.UserID(c), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) handleCreateFood(c echo.Context) error {
	var in food.Input
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := s.services.Food().Create(c.Request().Context(), auth.UserID(c), in)
	if err != nil {
		return err
	}
	s.metrics.RecordsCreated.WithLabelValues("food").Inc()
	return c.JSON(http.StatusCreated, r)
}

func (s *Server) handleGetFood(c echo.Context) error {
	r, err := s.services.Food().Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) handleUpdateFood(c echo.Context) error {
	var in food.Input
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := s.services.Food().Update(c.Request().Context(), auth.UserID(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) handleDeleteFood(c echo.Context) error {
	if err := s.services.Food().Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListMedications(c echo.Context) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	page, err := s.services.Medication().List(c.Request().Context(), auth.UserID(c), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) handleCreateMedication(c echo.Context) error {
	var in medication.Input
	if err := bind(c, &in); err != nil {
		return err
	}
	m, err := s.services.Medication().Create(c.Request().Context(), auth.UserID(c), in)
	if err != nil {
		return err
	}
	s.metrics.RecordsCreated.WithLabelValues("medication").Inc()
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) handleGetMedication(c echo.Context) error {
	m, err := s.services.Medication().Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleUpdateMedication(c echo.Context) error {
	var in medication.Input
	if err := bind(c, &in); err != nil {
		return err
	}
	m, err := s.services.Medication().Update(c.Request().Context(), auth.UserID(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleDeleteMedication(c echo.Context) error {
	if err := s.services.Medication().Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
