package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/users"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
	"github.com/wosledon/vitanote/pkg/auth"
)

func (s *Server) handleRegister(c echo.Context) error {
	var req users.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Users().Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	s.metrics.Registrations.Inc()
	return c.JSON(http.StatusCreated, res)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req users.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.services.Users().Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, v1.ErrUnauthorized) {
			s.metrics.Logins.WithLabelValues("failure").Inc()
			s.logger.Info("login rejected", zap.String("ip", c.RealIP()))
		}
		return err
	}
	s.metrics.Logins.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetMe(c echo.Context) error {
	u, err := s.services.Users().Get(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) handleUpdateMe(c echo.Context) error {
	var upd users.ProfileUpdate
	if err := bind(c, &upd); err != nil {
		return err
	}
	u, err := s.services.Users().UpdateProfile(c.Request().Context(), auth.UserID(c), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) handleChangePassword(c echo.Context) error {
	var req users.PasswordChange
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.services.Users().ChangePassword(c.Request().Context(), auth.UserID(c), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
