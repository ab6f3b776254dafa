package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	v1 "github.com/wosledon/vitanote/pkg/api/v1"
	"github.com/wosledon/vitanote/pkg/auth"
)

func (s *Server) handleChatHistory(c echo.Context) error {
	limit, err := v1.ParseInt("limit", c.QueryParam("limit"))
	if err != nil {
		return err
	}
	msgs, err := s.services.Chat().History(c.Request().Context(), auth.UserID(c), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

func (s *Server) handleChatSend(c echo.Context) error {
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ex, err := s.services.Chat().Send(c.Request().Context(), auth.UserID(c), req.Content)
	if err != nil {
		return err
	}
	s.metrics.ChatMessages.Inc()
	return c.JSON(http.StatusCreated, ex)
}

func (s *Server) handleChatClear(c echo.Context) error {
	n, err := s.services.Chat().Clear(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DeletedResponse{Deleted: n})
}
