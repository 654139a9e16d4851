package journal

import (
	"errors"
	"net/http"
	"strconv"

	"datagen/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{svc: service}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/generations", h.Recent)
}

// Recent handles GET /api/generations?limit=N
func (h *Handler) Recent(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))

	limit := DefaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			send(middleware.Response{
				Code:    http.StatusBadRequest,
				Tag:     "invalid_limit",
				Message: "limit must be an integer",
				Error:   err,
			})
			return
		}
		limit = n
	}

	rows, err := h.svc.Recent(c.Request.Context(), limit)
	if errors.Is(err, ErrDisabled) {
		send(middleware.Response{
			Code:    http.StatusNotFound,
			Tag:     "journal_disabled",
			Message: "Generation journal is disabled",
			Error:   err,
		})
		return
	}
	if err != nil {
		send(middleware.Response{
			Code:    http.StatusInternalServerError,
			Tag:     "journal_failed",
			Message: "Failed to read generation journal",
			Error:   err,
		})
		return
	}

	send(middleware.Response{
		Code:    http.StatusOK,
		Message: "Recent generations",
		Data:    rows,
	})
}
