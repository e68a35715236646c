package codes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	gen *Generator
}

func NewHandler(gen *Generator) *Handler {
	return &Handler{gen: gen}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/codes/next", h.NextCode)
}

// NextCode responds with a fresh code as a JSON string.
func (h *Handler) NextCode(c echo.Context) error {
	return c.JSON(http.StatusOK, h.gen.Next())
}
