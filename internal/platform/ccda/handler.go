package ccda

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler provides the stateless C-CDA parse endpoint.
type Handler struct {
	engine *Engine
}

// NewHandler creates a new C-CDA handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes registers C-CDA endpoints on the provided route group.
//
//	POST /api/v1/ccda/parse - Parse an incoming C-CDA document
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/ccda/parse", h.ParseCCDA)
}

// ParseCCDA handles POST /api/v1/ccda/parse.
// It accepts an XML body and returns the domain tables and parse metadata as
// JSON. Rejected documents are answered with 400 and the same body shape.
func (h *Handler) ParseCCDA(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}

	analysis := h.engine.Analyze(string(body))
	if !analysis.Metadata.Parsed() {
		return c.JSON(http.StatusBadRequest, analysis)
	}
	return c.JSON(http.StatusOK, analysis)
}
