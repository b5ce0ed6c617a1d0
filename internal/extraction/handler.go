package extraction

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/ccdaextract/internal/platform/auth"
	"github.com/ehr/ccdaextract/internal/platform/ccda"
	"github.com/ehr/ccdaextract/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	write := api.Group("", auth.RequireRole(auth.RoleExtractor))
	write.POST("/extractions", h.CreateExtraction)

	read := api.Group("", auth.RequireRole(auth.RoleExtractor, auth.RoleReader))
	read.GET("/extractions", h.ListExtractions)
	read.GET("/extractions/:id", h.GetExtraction)
}

// CreateExtraction handles POST /api/v1/extractions?source=NAME with a raw
// XML body. Accepted documents answer 201; rejected ones are still recorded
// and answer 400 with the run.
func (h *Handler) CreateExtraction(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	run, _, err := h.svc.Extract(c.Request().Context(), c.QueryParam("source"), string(body))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set("Location", c.Request().URL.Path+"/"+run.ID.String())
	if run.Status != ccda.StatusParsed {
		return c.JSON(http.StatusBadRequest, run)
	}
	return c.JSON(http.StatusCreated, run)
}

func (h *Handler) GetExtraction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	run, err := h.svc.GetRun(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "extraction run not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, run)
}

func (h *Handler) ListExtractions(c echo.Context) error {
	pg := pagination.FromContext(c)
	runs, total, err := h.svc.ListRuns(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []*Run{}
	}
	resp := pagination.NewResponse(runs, total, pg).WithLinks(c.Request().URL.Path, c.QueryParams())
	return c.JSON(http.StatusOK, resp)
}
