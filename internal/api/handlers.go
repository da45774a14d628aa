package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/etl"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/mapping"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/schema"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/source"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

type Handler struct {
	staging etl.Staging
}

// NewHandler returns a handler. staging may be nil, in which case the
// staging route reports 503.
func NewHandler(staging etl.Staging) *Handler {
	return &Handler{staging: staging}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	v1 := e.Group("/v1")
	v1.POST("/transform", h.Transform)
	v1.GET("/staging", h.GetStaging)
}

// TransformRequest carries a table plus the mapping and schema to apply.
type TransformRequest struct {
	Headers   []string            `json:"headers"`
	Rows      [][]models.Value    `json:"rows"`
	Mapping   []models.MappingRow `json:"mapping"`
	Schema    []models.SchemaRow  `json:"schema"`
	EventName string              `json:"eventName"`
	AppStream bool                `json:"appStream"`
}

// --- HANDLERS ---
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Transform(c echo.Context) error {
	var req TransformRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := checkScalarCells(req.Rows); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, err := mapping.FromRows(req.Mapping)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := schema.FromRows(req.Schema)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	payloads := etl.NewTransformer(m, s).Transform(source.New(req.Headers, req.Rows), req.EventName)
	if req.AppStream {
		for _, p := range payloads {
			p.ConvertToAppPayload()
		}
	}
	return c.JSON(http.StatusOK, payloads)
}

// checkScalarCells rejects rows holding arrays or objects; table cells are
// strings, numbers, booleans or null.
func checkScalarCells(rows [][]models.Value) error {
	for i, row := range rows {
		for j, cell := range row {
			switch cell.(type) {
			case nil, string, bool, float64:
			default:
				return fmt.Errorf("row %d, column %d: cell must be a string, number or boolean", i, j)
			}
		}
	}
	return nil
}

func (h *Handler) GetStaging(c echo.Context) error {
	if h.staging == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "staging is not configured")
	}
	records, err := h.staging.Records(c.Request().Context())
	if err != nil {
		return err
	}

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  records[:limit],
		"total": len(records),
	})
}
