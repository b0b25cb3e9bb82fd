package analytics

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/webqx/telehealth/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/usage-analytics/", h.GetUsageAnalytics)
}

func (h *Handler) GetUsageAnalytics(c echo.Context) error {
	ctx := c.Request().Context()
	perms := auth.PermissionsForRoles(auth.RolesFromContext(ctx))
	if !perms.CanViewAnalytics {
		return echo.NewHTTPError(http.StatusForbidden, "analytics access denied")
	}

	clinicID := auth.ClinicIDFromContext(ctx)
	if clinicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no clinic associated with caller")
	}

	days, _ := strconv.Atoi(c.QueryParam("days"))
	summary, err := h.svc.Summarize(ctx, clinicID, days)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load usage analytics")
	}
	return c.JSON(http.StatusOK, summary)
}
