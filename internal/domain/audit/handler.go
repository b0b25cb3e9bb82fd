package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/webqx/telehealth/internal/platform/auth"
	"github.com/webqx/telehealth/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/audit-logs/", h.ListAuditLogs)
}

func (h *Handler) ListAuditLogs(c echo.Context) error {
	perms := auth.PermissionsForRoles(auth.RolesFromContext(c.Request().Context()))
	if !perms.CanViewAuditLogs {
		return echo.NewHTTPError(http.StatusForbidden, "audit log access requires analytics permission")
	}

	clinicID := auth.ClinicIDFromContext(c.Request().Context())
	if clinicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no clinic associated with caller")
	}

	days, _ := strconv.Atoi(c.QueryParam("days"))
	pg := pagination.FromContext(c)

	items, total, err := h.svc.List(c.Request().Context(), clinicID, days, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit logs")
	}
	if items == nil {
		items = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
