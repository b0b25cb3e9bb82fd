package policy

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webqx/telehealth/internal/domain/tier"
	"github.com/webqx/telehealth/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/clinic-settings/", h.GetClinicSettings)
	g.PUT("/clinic-settings/update/", h.UpdateClinicSettings)
	g.GET("/tier-preview/", h.GetTierPreview)
	g.GET("/user-permissions/", h.GetUserPermissions)
}

func (h *Handler) GetClinicSettings(c echo.Context) error {
	ctx := c.Request().Context()
	perms := auth.PermissionsForRoles(auth.RolesFromContext(ctx))
	if !perms.CanViewSettings {
		return echo.NewHTTPError(http.StatusForbidden, "settings access denied")
	}

	clinicID := auth.ClinicIDFromContext(ctx)
	if clinicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no clinic associated with caller")
	}

	p, err := h.svc.Get(ctx, clinicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load clinic settings")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateClinicSettings(c echo.Context) error {
	ctx := c.Request().Context()
	perms := auth.PermissionsForRoles(auth.RolesFromContext(ctx))
	if !perms.CanEditSettings {
		return echo.NewHTTPError(http.StatusForbidden, "settings edit denied")
	}

	clinicID := auth.ClinicIDFromContext(ctx)
	if clinicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no clinic associated with caller")
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.Update(ctx, clinicID, auth.UserIDFromContext(ctx), c.RealIP(), req)
	switch {
	case errors.Is(err, ErrPolicyViolation):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

// TierPreview is UI-facing descriptive metadata for one tier. Non-
// authoritative: selection always goes through the selector.
type TierPreview struct {
	Tier                 tier.Tier `json:"tier"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Features             []string  `json:"features"`
	Pros                 []string  `json:"pros"`
	Cons                 []string  `json:"cons"`
	IdealFor             []string  `json:"ideal_for"`
	BandwidthRequirement string    `json:"bandwidth_requirement"`
	Cost                 string    `json:"cost"`
}

var tierPreviews = []TierPreview{
	{
		Tier:        tier.TierWebRTC,
		Title:       "Standard Video (WebRTC)",
		Description: "Direct browser-to-browser video with no third-party platform.",
		Features:    []string{"Peer-to-peer video and audio", "In-browser, no installs", "End-to-end encrypted media"},
		Pros:        []string{"Included in every plan", "Lowest latency on good networks", "No external account required"},
		Cons:        []string{"Quality depends on both endpoints' connectivity", "No cloud recording"},
		IdealFor:    []string{"Routine follow-ups", "Clinics on free or basic plans"},
		BandwidthRequirement: "0.5 Mbps up / 1 Mbps down",
		Cost:                 "Included",
	},
	{
		Tier:        tier.TierZoom,
		Title:       "Managed Video (Zoom)",
		Description: "Sessions hosted on the managed platform with waiting rooms and recording.",
		Features:    []string{"Waiting room", "Cloud recording", "Dial-in fallback", "Screen sharing"},
		Pros:        []string{"Consistent quality via platform infrastructure", "Familiar patient experience"},
		Cons:        []string{"Requires premium or enterprise subscription", "Higher bandwidth floor"},
		IdealFor:    []string{"Group sessions", "Clinics needing recording and waiting rooms"},
		BandwidthRequirement: "1 Mbps up / 2 Mbps down",
		Cost:                 "Premium and Enterprise plans",
	},
}

func (h *Handler) GetTierPreview(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"tiers": tierPreviews})
}

func (h *Handler) GetUserPermissions(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, auth.PermissionsForRoles(auth.RolesFromContext(ctx)))
}
