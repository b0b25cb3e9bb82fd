package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	g.POST("/sessions/", h.CreateSession)
	g.GET("/sessions/", h.ListSessions)
	g.GET("/sessions/upcoming/", h.ListUpcoming)
	g.GET("/sessions/:id/", h.GetSession)
	g.POST("/sessions/:id/join/", h.JoinSession)
	g.GET("/sessions/:id/join-info/", h.GetJoinInfo)
	g.POST("/sessions/:id/leave/", h.LeaveSession)
	g.POST("/sessions/:id/cancel/", h.CancelSession)
	g.POST("/sessions/:id/report-failure/", h.ReportFailure)

	g.POST("/sessions/:id/offer", h.SendOffer)
	g.POST("/sessions/:id/answer", h.SendAnswer)
	g.POST("/sessions/:id/ice", h.SendCandidate)
	g.GET("/sessions/:id/signaling", h.PollSignaling)
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

// httpError maps domain errors onto transport codes. Signaling and
// transition conflicts are 409s aimed at the offending caller only.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, ErrNotParticipant):
		return echo.NewHTTPError(http.StatusForbidden, "not a participant of this session")
	case errors.Is(err, ErrJoinWindowClosed):
		return echo.NewHTTPError(http.StatusConflict, "session cannot be joined at this time")
	case errors.Is(err, ErrDuplicateOffer):
		return echo.NewHTTPError(http.StatusConflict, "an offer is already pending")
	case errors.Is(err, ErrNoPendingOffer):
		return echo.NewHTTPError(http.StatusConflict, "no offer to answer")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrTransportFailure):
		// Generic message only; internal detail stays in the audit trail.
		return echo.NewHTTPError(http.StatusBadGateway, "call could not be established")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()
	perms := auth.PermissionsForRoles(auth.RolesFromContext(ctx))
	if !perms.CanManageSessions {
		return echo.NewHTTPError(http.StatusForbidden, "session management denied")
	}
	clinicID := auth.ClinicIDFromContext(ctx)
	if clinicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no clinic associated with caller")
	}

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, decision, err := h.svc.Create(ctx, clinicID, auth.UserIDFromContext(ctx), req)
	if err != nil {
		if errors.Is(err, ErrTransportFailure) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"session":       sess,
		"tier_decision": decision,
	})
}

func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()
	clinicID := auth.ClinicIDFromContext(ctx)
	if clinicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no clinic associated with caller")
	}

	f := ListFilter{Status: Status(c.QueryParam("status"))}
	perms := auth.PermissionsForRoles(auth.RolesFromContext(ctx))
	// Non-staff callers only see their own sessions.
	if !perms.CanViewSettings {
		f.UserID = auth.UserIDFromContext(ctx)
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(ctx, clinicID, f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions")
	}
	if items == nil {
		items = []*Session{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListUpcoming(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.Upcoming(ctx, auth.UserIDFromContext(ctx), 20)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list upcoming sessions")
	}
	if items == nil {
		items = []*Session{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": items})
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	sess, err := h.svc.Get(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) JoinSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	info, err := h.svc.Join(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) GetJoinInfo(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	info, err := h.svc.JoinInfoFor(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) LeaveSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	sess, err := h.svc.Leave(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) CancelSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	sess, err := h.svc.Cancel(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

type reportFailureRequest struct {
	Detail string `json:"detail"`
}

func (h *Handler) ReportFailure(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req reportFailureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Detail == "" {
		req.Detail = "transport failure reported by participant"
	}

	ctx := c.Request().Context()
	sess, err := h.svc.ReportTransportFailure(ctx, id, auth.UserIDFromContext(ctx), req.Detail)
	if err != nil {
		return httpError(err)
	}

	resp := map[string]interface{}{
		"status": sess.Status,
		"tier":   sess.Tier,
	}
	if sess.Status == StatusFailed {
		resp["message"] = "call could not be established"
	}
	return c.JSON(http.StatusOK, resp)
}

type signalRequest struct {
	Payload json.RawMessage `json:"payload"`
}

func (h *Handler) bindSignal(c echo.Context) (uuid.UUID, string, json.RawMessage, error) {
	id, err := sessionID(c)
	if err != nil {
		return uuid.Nil, "", nil, err
	}
	var req signalRequest
	if err := c.Bind(&req); err != nil || len(req.Payload) == 0 {
		return uuid.Nil, "", nil, echo.NewHTTPError(http.StatusBadRequest, "payload is required")
	}
	return id, auth.UserIDFromContext(c.Request().Context()), req.Payload, nil
}

func (h *Handler) SendOffer(c echo.Context) error {
	id, userID, payload, err := h.bindSignal(c)
	if err != nil {
		return err
	}
	if err := h.svc.SignalOffer(c.Request().Context(), id, userID, payload); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) SendAnswer(c echo.Context) error {
	id, userID, payload, err := h.bindSignal(c)
	if err != nil {
		return err
	}
	if err := h.svc.SignalAnswer(c.Request().Context(), id, userID, payload); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) SendCandidate(c echo.Context) error {
	id, userID, payload, err := h.bindSignal(c)
	if err != nil {
		return err
	}
	if err := h.svc.SignalCandidate(c.Request().Context(), id, userID, payload); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) PollSignaling(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	msgs, err := h.svc.CollectSignals(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": msgs})
}
