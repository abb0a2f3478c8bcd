package appointment

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medbook/booking/internal/platform/auth"
	"github.com/medbook/booking/pkg/apperr"
	"github.com/medbook/booking/pkg/civil"
	"github.com/medbook/booking/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments")

	staff := g.Group("", auth.RequireRole(auth.RoleStaff))
	staff.POST("", h.CreateAppointment)
	staff.GET("", h.ListAppointments)
	staff.GET("/hospital/:hospitalId", h.ListByHospital)
	staff.DELETE("/:id", h.CancelAppointment)

	clinical := g.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
	clinical.PUT("/:id", h.UpdateStatus)

	// Patients are limited to their own appointments inside the handlers.
	member := g.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RolePatient))
	member.GET("/:id", h.GetAppointment)
	member.GET("/user/:userId", h.ListByUser)
	member.POST("/:id/cancel", h.CancelForUser)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	// Another user's appointment answers exactly like a missing one.
	if err := h.requireOwner(c, a.UserID); err != nil {
		return apperr.HTTP(apperr.NotFound("appointment not found with ID: %d", id))
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointments(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

// ListByUser lists a user's appointments; ?active=true drops cancelled ones.
func (h *Handler) ListByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.requireOwner(c, userID); err != nil {
		return err
	}
	ctx := c.Request().Context()
	var items []*Appointment
	if active, _ := strconv.ParseBool(c.QueryParam("active")); active {
		items, err = h.svc.ListActiveByUser(ctx, userID)
	} else {
		items, err = h.svc.ListByUser(ctx, userID)
	}
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

// ListByHospital lists a hospital's appointments, optionally restricted to
// from..to (inclusive). A bare date as "to" covers that whole day.
func (h *Handler) ListByHospital(c echo.Context) error {
	hospitalID, err := pathID(c, "hospitalId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	fromRaw, toRaw := c.QueryParam("from"), c.QueryParam("to")
	if fromRaw == "" && toRaw == "" {
		items, err := h.svc.ListByHospital(ctx, hospitalID)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, orEmpty(items))
	}
	if fromRaw == "" || toRaw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to must be given together")
	}
	from, err := parseBound(fromRaw, false)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to, err := parseBound(toRaw, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.ListByHospitalAndRange(ctx, hospitalID, from, to)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, c.QueryParam("status"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.svc.CancelAppointment(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "appointment cancelled"})
}

// CancelForUser cancels on behalf of the owning user. Staff name the user
// with ?userId; other callers act as themselves.
func (h *Handler) CancelForUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var userID int64
	if raw := c.QueryParam("userId"); raw != "" {
		if userID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
		}
	}
	if !auth.HasRole(auth.RolesFromContext(ctx), auth.RoleStaff) {
		callerID, err := h.svc.ResolveUserID(ctx, auth.UserIDFromContext(ctx))
		if err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "caller is not a registered user")
		}
		if userID != 0 && userID != callerID {
			return echo.NewHTTPError(http.StatusForbidden, "cannot cancel for another user")
		}
		userID = callerID
	}
	if userID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}

	cancelled, err := h.svc.CancelAppointmentForUser(ctx, id, userID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// requireOwner lets staff and doctors through and limits everyone else to
// the appointments of the user their token names.
func (h *Handler) requireOwner(c echo.Context, userID int64) error {
	ctx := c.Request().Context()
	if auth.HasRole(auth.RolesFromContext(ctx), auth.RoleStaff, auth.RoleDoctor) {
		return nil
	}
	callerID, err := h.svc.ResolveUserID(ctx, auth.UserIDFromContext(ctx))
	if err != nil || callerID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "access to another user's appointments is not allowed")
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func parseBound(raw string, endOfDay bool) (civil.DateTime, error) {
	if dt, err := civil.ParseDateTime(raw); err == nil {
		return dt, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.DateTime{}, err
	}
	dt := civil.DateTime{Date: d}
	if endOfDay {
		dt.Time = civil.NewTimeOfDay(23, 59, 59)
	}
	return dt, nil
}

func orEmpty(items []*Appointment) []*Appointment {
	if items == nil {
		return []*Appointment{}
	}
	return items
}
