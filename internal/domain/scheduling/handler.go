package scheduling

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medbook/booking/internal/platform/auth"
	"github.com/medbook/booking/pkg/apperr"
	"github.com/medbook/booking/pkg/civil"
)

// slotLayout is the wire format of /available. The week view uses the full
// "15:04:05" clock instead.
const slotLayout = civil.HourMinuteLayout

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/schedules")

	read := g.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RolePatient))
	read.GET("/available", h.AvailableSlots)
	read.GET("/available-week", h.WeekAvailability)
	read.GET("/doctor/:doctorId", h.ListByDoctor)
	read.GET("/:id", h.GetSchedule)
	read.POST("/book-appointment", h.BookAppointment)

	write := g.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor))
	write.POST("", h.CreateSchedule)
	write.POST("/range", h.CreateScheduleRange)
	write.POST("/doctor/:doctorId/unavailable", h.MarkDateUnavailable)
	write.PUT("/:id", h.UpdateSchedule)
	write.DELETE("/:id", h.DeleteSchedule)
	write.DELETE("/doctor/:doctorId", h.DeleteRange)
}

func (h *Handler) CreateSchedule(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.svc.CreateSchedule(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) CreateScheduleRange(c echo.Context) error {
	var req RangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.CreateSchedulesForDateRange(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, items)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.svc.GetSchedule(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := pathID(c, "doctorId")
	if err != nil {
		return err
	}
	items, err := h.svc.ListSchedulesByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Schedule{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateSchedule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.svc.UpdateSchedule(c.Request().Context(), id, p)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteSchedule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSchedule(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "schedule deleted"})
}

// DeleteRange removes a doctor's windows dated startDate..endDate.
func (h *Handler) DeleteRange(c echo.Context) error {
	doctorID, err := pathID(c, "doctorId")
	if err != nil {
		return err
	}
	start, err := dateParam(c, "startDate")
	if err != nil {
		return err
	}
	end, err := dateParam(c, "endDate")
	if err != nil {
		return err
	}
	if _, err := h.svc.DeleteSchedulesForDateRange(c.Request().Context(), doctorID, start, end); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkDateUnavailable(c echo.Context) error {
	doctorID, err := pathID(c, "doctorId")
	if err != nil {
		return err
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return err
	}
	if err := h.svc.MarkDateUnavailable(c.Request().Context(), doctorID, date); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := queryID(c, "doctorId")
	if err != nil {
		return err
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return err
	}
	slots, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, formatSlots(slots, slotLayout))
}

// WeekAvailability renders {"YYYY-MM-DD": ["HH:mm:ss", ...]} for seven days.
func (h *Handler) WeekAvailability(c echo.Context) error {
	doctorID, err := queryID(c, "doctorId")
	if err != nil {
		return err
	}
	week, err := h.svc.WeekAvailability(c.Request().Context(), doctorID)
	if err != nil {
		return apperr.HTTP(err)
	}
	out := make(map[string][]string, len(week))
	for _, day := range week {
		out[day.Date.String()] = formatSlots(day.Slots, civil.ClockLayout)
	}
	return c.JSON(http.StatusOK, out)
}

// BookAppointment books appointmentDate + appointmentTime with the doctor.
// Callers other than staff may only book for themselves.
func (h *Handler) BookAppointment(c echo.Context) error {
	doctorID, err := queryID(c, "doctorId")
	if err != nil {
		return err
	}
	userPublicID := c.QueryParam("userPublicId")
	if userPublicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userPublicId is required")
	}
	date, err := dateParam(c, "appointmentDate")
	if err != nil {
		return err
	}
	at, err := civil.ParseTimeOfDay(c.QueryParam("appointmentTime"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointmentTime")
	}

	ctx := c.Request().Context()
	if !auth.HasRole(auth.RolesFromContext(ctx), auth.RoleStaff) && auth.UserIDFromContext(ctx) != userPublicID {
		return echo.NewHTTPError(http.StatusForbidden, "cannot book for another user")
	}

	a, err := h.svc.BookAppointment(ctx, doctorID, userPublicID, civil.DateTime{Date: date, Time: at})
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func formatSlots(slots []civil.TimeOfDay, layout string) []string {
	out := make([]string, 0, len(slots))
	for _, t := range slots {
		out = append(out, t.Format(layout))
	}
	return out
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func queryID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func dateParam(c echo.Context, name string) (civil.Date, error) {
	d, err := civil.ParseDate(c.QueryParam(name))
	if err != nil {
		return civil.Date{}, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+": expected yyyy-MM-dd")
	}
	return d, nil
}
