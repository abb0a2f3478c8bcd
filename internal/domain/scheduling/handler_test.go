package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medbook/booking/internal/domain/appointment"
	"github.com/medbook/booking/internal/platform/auth"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture(Options{})
	return NewHandler(f.svc), f, echo.New()
}

func asCaller(req *http.Request, subject string, roles ...string) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, subject)
	ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
	return req.WithContext(ctx)
}

func requireHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, code, he.Code)
}

func query(path string, params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	return path + "?" + v.Encode()
}

func seedWindow(t *testing.T, f *fixture, date, start, end string) *Schedule {
	t.Helper()
	w, err := f.svc.CreateSchedule(context.Background(), window(date, start, end))
	require.NoError(t, err)
	return w
}

func TestHandler_CreateSchedule(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"doctor":{"id":7},"scheduleDate":"2024-06-10","startTime":"09:00","endTime":"12:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.CreateSchedule(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2024-06-10", got["scheduleDate"])
	assert.Equal(t, "09:00:00", got["startTime"])
	assert.Equal(t, true, got["available"])
	assert.Equal(t, float64(7), got["doctor"].(map[string]interface{})["id"])
}

func TestHandler_CreateSchedule_Inverted(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"doctor":{"id":7},"scheduleDate":"2024-06-10","startTime":"12:00","endTime":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	err := h.CreateSchedule(e.NewContext(req, httptest.NewRecorder()))
	requireHTTPStatus(t, err, http.StatusBadRequest)
}

func TestHandler_CreateScheduleRange(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"doctorId":7,"startDate":"2024-06-10","endDate":"2024-06-12","startTime":"09:00","endTime":"10:00","available":true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.CreateScheduleRange(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got []Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 3)
}

func TestHandler_GetSchedule_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("404")

	err := h.GetSchedule(c)
	requireHTTPStatus(t, err, http.StatusNotFound)
}

func TestHandler_GetSchedule_BadID(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	requireHTTPStatus(t, h.GetSchedule(c), http.StatusBadRequest)
}

func TestHandler_ListByDoctor_Empty(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("doctorId")
	c.SetParamValues("7")

	require.NoError(t, h.ListByDoctor(c))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_UpdateSchedule_InvalidLeavesWindow(t *testing.T) {
	h, f, e := newTestHandler()
	w := seedWindow(t, f, "2024-06-10", "09:00", "12:00")

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"startTime":"10:00","endTime":"09:00"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("1")

	requireHTTPStatus(t, h.UpdateSchedule(c), http.StatusBadRequest)

	stored, err := f.svc.GetSchedule(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.StartTime, stored.StartTime)
	assert.Equal(t, w.EndTime, stored.EndTime)
}

func TestHandler_DeleteSchedule(t *testing.T) {
	h, f, e := newTestHandler()
	seedWindow(t, f, "2024-06-10", "09:00", "12:00")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.DeleteSchedule(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")
}

func TestHandler_DeleteRange(t *testing.T) {
	h, f, e := newTestHandler()
	seedWindow(t, f, "2024-06-10", "09:00", "12:00")
	seedWindow(t, f, "2024-06-11", "09:00", "12:00")

	target := query("/", map[string]string{"startDate": "2024-06-10", "endDate": "2024-06-11"})
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, target, nil), rec)
	c.SetParamNames("doctorId")
	c.SetParamValues("7")

	require.NoError(t, h.DeleteRange(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.schedules.items)
}

func TestHandler_MarkDateUnavailable(t *testing.T) {
	h, f, e := newTestHandler()
	seedWindow(t, f, "2024-06-10", "09:00", "12:00")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/?date=2024-06-10", nil), rec)
	c.SetParamNames("doctorId")
	c.SetParamValues("7")

	require.NoError(t, h.MarkDateUnavailable(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.schedules.items[1].Available)
}

func TestHandler_MarkDateUnavailable_BadDate(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/?date=10-06-2024", nil), httptest.NewRecorder())
	c.SetParamNames("doctorId")
	c.SetParamValues("7")

	requireHTTPStatus(t, h.MarkDateUnavailable(c), http.StatusBadRequest)
}

func TestHandler_AvailableSlots(t *testing.T) {
	h, f, e := newTestHandler()
	seedWindow(t, f, "2024-06-10", "09:00", "10:00")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?doctorId=7&date=2024-06-10", nil), rec)

	require.NoError(t, h.AvailableSlots(c))
	assert.JSONEq(t, `["09:00","09:30"]`, rec.Body.String())
}

func TestHandler_AvailableSlots_UnknownDoctor(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?doctorId=99&date=2024-06-10", nil), httptest.NewRecorder())

	requireHTTPStatus(t, h.AvailableSlots(c), http.StatusNotFound)
}

func TestHandler_AvailableSlots_MissingParams(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?date=2024-06-10", nil), httptest.NewRecorder())
	requireHTTPStatus(t, h.AvailableSlots(c), http.StatusBadRequest)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?doctorId=7", nil), httptest.NewRecorder())
	requireHTTPStatus(t, h.AvailableSlots(c), http.StatusBadRequest)
}

func TestHandler_WeekAvailability(t *testing.T) {
	h, f, e := newTestHandler()
	seedWindow(t, f, "2024-06-11", "09:00", "10:00")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?doctorId=7", nil), rec)
	require.NoError(t, h.WeekAvailability(c))

	var got map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, WeekDays)
	assert.Equal(t, []string{"09:00:00", "09:30:00"}, got["2024-06-11"])
	assert.Equal(t, []string{}, got["2024-06-10"])
	assert.Contains(t, got, "2024-06-16")
}

func bookTarget(publicID, date, at string) string {
	return query("/", map[string]string{
		"doctorId":        "7",
		"userPublicId":    publicID,
		"appointmentDate": date,
		"appointmentTime": at,
	})
}

func TestHandler_BookAppointment(t *testing.T) {
	h, f, e := newTestHandler()
	seedWindow(t, f, "2024-06-10", "09:00", "09:30")

	req := asCaller(httptest.NewRequest(http.MethodPost, bookTarget(patientPublicID.String(), "2024-06-10", "09:00"), nil),
		patientPublicID.String(), auth.RolePatient)
	rec := httptest.NewRecorder()
	require.NoError(t, h.BookAppointment(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got appointment.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, appointment.StatusScheduled, got.Status)
	assert.Equal(t, "2024-06-10T09:00:00", got.AppointmentDate.String())

	// The slot is gone now.
	req = asCaller(httptest.NewRequest(http.MethodPost, bookTarget(secondPublicID.String(), "2024-06-10", "09:00"), nil),
		"staff-1", auth.RoleStaff)
	err := h.BookAppointment(e.NewContext(req, httptest.NewRecorder()))
	requireHTTPStatus(t, err, http.StatusConflict)
}

func TestHandler_BookAppointment_ForAnotherUser(t *testing.T) {
	h, f, e := newTestHandler()
	seedWindow(t, f, "2024-06-10", "09:00", "10:00")

	req := asCaller(httptest.NewRequest(http.MethodPost, bookTarget(secondPublicID.String(), "2024-06-10", "09:00"), nil),
		patientPublicID.String(), auth.RolePatient)
	err := h.BookAppointment(e.NewContext(req, httptest.NewRecorder()))
	requireHTTPStatus(t, err, http.StatusForbidden)
	assert.Empty(t, f.bookings.items)
}

func TestHandler_BookAppointment_BadTime(t *testing.T) {
	h, _, e := newTestHandler()
	req := asCaller(httptest.NewRequest(http.MethodPost, bookTarget(patientPublicID.String(), "2024-06-10", "9am"), nil),
		patientPublicID.String(), auth.RolePatient)
	err := h.BookAppointment(e.NewContext(req, httptest.NewRecorder()))
	requireHTTPStatus(t, err, http.StatusBadRequest)
}
