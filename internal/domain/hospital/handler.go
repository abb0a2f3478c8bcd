package hospital

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medbook/booking/internal/platform/auth"
	"github.com/medbook/booking/pkg/apperr"
	"github.com/medbook/booking/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/hospitals")
	// Directory reads are open to every authenticated role.
	read := g.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RolePatient))
	read.GET("", h.ListHospitals)
	read.GET("/by-city", h.ListByCity)
	read.GET("/by-city-district", h.ListByCityAndDistrict)
	read.GET("/by-location", h.ListNearby)
	read.GET("/:id", h.GetHospital)

	write := g.Group("", auth.RequireRole(auth.RoleStaff))
	write.POST("", h.CreateHospital)
}

func (h *Handler) CreateHospital(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateHospital(c.Request().Context(), &hosp); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListHospitals(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ListByCity(c echo.Context) error {
	items, err := h.svc.ListByCity(c.Request().Context(), c.QueryParam("city"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

func (h *Handler) ListByCityAndDistrict(c echo.Context) error {
	items, err := h.svc.ListByCityAndDistrict(c.Request().Context(), c.QueryParam("city"), c.QueryParam("district"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

func (h *Handler) ListNearby(c echo.Context) error {
	lat, err := floatParam(c, "latitude", "lat")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid latitude")
	}
	lng, err := floatParam(c, "longitude", "lng")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid longitude")
	}
	radius := DefaultRadiusKm
	if c.QueryParam("radiusKm") != "" || c.QueryParam("radius") != "" {
		if radius, err = floatParam(c, "radiusKm", "radius"); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid radius")
		}
	}
	items, err := h.svc.Nearby(c.Request().Context(), lat, lng, radius)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

// floatParam reads the first non-empty query parameter among names.
func floatParam(c echo.Context, names ...string) (float64, error) {
	var raw string
	for _, n := range names {
		if raw = c.QueryParam(n); raw != "" {
			break
		}
	}
	return strconv.ParseFloat(raw, 64)
}

func orEmpty(items []*Hospital) []*Hospital {
	if items == nil {
		return []*Hospital{}
	}
	return items
}
