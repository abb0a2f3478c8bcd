package user

import (
	"net/http"

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
	g := api.Group("/users")
	staff := g.Group("", auth.RequireRole(auth.RoleStaff))
	staff.POST("", h.CreateUser)
	staff.GET("", h.ListUsers)

	// Patients may only reach their own record; see requireSelfOrStaff.
	own := g.Group("", auth.RequireRole(auth.RoleStaff, auth.RolePatient))
	own.GET("/:publicId", h.GetUser)
	own.PUT("/:publicId", h.UpdateUser)
	own.DELETE("/:publicId", h.DeleteUser)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.CreateUser(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListUsers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) GetUser(c echo.Context) error {
	publicID := c.Param("publicId")
	if err := requireSelfOrStaff(c, publicID); err != nil {
		return err
	}
	u, err := h.svc.GetUserByPublicID(c.Request().Context(), publicID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	publicID := c.Param("publicId")
	if err := requireSelfOrStaff(c, publicID); err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	verifyCurrent := !auth.HasRole(auth.RolesFromContext(ctx), auth.RoleStaff)
	u, err := h.svc.UpdateUser(ctx, publicID, req, verifyCurrent)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	publicID := c.Param("publicId")
	if err := requireSelfOrStaff(c, publicID); err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), publicID); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func requireSelfOrStaff(c echo.Context, publicID string) error {
	ctx := c.Request().Context()
	if auth.HasRole(auth.RolesFromContext(ctx), auth.RoleStaff) {
		return nil
	}
	if auth.UserIDFromContext(ctx) == publicID {
		return nil
	}
	return echo.NewHTTPError(http.StatusForbidden, "access to another user's record is not allowed")
}
