package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mindcare/booking/internal/platform/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/specializations/", h.ListSpecializations)

	api.GET("/doctors/", h.ListDoctors)
	api.POST("/doctors/", h.CreateDoctor)
	api.GET("/doctors/:id/", h.GetDoctor)
	api.PUT("/doctors/:id/", h.UpdateDoctor)
	api.PATCH("/doctors/:id/", h.PatchDoctor)
	api.DELETE("/doctors/:id/", h.DeleteDoctor)
}

// -- Specialization Handlers --

func (h *Handler) ListSpecializations(c echo.Context) error {
	items, err := h.svc.ListSpecializations(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// -- Doctor Handlers --

func (h *Handler) ListDoctors(c echo.Context) error {
	var f DoctorFilter
	if v := c.QueryParam("specialization"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid specialization")
		}
		f.SpecializationID = id
	}
	f.AvailableOnly = c.QueryParam("available") == "true"
	f.ConsultationMode = c.QueryParam("consultation_mode")

	items, err := h.svc.ListDoctors(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := doctorID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	return h.update(c, false)
}

func (h *Handler) PatchDoctor(c echo.Context) error {
	return h.update(c, true)
}

func (h *Handler) update(c echo.Context, partial bool) error {
	id, err := doctorID(c)
	if err != nil {
		return err
	}
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, in, partial)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

// DeleteDoctor soft-deletes the doctor. The 204 carries a body, which some
// clients rely on; net/http may refuse to write it.
func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := doctorID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateDoctor(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	err = c.JSON(http.StatusNoContent, map[string]string{"message": "Doctor deactivated successfully"})
	if errors.Is(err, http.ErrBodyNotAllowed) {
		return nil
	}
	return err
}

func doctorID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}
	return id, nil
}

func mapError(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return echo.NewHTTPError(http.StatusBadRequest, verrs)
	case errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	default:
		return err
	}
}

// bindError keeps the 413 raised while reading an oversized body and turns
// any other decode failure into a 400.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}
