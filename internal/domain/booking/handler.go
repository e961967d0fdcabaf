package booking

import (
	"errors"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/labstack/echo/v4"

	"github.com/mindcare/booking/internal/domain/catalog"
	"github.com/mindcare/booking/internal/platform/validation"
)

const (
	msgAppointmentNotFound = "Appointment not found"
	msgDoctorNotFound      = "Doctor not found"
	msgSlotTaken           = "This time slot is already booked"
	msgBadDate             = "Invalid date format. Use YYYY-MM-DD"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments/", h.ListAppointments)
	api.POST("/appointments/", h.CreateAppointment)
	api.GET("/appointments/:id/", h.GetAppointment)
	api.PUT("/appointments/:id/", h.UpdateAppointment)
	api.PATCH("/appointments/:id/", h.PatchAppointment)
	api.DELETE("/appointments/:id/", h.CancelAppointment)

	api.GET("/doctors/:id/availability/", h.DoctorAvailability)
	api.POST("/check-availability/", h.CheckAvailability)
}

// -- Appointment Handlers --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var in AppointmentInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":        "Appointment booked successfully",
		"appointment_id": a.ID,
		"appointment":    a,
	})
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	var f AppointmentFilter
	if v := c.QueryParam("doctor"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor")
		}
		f.DoctorID = id
	}
	f.Status = c.QueryParam("status")
	f.ConsultationType = c.QueryParam("consultation_type")
	for param, dst := range map[string]**civil.Date{"start_date": &f.StartDate, "end_date": &f.EndDate} {
		if v := c.QueryParam(param); v != "" {
			d, err := ParseDate(v)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, msgBadDate)
			}
			*dst = &d
		}
	}

	items, err := h.svc.ListAppointments(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	return h.update(c, false)
}

func (h *Handler) PatchAppointment(c echo.Context) error {
	return h.update(c, true)
}

func (h *Handler) update(c echo.Context, partial bool) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	var in AppointmentInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, in, partial)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Appointment updated successfully",
		"appointment": a,
	})
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	if err := h.svc.CancelAppointment(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment cancelled successfully"})
}

// -- Availability Handlers --

func (h *Handler) DoctorAvailability(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, msgDoctorNotFound)
	}
	var date *civil.Date
	if v := c.QueryParam("date"); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, msgBadDate)
		}
		date = &d
	}
	view, err := h.svc.DayAvailability(c.Request().Context(), id, date)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// slotQuery is the check-availability body. doctor is accepted as an alias
// of doctor_id.
type slotQuery struct {
	DoctorID *Ref   `json:"doctor_id"`
	Doctor   *Ref   `json:"doctor"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	var q slotQuery
	if err := c.Bind(&q); err != nil {
		return bindError(err)
	}
	ref := q.DoctorID
	if ref == nil {
		ref = q.Doctor
	}
	if ref == nil || *ref == 0 || q.Date == "" || q.Time == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id, date, and time are required")
	}
	date, err := ParseDate(q.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date or time format")
	}
	t, err := ParseClock(q.Time)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date or time format")
	}

	answer, err := h.svc.CheckSlot(c.Request().Context(), int64(*ref), date, t)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, answer)
}

func appointmentID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, msgAppointmentNotFound)
	}
	return id, nil
}

func mapError(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return echo.NewHTTPError(http.StatusBadRequest, verrs)
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusBadRequest, msgSlotTaken)
	case errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msgAppointmentNotFound)
	case errors.Is(err, catalog.ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msgDoctorNotFound)
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
