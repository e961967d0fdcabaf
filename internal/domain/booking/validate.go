package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mindcare/booking/internal/domain/catalog"
	"github.com/mindcare/booking/internal/platform/validation"
)

// Rejection reasons, used as metric labels.
const (
	reasonInvalid           = "invalid"
	reasonUnsupportedType   = "unsupported_consultation_type"
	reasonPast              = "past"
	reasonDoctorUnavailable = "doctor_unavailable"
	reasonSlotTaken         = "slot_taken"
)

const (
	msgPast              = "Cannot book appointments in the past."
	msgDoctorUnavailable = "Doctor is not available for appointments."
	msgDateFormat        = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgTimeFormat        = "Time has wrong format. Use one of these formats instead: hh:mm[:ss]."
	msgInvalidEmail      = "Enter a valid email address."
)

// bindInput validates the present fields of in and copies them onto a.
// Without partial every writable field must be present. The resolved doctor
// is returned when in names one, or when partial is false.
func (s *Service) bindInput(ctx context.Context, a *Appointment, in AppointmentInput, partial bool) (*catalog.Doctor, error) {
	errs := validation.Errors{}

	var doctor *catalog.Doctor
	switch {
	case in.Doctor != nil:
		id := int64(*in.Doctor)
		d, err := s.doctors.GetDoctor(ctx, id)
		switch {
		case err == nil:
			doctor = d
			a.DoctorID = d.ID
		case errors.Is(err, catalog.ErrDoctorNotFound):
			errs.Add("doctor", validation.UnknownPK(id))
		default:
			return nil, fmt.Errorf("lookup doctor: %w", err)
		}
	case !partial:
		errs.Add("doctor", validation.MsgRequired)
	}

	bindText(errs, "patient_name", in.PatientName, maxPatientNameLen, partial, &a.PatientName)
	bindText(errs, "patient_phone", in.PatientPhone, maxPatientPhoneLen, partial, &a.PatientPhone)

	if in.PatientEmail != nil {
		email := strings.TrimSpace(*in.PatientEmail)
		if email == "" {
			errs.Add("patient_email", validation.MsgBlank)
		} else if !validEmail(email) {
			errs.Add("patient_email", msgInvalidEmail)
		} else {
			a.PatientEmail = email
		}
	} else if !partial {
		errs.Add("patient_email", validation.MsgRequired)
	}

	if in.AppointmentDate != nil {
		d, err := ParseDate(*in.AppointmentDate)
		if err != nil {
			errs.Add("appointment_date", msgDateFormat)
		} else {
			a.Date = d
		}
	} else if !partial {
		errs.Add("appointment_date", validation.MsgRequired)
	}

	if in.AppointmentTime != nil {
		t, err := ParseClock(*in.AppointmentTime)
		if err != nil {
			errs.Add("appointment_time", msgTimeFormat)
		} else {
			a.Time = t
		}
	} else if !partial {
		errs.Add("appointment_time", validation.MsgRequired)
	}

	if in.ConsultationType != nil {
		if !catalog.ValidConsultationType(*in.ConsultationType) {
			errs.Add("consultation_type", validation.InvalidChoice(*in.ConsultationType))
		} else {
			a.ConsultationType = *in.ConsultationType
		}
	} else if !partial {
		errs.Add("consultation_type", validation.MsgRequired)
	}

	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			errs.Add("status", validation.InvalidChoice(*in.Status))
		} else {
			a.Status = *in.Status
		}
	}

	if in.Notes != nil {
		a.Notes = *in.Notes
	}

	return doctor, errs.Err()
}

func bindText(errs validation.Errors, field string, v *string, max int, partial bool, dst *string) {
	if v == nil {
		if !partial {
			errs.Add(field, validation.MsgRequired)
		}
		return
	}
	s := strings.TrimSpace(*v)
	switch {
	case s == "":
		errs.Add(field, validation.MsgBlank)
	case len([]rune(s)) > max:
		errs.Add(field, validation.MaxLength(max))
	default:
		*dst = s
	}
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// unsupportedTypeMessage explains which consultations a doctor offers.
func unsupportedTypeMessage(d *catalog.Doctor, consultationType string) string {
	return fmt.Sprintf("Doctor does not support %s consultations. Doctor only offers %s consultations.",
		consultationType, catalog.ModeLabel(d.ConsultationModes))
}

// inPast reports whether date and t lie before now. now carries the server zone.
func inPast(date civil.Date, t civil.Time, now time.Time) bool {
	today := civil.DateOf(now)
	if date.Before(today) {
		return true
	}
	return date == today && clockBefore(t, civil.TimeOf(now))
}

func clockBefore(a, b civil.Time) bool {
	return timeArg(a).Microseconds < timeArg(b).Microseconds
}

// rejection carries the metric reason alongside the error returned to callers.
type rejection struct {
	reason string
	err    error
}

// checkBookingRules applies, in order, consultation type support, the past
// check and doctor availability to a candidate appointment. The slot check
// needs storage and is done by the caller.
func checkBookingRules(d *catalog.Doctor, a *Appointment, now time.Time) *rejection {
	if !d.SupportsConsultationType(a.ConsultationType) {
		return &rejection{reasonUnsupportedType,
			validation.Field("consultation_type", unsupportedTypeMessage(d, a.ConsultationType))}
	}
	if inPast(a.Date, a.Time, now) {
		return &rejection{reasonPast, validation.Field(validation.NonField, msgPast)}
	}
	if !d.IsAvailable {
		return &rejection{reasonDoctorUnavailable, validation.Field("doctor", msgDoctorUnavailable)}
	}
	return nil
}
