package booking

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mindcare/booking/internal/domain/catalog"
)

// Appointment statuses. Only confirmed appointments occupy a slot.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ValidStatus reports whether s is one of the Status* values.
func ValidStatus(s string) bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Field limits.
const (
	maxPatientNameLen  = 200
	maxPatientPhoneLen = 15
)

// Appointment maps to the appointment table. DoctorName and
// DoctorSpecialization are joined in on read.
type Appointment struct {
	ID                   int64      `db:"id" json:"id"`
	DoctorID             int64      `db:"doctor_id" json:"doctor"`
	DoctorName           string     `db:"doctor_name" json:"doctor_name"`
	DoctorSpecialization string     `db:"doctor_specialization" json:"doctor_specialization"`
	PatientName          string     `db:"patient_name" json:"patient_name"`
	PatientEmail         string     `db:"patient_email" json:"patient_email"`
	PatientPhone         string     `db:"patient_phone" json:"patient_phone"`
	Date                 civil.Date `db:"appointment_date" json:"appointment_date"`
	Time                 civil.Time `db:"appointment_time" json:"appointment_time"`
	ConsultationType     string     `db:"consultation_type" json:"consultation_type"`
	Status               string     `db:"status" json:"status"`
	Notes                string     `db:"notes" json:"notes"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"-"`
}

// Slot identifies a bookable (doctor, date, time) triple.
type Slot struct {
	DoctorID int64
	Date     civil.Date
	Time     civil.Time
}

// Slot returns the triple the appointment occupies.
func (a *Appointment) Slot() Slot {
	return Slot{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}

// AppointmentInput is a create or update request. Nil fields were absent.
// Date and time stay strings until validated so format errors can be
// reported per field.
type AppointmentInput struct {
	Doctor           *Ref    `json:"doctor"`
	PatientName      *string `json:"patient_name"`
	PatientEmail     *string `json:"patient_email"`
	PatientPhone     *string `json:"patient_phone"`
	AppointmentDate  *string `json:"appointment_date"`
	AppointmentTime  *string `json:"appointment_time"`
	ConsultationType *string `json:"consultation_type"`
	Status           *string `json:"status"`
	Notes            *string `json:"notes"`
}

// movesSlot reports whether the request touches the slot triple.
func (in AppointmentInput) movesSlot() bool {
	return in.Doctor != nil || in.AppointmentDate != nil || in.AppointmentTime != nil
}

// AppointmentFilter narrows an appointment listing. Zero values disable a filter.
type AppointmentFilter struct {
	DoctorID         int64
	Status           string
	StartDate        *civil.Date
	EndDate          *civil.Date
	ConsultationType string
}

// Ref is a row id that decodes from a JSON number or a numeric string.
type Ref = catalog.Ref

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (civil.Date, error) {
	return civil.ParseDate(strings.TrimSpace(s))
}

var clockLayouts = []string{"15:04:05", "15:04", "15"}

// ParseClock parses HH, HH:MM or HH:MM:SS into a time of day.
func ParseClock(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, fmt.Errorf("invalid time %q", s)
}
