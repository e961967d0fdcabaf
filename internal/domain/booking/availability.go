package booking

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mindcare/booking/internal/domain/catalog"
)

// Consultation slots start on the hour from 09:00 to 16:00.
const (
	firstSlotHour = 9
	lastSlotHour  = 16
)

const (
	msgPastDay          = "Cannot check availability for past dates"
	msgDoctorOff        = "Doctor is not available"
	reasonTextOff       = "Doctor is not available for appointments"
	reasonTextPast      = "Cannot book appointments in the past"
	reasonTextTaken     = "Time slot is already booked"
	reasonTextAvailable = "Time slot is available"
)

// TimeSlot is one hourly slot of a day view.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DayAvailability is the slot listing for one doctor and date.
type DayAvailability struct {
	DoctorID          int64      `json:"doctor_id"`
	DoctorName        string     `json:"doctor_name"`
	Date              civil.Date `json:"date"`
	Available         bool       `json:"available"`
	IsAvailable       *bool      `json:"is_available,omitempty"`
	Message           string     `json:"message,omitempty"`
	TimeSlots         []TimeSlot `json:"time_slots,omitempty"`
	ConsultationModes string     `json:"consultation_modes,omitempty"`
}

// SlotAvailability answers whether a single (doctor, date, time) can be booked.
type SlotAvailability struct {
	Available         bool        `json:"available"`
	Reason            string      `json:"reason"`
	Doctor            string      `json:"doctor,omitempty"`
	Date              *civil.Date `json:"date,omitempty"`
	Time              string      `json:"time,omitempty"`
	ConsultationModes string      `json:"consultation_modes,omitempty"`
}

// SlotTimes returns the start time of every daily slot.
func SlotTimes() []civil.Time {
	times := make([]civil.Time, 0, lastSlotHour-firstSlotHour+1)
	for h := firstSlotHour; h <= lastSlotHour; h++ {
		times = append(times, civil.Time{Hour: h})
	}
	return times
}

func slotLabel(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// DayAvailability lists the doctor's slots on date, or today when date is
// nil. Missing and inactive doctors yield catalog.ErrDoctorNotFound.
func (s *Service) DayAvailability(ctx context.Context, doctorID int64, date *civil.Date) (*DayAvailability, error) {
	ctx, span := s.tracer.Start(ctx, "booking.day_availability")
	defer span.End()
	span.SetAttributes(attribute.Int64("doctor.id", doctorID))

	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	today := civil.DateOf(s.clock())
	day := today
	if date != nil {
		day = *date
	}
	span.SetAttributes(attribute.String("booking.date", day.String()))

	view := &DayAvailability{DoctorID: doctor.ID, DoctorName: doctor.Name, Date: day}

	if day.Before(today) {
		view.Message = msgPastDay
		s.metrics.ObserveAvailabilityCheck("day", "past")
		return view, nil
	}

	slots := SlotTimes()
	view.TimeSlots = make([]TimeSlot, 0, len(slots))

	if !doctor.IsAvailable {
		off := false
		view.IsAvailable = &off
		view.Message = msgDoctorOff
		for _, t := range slots {
			view.TimeSlots = append(view.TimeSlots, TimeSlot{Time: slotLabel(t)})
		}
		s.metrics.ObserveAvailabilityCheck("day", "doctor_unavailable")
		return view, nil
	}

	booked, err := s.appts.BookedTimes(ctx, doctor.ID, day)
	if err != nil {
		return nil, err
	}
	taken := make(map[civil.Time]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}

	on := true
	view.Available = true
	view.IsAvailable = &on
	view.ConsultationModes = doctor.ConsultationModes
	for _, t := range slots {
		view.TimeSlots = append(view.TimeSlots, TimeSlot{Time: slotLabel(t), Available: !taken[t]})
	}
	s.metrics.ObserveAvailabilityCheck("day", "available")
	return view, nil
}

// CheckSlot reports whether the doctor can be booked at date and t. The
// reasons mirror the booking rules: doctor availability, then the past
// check, then an existing confirmed appointment.
func (s *Service) CheckSlot(ctx context.Context, doctorID int64, date civil.Date, t civil.Time) (*SlotAvailability, error) {
	ctx, span := s.tracer.Start(ctx, "booking.check_slot")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("doctor.id", doctorID),
		attribute.String("booking.date", date.String()),
		attribute.String("booking.time", t.String()),
	)

	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	answer, outcome, err := s.checkSlot(ctx, doctor, date, t)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveAvailabilityCheck("slot", outcome)
	return answer, nil
}

// checkSlot returns the answer together with its metric outcome.
func (s *Service) checkSlot(ctx context.Context, doctor *catalog.Doctor, date civil.Date, t civil.Time) (*SlotAvailability, string, error) {
	if !doctor.IsAvailable {
		return &SlotAvailability{Reason: reasonTextOff}, "doctor_unavailable", nil
	}
	if inPast(date, t, s.clock()) {
		return &SlotAvailability{Reason: reasonTextPast}, "past", nil
	}
	taken, err := s.appts.SlotTaken(ctx, Slot{DoctorID: doctor.ID, Date: date, Time: t}, 0)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return &SlotAvailability{Reason: reasonTextTaken}, "taken", nil
	}
	return &SlotAvailability{
		Available:         true,
		Reason:            reasonTextAvailable,
		Doctor:            doctor.Name,
		Date:              &date,
		Time:              slotLabel(t),
		ConsultationModes: doctor.ConsultationModes,
	}, "available", nil
}
