package booking

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrSlotTaken means a confirmed appointment already holds the slot.
	ErrSlotTaken = errors.New("this time slot is already booked")
)

type AppointmentRepository interface {
	// Create and Update return ErrSlotTaken when the confirmed-slot index rejects the row.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Cancel(ctx context.Context, id int64) error
	List(ctx context.Context, f AppointmentFilter) ([]*Appointment, error)
	// SlotTaken reports whether a confirmed appointment other than excludeID
	// holds the slot. excludeID 0 excludes nothing.
	SlotTaken(ctx context.Context, s Slot, excludeID int64) (bool, error)
	// BookedTimes returns the times of the doctor's confirmed appointments on date.
	BookedTimes(ctx context.Context, doctorID int64, date civil.Date) ([]civil.Time, error)
}
