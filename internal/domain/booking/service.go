package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mindcare/booking/internal/domain/catalog"
	"github.com/mindcare/booking/internal/platform/telemetry"
	"github.com/mindcare/booking/internal/platform/validation"
)

// DoctorLookup resolves active doctors. *catalog.Service satisfies it.
type DoctorLookup interface {
	GetDoctor(ctx context.Context, id int64) (*catalog.Doctor, error)
}

type Service struct {
	appts   AppointmentRepository
	doctors DoctorLookup
	metrics *telemetry.BookingMetrics
	tracer  trace.Tracer
	logger  zerolog.Logger
	now     func() time.Time
	loc     *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone "today" and "now" are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMetrics(m *telemetry.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func NewService(appts AppointmentRepository, doctors DoctorLookup, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		appts:   appts,
		doctors: doctors,
		tracer:  telemetry.Tracer(),
		logger:  logger,
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// reject records a refused booking and returns err unchanged.
func (s *Service) reject(span trace.Span, reason string, err error) error {
	s.metrics.ObserveRejection(reason)
	span.SetAttributes(attribute.String("booking.rejection", reason))
	s.logger.Debug().Str("reason", reason).Err(err).Msg("booking rejected")
	return err
}

// fail marks the span as failed for errors that are not rejections.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isValidation(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs)
}

// CreateAppointment validates in, applies the booking rules and stores a
// confirmed appointment. Status is always confirmed on creation.
func (s *Service) CreateAppointment(ctx context.Context, in AppointmentInput) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.create_appointment")
	defer span.End()

	in.Status = nil
	a := &Appointment{Status: StatusConfirmed}
	doctor, err := s.bindInput(ctx, a, in, false)
	if err != nil {
		if isValidation(err) {
			return nil, s.reject(span, reasonInvalid, err)
		}
		return nil, fail(span, err)
	}
	span.SetAttributes(
		attribute.Int64("doctor.id", a.DoctorID),
		attribute.String("booking.date", a.Date.String()),
		attribute.String("booking.time", a.Time.String()),
		attribute.String("booking.consultation_type", a.ConsultationType),
	)

	if r := checkBookingRules(doctor, a, s.clock()); r != nil {
		return nil, s.reject(span, r.reason, r.err)
	}

	taken, err := s.appts.SlotTaken(ctx, a.Slot(), 0)
	if err != nil {
		return nil, fail(span, err)
	}
	if taken {
		return nil, s.reject(span, reasonSlotTaken, ErrSlotTaken)
	}

	if err := s.appts.Create(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, s.reject(span, reasonSlotTaken, err)
		}
		return nil, fail(span, err)
	}
	a.DoctorName = doctor.Name
	a.DoctorSpecialization = doctor.SpecializationName

	s.metrics.ObserveCreated(a.ConsultationType)
	span.SetAttributes(attribute.Int64("appointment.id", a.ID))
	s.logger.Info().
		Int64("appointment_id", a.ID).
		Int64("doctor_id", a.DoctorID).
		Str("date", a.Date.String()).
		Str("time", a.Time.String()).
		Str("consultation_type", a.ConsultationType).
		Msg("appointment booked")
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.get_appointment")
	defer span.End()
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.list_appointments")
	defer span.End()
	return s.appts.List(ctx, f)
}

// UpdateAppointment replaces (partial=false) or patches (partial=true) an
// appointment. Consultation type support is rechecked when the doctor or the
// type changes; the double-booking check runs when the slot moves or the
// appointment becomes confirmed again. The past and availability rules only
// apply on creation.
func (s *Service) UpdateAppointment(ctx context.Context, id int64, in AppointmentInput, partial bool) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.update_appointment")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", id))

	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStatus := a.Status

	doctor, err := s.bindInput(ctx, a, in, partial)
	if err != nil {
		if isValidation(err) {
			return nil, s.reject(span, reasonInvalid, err)
		}
		return nil, fail(span, err)
	}

	if in.Doctor != nil || in.ConsultationType != nil {
		if doctor == nil {
			doctor, err = s.doctors.GetDoctor(ctx, a.DoctorID)
			if err != nil && !errors.Is(err, catalog.ErrDoctorNotFound) {
				return nil, fail(span, err)
			}
		}
		if doctor != nil && !doctor.SupportsConsultationType(a.ConsultationType) {
			return nil, s.reject(span, reasonUnsupportedType,
				validation.Field("consultation_type", unsupportedTypeMessage(doctor, a.ConsultationType)))
		}
	}

	if a.Status == StatusConfirmed && (in.movesSlot() || prevStatus != StatusConfirmed) {
		taken, err := s.appts.SlotTaken(ctx, a.Slot(), a.ID)
		if err != nil {
			return nil, fail(span, err)
		}
		if taken {
			return nil, s.reject(span, reasonSlotTaken, ErrSlotTaken)
		}
	}

	if err := s.appts.Update(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, s.reject(span, reasonSlotTaken, err)
		}
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fail(span, err)
	}

	if a.Status == StatusCancelled && prevStatus != StatusCancelled {
		s.metrics.ObserveCancellation()
	}
	s.logger.Info().Int64("appointment_id", a.ID).Str("status", a.Status).Msg("appointment updated")
	return s.appts.GetByID(ctx, id)
}

// CancelAppointment marks the appointment cancelled. The row is kept and no
// longer blocks its slot.
func (s *Service) CancelAppointment(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "booking.cancel_appointment")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", id))

	if err := s.appts.Cancel(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fail(span, err)
	}
	s.metrics.ObserveCancellation()
	s.logger.Info().Int64("appointment_id", id).Msg("appointment cancelled")
	return nil
}
