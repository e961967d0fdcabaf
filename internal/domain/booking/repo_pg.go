package booking

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mindcare/booking/internal/platform/db"
)

const slotConstraint = "appointment_confirmed_slot_uniq"

type appointmentRepoPG struct{ db db.DBTX }

func NewAppointmentRepoPG(conn db.DBTX) AppointmentRepository {
	return &appointmentRepoPG{db: conn}
}

const apptSelect = `SELECT a.id, a.doctor_id, d.name, s.name, a.patient_name, a.patient_email,
	a.patient_phone, a.appointment_date, a.appointment_time, a.consultation_type, a.status,
	a.notes, a.created_at, a.updated_at
	FROM appointment a
	JOIN doctor d ON d.id = a.doctor_id
	JOIN specialization s ON s.id = d.specialization_id`

func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func timeArg(t civil.Time) pgtype.Time {
	us := int64(t.Hour)*3600_000_000 + int64(t.Minute)*60_000_000 +
		int64(t.Second)*1_000_000 + int64(t.Nanosecond)/1000
	return pgtype.Time{Microseconds: us, Valid: true}
}

func civilTime(t pgtype.Time) civil.Time {
	us := t.Microseconds
	return civil.Time{
		Hour:       int(us / 3600_000_000),
		Minute:     int(us / 60_000_000 % 60),
		Second:     int(us / 1_000_000 % 60),
		Nanosecond: int(us%1_000_000) * 1000,
	}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a    Appointment
		date time.Time
		tod  pgtype.Time
	)
	err := row.Scan(&a.ID, &a.DoctorID, &a.DoctorName, &a.DoctorSpecialization,
		&a.PatientName, &a.PatientEmail, &a.PatientPhone, &date, &tod,
		&a.ConsultationType, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.Date = civil.DateOf(date)
	a.Time = civilTime(tod)
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointment (doctor_id, patient_name, patient_email, patient_phone,
			appointment_date, appointment_time, consultation_type, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		a.DoctorID, a.PatientName, a.PatientEmail, a.PatientPhone,
		dateArg(a.Date), timeArg(a.Time), a.ConsultationType, a.Status, a.Notes).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, slotConstraint) {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return scanAppointment(r.db.QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.db.QueryRow(ctx, `
		UPDATE appointment SET doctor_id=$2, patient_name=$3, patient_email=$4, patient_phone=$5,
			appointment_date=$6, appointment_time=$7, consultation_type=$8, status=$9, notes=$10,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.DoctorID, a.PatientName, a.PatientEmail, a.PatientPhone,
		dateArg(a.Date), timeArg(a.Time), a.ConsultationType, a.Status, a.Notes).
		Scan(&a.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrAppointmentNotFound
		}
		if db.IsUniqueViolation(err, slotConstraint) {
			return ErrSlotTaken
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) Cancel(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointment SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, StatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, f AppointmentFilter) ([]*Appointment, error) {
	query := apptSelect + ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.DoctorID != 0 {
		query += fmt.Sprintf(` AND a.doctor_id = $%d`, idx)
		args = append(args, f.DoctorID)
		idx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(` AND a.status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.StartDate != nil {
		query += fmt.Sprintf(` AND a.appointment_date >= $%d`, idx)
		args = append(args, dateArg(*f.StartDate))
		idx++
	}
	if f.EndDate != nil {
		query += fmt.Sprintf(` AND a.appointment_date <= $%d`, idx)
		args = append(args, dateArg(*f.EndDate))
		idx++
	}
	if f.ConsultationType != "" {
		query += fmt.Sprintf(` AND a.consultation_type = $%d`, idx)
		args = append(args, f.ConsultationType)
		idx++
	}
	query += ` ORDER BY a.appointment_date ASC, a.appointment_time ASC, a.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) SlotTaken(ctx context.Context, s Slot, excludeID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3
				AND status = $4 AND id <> $5
		)`,
		s.DoctorID, dateArg(s.Date), timeArg(s.Time), StatusConfirmed, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

func (r *appointmentRepoPG) BookedTimes(ctx context.Context, doctorID int64, date civil.Date) ([]civil.Time, error) {
	rows, err := r.db.Query(ctx, `
		SELECT appointment_time FROM appointment
		WHERE doctor_id = $1 AND appointment_date = $2 AND status = $3
		ORDER BY appointment_time`,
		doctorID, dateArg(date), StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	defer rows.Close()

	var times []civil.Time
	for rows.Next() {
		var tod pgtype.Time
		if err := rows.Scan(&tod); err != nil {
			return nil, err
		}
		times = append(times, civilTime(tod))
	}
	return times, rows.Err()
}
