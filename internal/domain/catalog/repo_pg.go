package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mindcare/booking/internal/platform/db"
)

// =========== Specialization Repository ===========

type specializationRepoPG struct{ db db.DBTX }

func NewSpecializationRepoPG(conn db.DBTX) SpecializationRepository {
	return &specializationRepoPG{db: conn}
}

const specCols = `id, name, description`

func scanSpecialization(row pgx.Row) (*Specialization, error) {
	var s Specialization
	if err := row.Scan(&s.ID, &s.Name, &s.Description); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrSpecializationNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *specializationRepoPG) Create(ctx context.Context, s *Specialization) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO specialization (name, description)
		VALUES ($1, $2)
		RETURNING id`,
		s.Name, s.Description).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert specialization: %w", err)
	}
	return nil
}

func (r *specializationRepoPG) GetByID(ctx context.Context, id int64) (*Specialization, error) {
	return scanSpecialization(r.db.QueryRow(ctx, `SELECT `+specCols+` FROM specialization WHERE id = $1`, id))
}

func (r *specializationRepoPG) GetByName(ctx context.Context, name string) (*Specialization, error) {
	return scanSpecialization(r.db.QueryRow(ctx, `SELECT `+specCols+` FROM specialization WHERE name = $1`, name))
}

func (r *specializationRepoPG) List(ctx context.Context) ([]*Specialization, error) {
	rows, err := r.db.Query(ctx, `SELECT `+specCols+` FROM specialization ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	defer rows.Close()

	items := []*Specialization{}
	for rows.Next() {
		s, err := scanSpecialization(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ db db.DBTX }

func NewDoctorRepoPG(conn db.DBTX) DoctorRepository {
	return &doctorRepoPG{db: conn}
}

const doctorSelect = `SELECT d.id, d.name, d.specialization_id, s.name, d.years_experience, d.bio,
	d.consultation_modes, d.is_available, d.is_active, d.created_at, d.updated_at
	FROM doctor d JOIN specialization s ON s.id = d.specialization_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.SpecializationID, &d.SpecializationName,
		&d.YearsExperience, &d.Bio, &d.ConsultationModes, &d.IsAvailable, &d.IsActive,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO doctor (name, specialization_id, years_experience, bio,
			consultation_modes, is_available, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, is_active, created_at, updated_at`,
		d.Name, d.SpecializationID, d.YearsExperience, d.Bio,
		d.ConsultationModes, d.IsAvailable).
		Scan(&d.ID, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrSpecializationNotFound
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *doctorRepoPG) GetActive(ctx context.Context, id int64) (*Doctor, error) {
	return scanDoctor(r.db.QueryRow(ctx, doctorSelect+` WHERE d.id = $1 AND d.is_active`, id))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.db.QueryRow(ctx, `
		UPDATE doctor SET name=$2, specialization_id=$3, years_experience=$4, bio=$5,
			consultation_modes=$6, is_available=$7, updated_at=NOW()
		WHERE id = $1 AND is_active
		RETURNING updated_at`,
		d.ID, d.Name, d.SpecializationID, d.YearsExperience, d.Bio,
		d.ConsultationModes, d.IsAvailable).Scan(&d.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrDoctorNotFound
		}
		if db.IsForeignKeyViolation(err) {
			return ErrSpecializationNotFound
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	return nil
}

func (r *doctorRepoPG) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE doctor SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("deactivate doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepoPG) ListActive(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	query := doctorSelect + ` WHERE d.is_active`
	var args []interface{}
	idx := 1

	if f.SpecializationID != 0 {
		query += fmt.Sprintf(` AND d.specialization_id = $%d`, idx)
		args = append(args, f.SpecializationID)
		idx++
	}
	if f.AvailableOnly {
		query += ` AND d.is_available`
	}
	if f.ConsultationMode != "" {
		query += fmt.Sprintf(` AND d.consultation_modes = $%d`, idx)
		args = append(args, f.ConsultationMode)
		idx++
	}
	query += ` ORDER BY d.name ASC, d.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	items := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
