package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var doctorColumns = []string{"id", "name", "specialization_id", "name", "years_experience", "bio",
	"consultation_modes", "is_available", "is_active", "created_at", "updated_at"}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestSpecializationRepoPG_List(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`SELECT id, name, description FROM specialization ORDER BY name ASC`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description"}).
			AddRow(int64(2), "Counseling", "").
			AddRow(int64(1), "Psychiatry", "Medication management"))

	items, err := NewSpecializationRepoPG(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Counseling", items[0].Name)
	assert.Equal(t, "Medication management", items[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpecializationRepoPG_GetByName_NotFound(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`FROM specialization WHERE name = \$1`).
		WithArgs("Neurology").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewSpecializationRepoPG(mock).GetByName(context.Background(), "Neurology")
	assert.ErrorIs(t, err, ErrSpecializationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepoPG_Create(t *testing.T) {
	mock := newMockPool(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO doctor`).
		WithArgs("Dr. A", int64(1), 3, "bio", ModeAll, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_active", "created_at", "updated_at"}).
			AddRow(int64(7), true, now, now))

	d := &Doctor{Name: "Dr. A", SpecializationID: 1, YearsExperience: 3, Bio: "bio",
		ConsultationModes: ModeAll, IsAvailable: true}
	require.NoError(t, NewDoctorRepoPG(mock).Create(context.Background(), d))
	assert.Equal(t, int64(7), d.ID)
	assert.True(t, d.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepoPG_Create_UnknownSpecialization(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`INSERT INTO doctor`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := NewDoctorRepoPG(mock).Create(context.Background(), &Doctor{SpecializationID: 99})
	assert.ErrorIs(t, err, ErrSpecializationNotFound)
}

func TestDoctorRepoPG_GetActive(t *testing.T) {
	mock := newMockPool(t)
	now := time.Now()
	mock.ExpectQuery(`WHERE d.id = \$1 AND d.is_active`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(doctorColumns).
			AddRow(int64(3), "Dr. C", int64(1), "Psychiatry", 8, "bio", ModeVideoOnly, true, true, now, now))

	d, err := NewDoctorRepoPG(mock).GetActive(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Psychiatry", d.SpecializationName)
	assert.True(t, d.SupportsConsultationType(ConsultationVideo))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepoPG_GetActive_NotFound(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`WHERE d.id = \$1 AND d.is_active`).
		WithArgs(int64(3)).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewDoctorRepoPG(mock).GetActive(context.Background(), 3)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestDoctorRepoPG_Deactivate(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec(`UPDATE doctor SET is_active = FALSE`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE doctor SET is_active = FALSE`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewDoctorRepoPG(mock)
	require.NoError(t, repo.Deactivate(context.Background(), 5))
	assert.ErrorIs(t, repo.Deactivate(context.Background(), 5), ErrDoctorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepoPG_ListActive_Filters(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`AND d.specialization_id = \$1 AND d.is_available AND d.consultation_modes = \$2 ORDER BY d.name ASC`).
		WithArgs(int64(2), ModePhoneOnly).
		WillReturnRows(pgxmock.NewRows(doctorColumns))

	items, err := NewDoctorRepoPG(mock).ListActive(context.Background(), DoctorFilter{
		SpecializationID: 2, AvailableOnly: true, ConsultationMode: ModePhoneOnly,
	})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}
