//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mindcare/booking/internal/domain/booking"
	"github.com/mindcare/booking/internal/domain/catalog"
	"github.com/mindcare/booking/internal/platform/db"
	"github.com/mindcare/booking/migrations"
)

// globalPool is shared by all tests and migrated once in TestMain.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr := os.Getenv("TEST_DATABASE_URL")
	cleanup := func() {}
	if connStr == "" {
		var err error
		connStr, cleanup, err = startPostgres(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
			os.Exit(1)
		}
	}

	pool, err := db.NewPool(ctx, connStr, 10, 1)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// resetTables empties every domain table between tests.
func resetTables(t *testing.T) {
	t.Helper()
	_, err := globalPool.Exec(context.Background(),
		`TRUNCATE appointment, doctor, specialization RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

// fixedNow is well before any date the tests book, so the past-date rule
// never interferes.
var fixedNow = time.Date(2030, 6, 15, 8, 0, 0, 0, time.UTC)

type services struct {
	catalog *catalog.Service
	booking *booking.Service
}

func newServices() *services {
	catalogSvc := catalog.NewService(
		catalog.NewSpecializationRepoPG(globalPool),
		catalog.NewDoctorRepoPG(globalPool),
		zerolog.Nop(),
	)
	bookingSvc := booking.NewService(
		booking.NewAppointmentRepoPG(globalPool),
		catalogSvc,
		zerolog.Nop(),
		booking.WithClock(func() time.Time { return fixedNow }),
		booking.WithLocation(time.UTC),
	)
	return &services{catalog: catalogSvc, booking: bookingSvc}
}

func createDoctor(t *testing.T, svc *services, name, modes string, available bool) *catalog.Doctor {
	t.Helper()
	ctx := context.Background()
	spec, _, err := svc.catalog.EnsureSpecialization(ctx, "Psychiatry", "")
	if err != nil {
		t.Fatalf("ensure specialization: %v", err)
	}
	specID := catalog.Ref(spec.ID)
	years, bio := 5, "Integration test doctor."
	d, err := svc.catalog.CreateDoctor(ctx, catalog.DoctorInput{
		Name:              &name,
		Specialization:    &specID,
		YearsExperience:   &years,
		Bio:               &bio,
		ConsultationModes: &modes,
		IsAvailable:       &available,
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d
}

func ptrStr(s string) *string { return &s }

func bookingInput(doctorID int64, date civil.Date, clock, consultationType string) booking.AppointmentInput {
	ref := booking.Ref(doctorID)
	return booking.AppointmentInput{
		Doctor:           &ref,
		PatientName:      ptrStr("Asha Menon"),
		PatientEmail:     ptrStr("asha@example.com"),
		PatientPhone:     ptrStr("9876543210"),
		AppointmentDate:  ptrStr(date.String()),
		AppointmentTime:  ptrStr(clock),
		ConsultationType: ptrStr(consultationType),
	}
}
