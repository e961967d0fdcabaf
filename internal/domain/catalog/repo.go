package catalog

import (
	"context"
	"errors"
)

var (
	ErrDoctorNotFound         = errors.New("doctor not found")
	ErrSpecializationNotFound = errors.New("specialization not found")
)

type SpecializationRepository interface {
	Create(ctx context.Context, s *Specialization) error
	GetByID(ctx context.Context, id int64) (*Specialization, error)
	GetByName(ctx context.Context, name string) (*Specialization, error)
	List(ctx context.Context) ([]*Specialization, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	// GetActive returns ErrDoctorNotFound for missing and soft-deleted doctors.
	GetActive(ctx context.Context, id int64) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Deactivate(ctx context.Context, id int64) error
	ListActive(ctx context.Context, f DoctorFilter) ([]*Doctor, error)
}
