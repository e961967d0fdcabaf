package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mindcare/booking/internal/platform/validation"
)

const maxDoctorNameLen = 200

type Service struct {
	specializations SpecializationRepository
	doctors         DoctorRepository
	logger          zerolog.Logger
}

func NewService(specs SpecializationRepository, doctors DoctorRepository, logger zerolog.Logger) *Service {
	return &Service{specializations: specs, doctors: doctors, logger: logger}
}

// -- Specialization --

func (s *Service) ListSpecializations(ctx context.Context) ([]*Specialization, error) {
	return s.specializations.List(ctx)
}

// EnsureSpecialization returns the specialization called name, creating it
// when it does not exist yet.
func (s *Service) EnsureSpecialization(ctx context.Context, name, description string) (*Specialization, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, validation.Field("name", validation.MsgBlank)
	}
	existing, err := s.specializations.GetByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrSpecializationNotFound) {
		return nil, false, err
	}
	spec := &Specialization{Name: name, Description: description}
	if err := s.specializations.Create(ctx, spec); err != nil {
		return nil, false, err
	}
	return spec, true, nil
}

// -- Doctor --

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	return s.doctors.ListActive(ctx, f)
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.doctors.GetActive(ctx, id)
}

func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	d := &Doctor{ConsultationModes: ModeAll, IsAvailable: true}
	if err := s.apply(ctx, d, in, false); err != nil {
		return nil, err
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		if errors.Is(err, ErrSpecializationNotFound) {
			return nil, validation.Field("specialization", validation.UnknownPK(d.SpecializationID))
		}
		return nil, err
	}
	return s.doctors.GetActive(ctx, d.ID)
}

// UpdateDoctor replaces (partial=false) or patches (partial=true) an active doctor.
func (s *Service) UpdateDoctor(ctx context.Context, id int64, in DoctorInput, partial bool) (*Doctor, error) {
	d, err := s.doctors.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, d, in, partial); err != nil {
		return nil, err
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		if errors.Is(err, ErrSpecializationNotFound) {
			return nil, validation.Field("specialization", validation.UnknownPK(d.SpecializationID))
		}
		return nil, err
	}
	return s.doctors.GetActive(ctx, id)
}

// DeactivateDoctor soft-deletes a doctor; appointments keep referencing it.
func (s *Service) DeactivateDoctor(ctx context.Context, id int64) error {
	if err := s.doctors.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("doctor_id", id).Msg("doctor deactivated")
	return nil
}

// apply validates in and copies the present fields onto d. Without partial,
// every required field must be present.
func (s *Service) apply(ctx context.Context, d *Doctor, in DoctorInput, partial bool) error {
	errs := validation.Errors{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			errs.Add("name", validation.MsgBlank)
		case len([]rune(name)) > maxDoctorNameLen:
			errs.Add("name", validation.MaxLength(maxDoctorNameLen))
		default:
			d.Name = name
		}
	} else if !partial {
		errs.Add("name", validation.MsgRequired)
	}

	if in.Specialization != nil {
		specID := int64(*in.Specialization)
		if _, err := s.specializations.GetByID(ctx, specID); err != nil {
			if !errors.Is(err, ErrSpecializationNotFound) {
				return fmt.Errorf("lookup specialization: %w", err)
			}
			errs.Add("specialization", validation.UnknownPK(specID))
		} else {
			d.SpecializationID = specID
		}
	} else if !partial {
		errs.Add("specialization", validation.MsgRequired)
	}

	if in.YearsExperience != nil {
		if *in.YearsExperience < 0 {
			errs.Add("years_experience", "Ensure this value is greater than or equal to 0.")
		} else {
			d.YearsExperience = *in.YearsExperience
		}
	} else if !partial {
		errs.Add("years_experience", validation.MsgRequired)
	}

	if in.Bio != nil {
		if strings.TrimSpace(*in.Bio) == "" {
			errs.Add("bio", validation.MsgBlank)
		} else {
			d.Bio = *in.Bio
		}
	} else if !partial {
		errs.Add("bio", validation.MsgRequired)
	}

	if in.ConsultationModes != nil {
		if !ValidConsultationMode(*in.ConsultationModes) {
			errs.Add("consultation_modes", validation.InvalidChoice(*in.ConsultationModes))
		} else {
			d.ConsultationModes = *in.ConsultationModes
		}
	}

	if in.IsAvailable != nil {
		d.IsAvailable = *in.IsAvailable
	}

	return errs.Err()
}
