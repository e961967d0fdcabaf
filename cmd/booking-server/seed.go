package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/mindcare/booking/internal/config"
	"github.com/mindcare/booking/internal/domain/catalog"
)

type seedDoctor struct {
	name  string
	years int
	bio   string
	modes string
}

type seedSpecialization struct {
	name        string
	description string
	doctors     []seedDoctor
}

var seedData = []seedSpecialization{
	{
		name:        "Psychiatry",
		description: "Diagnosis and medical treatment of mental health conditions",
		doctors: []seedDoctor{
			{"Dr. Meera Iyer", 12, "Adult psychiatry with a focus on mood disorders.", catalog.ModeAll},
			{"Dr. Rohan Kapoor", 7, "Anxiety and sleep disorders.", catalog.ModeInPersonVideo},
		},
	},
	{
		name:        "Clinical Psychology",
		description: "Assessment and talk therapy",
		doctors: []seedDoctor{
			{"Dr. Ananya Rao", 9, "Cognitive behavioural therapy for adults and adolescents.", catalog.ModeOnlineOnly},
		},
	},
	{
		name:        "Child and Adolescent Psychiatry",
		description: "Mental health care for children and teenagers",
		doctors: []seedDoctor{
			{"Dr. Kabir Shah", 15, "Developmental and behavioural concerns in children.", catalog.ModeInPersonOnly},
		},
	},
	{
		name:        "Counseling",
		description: "Short-term support for stress, grief and relationships",
		doctors: []seedDoctor{
			{"Dr. Sara Thomas", 4, "Stress management and grief counselling.", catalog.ModePhoneOnly},
			{"Dr. Vikram Nair", 6, "Relationship and family counselling.", catalog.ModeVideoOnly},
		},
	},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default specializations and demo doctors",
		Long: "Creates the default specializations. Demo doctors are added only " +
			"for specializations created by this run, so repeated runs are no-ops.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				svc := catalog.NewService(
					catalog.NewSpecializationRepoPG(pool),
					catalog.NewDoctorRepoPG(pool),
					newLogger(cfg),
				)
				return seed(ctx, svc, cmd.OutOrStdout())
			})
		},
	}
}

func seed(ctx context.Context, svc *catalog.Service, out io.Writer) error {
	for _, s := range seedData {
		spec, created, err := svc.EnsureSpecialization(ctx, s.name, s.description)
		if err != nil {
			return fmt.Errorf("seed specialization %q: %w", s.name, err)
		}
		if !created {
			fmt.Fprintf(out, "specialization %q exists, skipping\n", s.name)
			continue
		}
		specID := catalog.Ref(spec.ID)
		for _, d := range s.doctors {
			in := catalog.DoctorInput{
				Name:              &d.name,
				Specialization:    &specID,
				YearsExperience:   &d.years,
				Bio:               &d.bio,
				ConsultationModes: &d.modes,
			}
			if _, err := svc.CreateDoctor(ctx, in); err != nil {
				return fmt.Errorf("seed doctor %q: %w", d.name, err)
			}
		}
		fmt.Fprintf(out, "specialization %q created with %d doctor(s)\n", s.name, len(s.doctors))
	}
	return nil
}
