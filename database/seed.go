package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/utils/auth"
)

// Seeder handles database seeding operations
type Seeder struct {
	store Storage
	log   *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(store Storage, log *zap.Logger) *Seeder {
	return &Seeder{store: store, log: log}
}

// SeedAll creates the admin account and, when a registry is given, a handful
// of sample deployments validated against it
func (s *Seeder) SeedAll(ctx context.Context, adminUsername, adminPassword string, samples *schema.Registry) error {
	if err := s.SeedAdminUser(ctx, adminUsername, adminPassword); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if samples != nil {
		if err := s.SeedInstitutions(ctx, samples); err != nil {
			return fmt.Errorf("failed to seed institutions: %w", err)
		}
	}
	s.log.Info("database seeding completed")
	return nil
}

// SeedAdminUser creates the first admin unless any user exists
func (s *Seeder) SeedAdminUser(ctx context.Context, username, password string) error {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("users already exist, skipping admin creation")
		return nil
	}
	if username == "" || password == "" {
		s.log.Warn("admin credentials not set, skipping admin creation")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Username:     username,
		PasswordHash: hash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return err
	}

	s.log.Info("created admin user", zap.String("username", admin.Username))
	return nil
}

// SeedInstitutions inserts sample deployments through the record validator,
// skipping codes that already exist. Sample types rotate through the
// registry's configured taxonomy.
func (s *Seeder) SeedInstitutions(ctx context.Context, registry *schema.Registry) error {
	types := registry.InstitutionTypes()

	samples := []map[string]any{
		{
			"institutionName": "Laoag City National High School", "institutionalCode": "LCNHS-300512",
			"dateOfDeployment": "2023-03-14", "yearDistributed": 2023,
			"completeAddress": "Brgy. 7, Laoag City", "municipality": "Laoag City", "province": "Ilocos Norte",
			"email": "lcnhs@deped.gov.ph", "phone": "077-770-1234", "recipientName": "Maria Santos",
			"unitStatus": "Active", "gadMale": 12, "gadFemale": 15,
		},
		{
			"institutionName": "Vigan Central School", "institutionalCode": "VCS-100233",
			"dateOfDeployment": "2023-08-02", "yearDistributed": 2023,
			"completeAddress": "Quezon Ave., Vigan City", "municipality": "Vigan City", "province": "Ilocos Sur",
			"email": "vcs@deped.gov.ph", "phone": "077-722-4567", "recipientName": "Jose Reyes",
			"unitStatus": "Active", "gadMale": 8, "gadFemale": 11, "gadOthers": 1,
		},
		{
			"institutionName": "Saint Louis College", "institutionalCode": "SLC-LU-01",
			"dateOfDeployment": "2024-01-22", "yearDistributed": 2024,
			"completeAddress": "Carlatan, San Fernando City", "municipality": "San Fernando City", "province": "La Union",
			"email": "library@slc.edu.ph", "phone": "072-888-2222", "recipientName": "Ana Cruz",
			"unitStatus": "Active",
		},
		{
			"institutionName": "Dagupan City Learning Hub", "institutionalCode": "DCLH_2024",
			"dateOfDeployment": "2024-06-05", "yearDistributed": 2024,
			"completeAddress": "Perez Blvd., Dagupan City", "municipality": "Dagupan City", "province": "Pangasinan",
			"email": "hub@dclh.org", "phone": "075-515-0000", "recipientName": "Pedro Garcia",
			"unitStatus": "Inactive", "statusRemarks": "Kiosk awaiting repair",
		},
	}

	created := 0
	for i, raw := range samples {
		raw["institutionType"] = types[i%len(types)]
		rec, err := registry.Validate(schema.EntityInstitution, raw)
		if err != nil {
			s.log.Warn("skipping invalid sample institution", zap.Any("code", raw["institutionalCode"]), zap.Error(err))
			continue
		}
		inst := model.NewInstitution(rec)
		if err := s.store.CreateInstitution(ctx, &inst); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return err
		}
		created++
	}

	s.log.Info("seeded sample institutions", zap.Int("created", created))
	return nil
}
