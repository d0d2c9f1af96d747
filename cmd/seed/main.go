package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/database"
	"github.com/oerms/oerms-backend/internal/logger"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// seed creates a demo institution, its admin and a batch of students for
// local development.
func main() {
	count := flag.Int("students", 50, "Number of students to create")
	password := flag.String("password", "oerms-demo-pass", "Password shared by every seeded account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		log.Fatal().Msg("Refusing to seed a production database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	institutionRepo := repository.NewInstitutionRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Println("=== Seeding demo institution ===")

	inst := &model.Institution{
		Name:   "Demo Secondary School",
		Type:   model.InstitutionSchool,
		Region: "Central",
		Email:  "office@demo-school.test",
	}
	if err := institutionRepo.Create(ctx, inst); err != nil {
		log.Fatal().Err(err).Msg("Failed to create institution")
	}
	fmt.Printf("Created institution with ID: %s\n", inst.ID)

	admin := &model.Staff{
		Role:          model.RoleInstitutionalAdmin,
		InstitutionID: &inst.ID,
		FirstName:     "Demo",
		LastName:      "Admin",
		Email:         "admin@demo-school.test",
		PasswordHash:  string(hashed),
		IsActive:      true,
	}
	if err := staffRepo.Create(ctx, admin); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEmail) {
			log.Fatal().Err(err).Msg("Failed to create institutional admin")
		}
		fmt.Println("Institutional admin already exists, skipping")
	} else {
		fmt.Printf("Created institutional admin %s\n", admin.Email)
	}

	firstNames := []string{"Amara", "Kofi", "Zainab", "Tunde", "Nia", "Jabari", "Imani", "Kwame", "Ayo", "Zuri"}
	lastNames := []string{"Okafor", "Mensah", "Diallo", "Banda", "Mwangi"}

	students := make([]model.Student, 0, *count)
	for i := 0; i < *count; i++ {
		students = append(students, model.Student{
			InstitutionID: inst.ID,
			StudentNumber: fmt.Sprintf("DEMO-%05d", i+1),
			FirstName:     firstNames[i%len(firstNames)],
			LastName:      lastNames[(i/len(firstNames))%len(lastNames)],
			Email:         fmt.Sprintf("student%d@demo-school.test", i+1),
			PasswordHash:  string(hashed),
			IsActive:      true,
		})
	}

	n, err := studentRepo.CreateBatch(ctx, students)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed students")
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", n, *count)
}
