package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/database"
	"github.com/oerms/oerms-backend/internal/logger"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// create-admin bootstraps the first ministry admin. Every other account is
// created through the API by a ministry admin afterwards.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	staffRepo := repository.NewStaffRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	fmt.Println("=== Create Ministry Admin ===")

	firstName := prompt("Enter First Name: ")
	lastName := prompt("Enter Last Name: ")
	if firstName == "" || lastName == "" {
		fmt.Println("Error: First and last name are required")
		return
	}

	email := strings.ToLower(prompt("Enter Email: "))
	if !strings.Contains(email, "@") {
		fmt.Println("Error: A valid email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	if len(bytePassword) < 8 || len(bytePassword) > 72 {
		fmt.Println("Error: Password must be 8 to 72 bytes")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashed, err := bcrypt.GenerateFromPassword(bytePassword, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := &model.Staff{
		Role:         model.RoleMinistryAdmin,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hashed),
		IsActive:     true,
	}
	if err := staffRepo.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create ministry admin")
	}

	fmt.Printf("\nSuccess! Ministry admin %s (%s) created with ID: %s\n", firstName+" "+lastName, admin.Email, admin.ID)
}
