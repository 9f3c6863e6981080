package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/database"
	"github.com/zulumai/exam-portal/internal/logger"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Student Account ===")

	// Username
	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	// Full name
	fmt.Print("Enter Full Name: ")
	fullName, _ := reader.ReadString('\n')
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fmt.Println("Error: Full name is required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		fmt.Printf("Error: could not hash password: %v\n", err)
		return
	}

	user := &model.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@%s", username, cfg.EmailDomain),
		FullName:     fullName,
		Role:         model.RoleStudent,
		PasswordHash: string(hash),
	}

	if err := userRepo.Create(ctx, user); err != nil {
		fmt.Printf("Error: could not create user: %v\n", err)
		return
	}

	fmt.Printf("Created student %s (%s) with id %s\n", user.Username, user.Email, user.ID)
}
