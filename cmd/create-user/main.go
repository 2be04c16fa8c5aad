package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/quantprep/backend/internal/config"
	"github.com/quantprep/backend/internal/database"
	"github.com/quantprep/backend/internal/logger"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/repository"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	fmt.Print("Subscription [free/premium] (default free): ")
	sub, _ := reader.ReadString('\n')
	sub = strings.TrimSpace(strings.ToLower(sub))
	subscription := model.SubscriptionFree
	if sub == string(model.SubscriptionPremium) {
		subscription = model.SubscriptionPremium
	} else if sub != "" && sub != string(model.SubscriptionFree) {
		fmt.Println("Error: Subscription must be 'free' or 'premium'")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		return
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Subscription: subscription,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		fmt.Printf("Error creating user: %v\n", err)
		return
	}

	fmt.Printf("User created: %s (%s, %s)\n", user.ID, user.Email, user.Subscription)
}
