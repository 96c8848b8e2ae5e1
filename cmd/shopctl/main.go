// Command shopctl provides operator tooling for the storefront.
//
// Usage:
//
//	shopctl create-admin <email>
//
// The password is read from the terminal without echo.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/ritvika/paintshop/internal/config"
	"github.com/ritvika/paintshop/internal/models"
	"github.com/ritvika/paintshop/internal/repositories/repomanager"
)

func main() {
	if len(os.Args) < 3 || os.Args[1] != "create-admin" {
		fmt.Fprintln(os.Stderr, "usage: shopctl create-admin <email>")
		os.Exit(2)
	}
	email := os.Args[2]

	_ = godotenv.Load()
	cfg := config.LoadConfig()
	ctx := context.Background()

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatalf("reading password: %v", err)
	}
	if len(password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hashing password: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	user, err := rm.Users(db).Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		log.Fatalf("creating admin: %v", err)
	}
	if _, err := rm.Carts(db).GetOrCreate(ctx, user.ID); err != nil {
		log.Fatalf("creating cart: %v", err)
	}

	fmt.Printf("admin %s created (id %s)\n", user.Email, user.ID)
}
