package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/database"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/store"
	"github.com/example/vurel/internal/utils"
)

func main() {
	createAdminCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := createAdminCmd.String("email", "", "Email of the admin account")
	password := createAdminCmd.String("password", "", "Password for the admin account")
	firstName := createAdminCmd.String("first-name", "Admin", "First name")
	lastName := createAdminCmd.String("last-name", "", "Last name")

	if len(os.Args) < 2 {
		fmt.Println("expected 'create-admin' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-admin":
		_ = createAdminCmd.Parse(os.Args[2:])
		if *email == "" || *password == "" {
			fmt.Println("email and password are required")
			createAdminCmd.PrintDefaults()
			os.Exit(1)
		}
		if err := createAdmin(*email, *password, *firstName, *lastName); err != nil {
			fmt.Fprintf(os.Stderr, "create-admin: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Println("expected 'create-admin' subcommand")
		os.Exit(1)
	}
}

// createAdmin provisions an admin account, or promotes and re-keys an
// existing one with the same email.
func createAdmin(email, password, firstName, lastName string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL, zap.NewNop())
	if err != nil {
		return errors.Wrap(err, "connect database")
	}
	defer func() { _ = database.Close(db) }()

	users := store.New(db, cfg.DBTimeout).Users

	hash, err := utils.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	user, err := users.GetByEmail(ctx, email)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		user = &models.User{
			FirstName:    firstName,
			LastName:     lastName,
			Email:        strings.ToLower(strings.TrimSpace(email)),
			PasswordHash: hash,
			IsAdmin:      true,
			IsVerified:   true,
		}
		if err := users.Create(ctx, user); err != nil {
			return errors.Wrap(err, "create user")
		}
		fmt.Printf("Admin '%s' created successfully.\n", user.Email)
	case err != nil:
		return errors.Wrap(err, "lookup user")
	default:
		user.PasswordHash = hash
		user.IsAdmin = true
		user.IsVerified = true
		if err := users.Update(ctx, user); err != nil {
			return errors.Wrap(err, "update user")
		}
		fmt.Printf("User '%s' promoted to admin.\n", user.Email)
	}
	return nil
}
