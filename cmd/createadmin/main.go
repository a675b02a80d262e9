// Command createadmin seeds the very first super admin account.
// Role assignment rules require a super admin actor to mint another one,
// so the bootstrap account has to be created outside the service API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/db"
	"github.com/mojoplatform/mojoauth/internal/models"
	"github.com/mojoplatform/mojoauth/internal/repository"
	"github.com/mojoplatform/mojoauth/internal/repository/postgres"
	"github.com/mojoplatform/mojoauth/internal/service/auth"
)

func main() {
	if err := run(context.Background(), os.Getenv, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "createadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, getenv func(string) string, args []string) error {
	var (
		email       string
		password    string
		firstName   string
		lastName    string
		phone       string
		databaseDSN = getenv("DATABASE_URI")
	)

	fs := pflag.NewFlagSet("createadmin", pflag.ContinueOnError)
	fs.StringVarP(&email, "email", "u", "", "Admin email")
	fs.StringVarP(&password, "password", "p", "", "Admin password")
	fs.StringVar(&firstName, "first-name", "", "Admin first name")
	fs.StringVar(&lastName, "last-name", "", "Admin last name")
	fs.StringVar(&phone, "phone", "", "Admin contact phone")
	fs.StringVarP(&databaseDSN, "database", "d", databaseDSN, "Database connection string")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if email == "" || password == "" {
		return errors.New("email and password must be set")
	}

	pool, err := db.ConnectAndMigrate(ctx, databaseDSN)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	hash, err := auth.DefaultHasher.Hash(password)
	if err != nil {
		return fmt.Errorf("can't use this as password, Err: %w", err)
	}

	storage := postgres.NewStorage(pool)
	err = storage.InTx(ctx, func(st repository.Storage) error {
		user, err := st.User().CreateUser(ctx, repository.CreateUserParams{
			Email:          email,
			HashedPassword: hash,
			Role:           models.RoleSuperAdmin,
		})
		if err != nil {
			return err
		}

		_, err = st.Profile().CreateProfile(ctx, models.Profile{
			UserID:    user.ID,
			FirstName: firstName,
			LastName:  lastName,
			Phone:     phone,
		})
		return err
	})

	switch {
	case err == nil:
		fmt.Printf("super admin %s created\n", email)
		return nil
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		fmt.Printf("user %s already exists, nothing to do\n", email)
		return nil
	default:
		return err
	}
}
