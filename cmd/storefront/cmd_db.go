package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/app/repositories"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/auth"
	"github.com/herbveda/storefront/pkg/mongodb"
)

// bootDB loads config and opens the database connection.
func bootDB(ctx context.Context) (func(), error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	if err := mongodb.Connect(ctx); err != nil {
		return nil, err
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongodb.Close(closeCtx)
	}
	return cleanup, nil
}

// storefront indexes — create the collection indexes.
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes (unique email, unique order number, OTP TTL)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cleanup, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := mongodb.EnsureIndexes(ctx); err != nil {
			return err
		}
		fmt.Println("Indexes created.")
		return nil
	},
}

// storefront seed — create the initial account from SEED_* env vars.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the initial user account (SEED_EMAIL, SEED_PASSWORD, SEED_NAME)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cleanup, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		email := config.Get("SEED_EMAIL", "")
		password := config.Get("SEED_PASSWORD", "")
		name := config.Get("SEED_NAME", "Admin")
		if email == "" || password == "" {
			return fmt.Errorf("seed: SEED_EMAIL and SEED_PASSWORD must be set")
		}

		users := repositories.NewUserRepository(mongodb.DB())
		existing, err := users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			fmt.Printf("Seed user %s already exists, nothing to do.\n", email)
			return nil
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		user := &models.User{Email: email, Name: name, PasswordHash: hash}
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		fmt.Printf("Seed user %s created.\n", email)
		return nil
	},
}
