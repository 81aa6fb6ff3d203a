package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info().Msg("schema is up to date")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.ValidatePassword(password); err != nil {
				return err
			}
			hash, err := services.HashPassword(password)
			if err != nil {
				return err
			}

			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			user := &models.User{Email: email, Name: name, PasswordHash: hash, Role: models.RoleAdmin}
			if err := database.New(db).UserRepo().Add(cmd.Context(), user); err != nil {
				if dbErr := errs.NewDatabaseError("create", "user", err); errs.IsConflict(dbErr) {
					return fmt.Errorf("an account for %s already exists: %w", email, dbErr)
				}
				return fmt.Errorf("failed to create admin: %w", err)
			}
			log.Info().Str("userId", user.ID.String()).Str("email", user.Email).Msg("admin created")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "Admin", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 8 characters with a letter and a digit)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newGenerateModelsCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate-models",
		Short: "Generate typed query helpers from the models",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			return models.GenerateModels(db, outPath)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "./query", "output directory")
	return cmd
}

func newColumnReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "column-report",
		Short: "List database columns that no model field maps to",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			mismatches, err := models.GenerateColumnMismatchReport(db, os.Stdout)
			if err != nil {
				return err
			}
			if mismatches > 0 {
				return fmt.Errorf("%d unmapped columns", mismatches)
			}
			return nil
		},
	}
}
