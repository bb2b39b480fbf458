package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrms/internal/database"
	"hrms/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.NewConnection(cfg.Database, log)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("schema migrated")
		return nil
	},
}

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed system roles, the permission catalogue and optionally an admin user",
	Long: `Seed creates the Admin, Manager and Employee roles with their default
permission levels. It is idempotent. With --admin-email and --admin-password
it also creates an active user holding the Admin role.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "", "Email of an admin user to create")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Password for the admin user")
	seedCmd.Flags().StringVar(&adminName, "admin-name", "Administrator", "Display name for the admin user")
	seedCmd.MarkFlagsRequiredTogether("admin-email", "admin-password")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	app := newApp(cfg, db, log, nil, nil)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.roles.SeedDefaultRolesAndPermissions(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	log.Info("roles and permissions seeded")

	if adminEmail == "" {
		return nil
	}
	role, err := app.roleRepo.FindByName(ctx, service.RoleAdmin)
	if err != nil {
		return fmt.Errorf("load admin role: %w", err)
	}
	if _, err := app.userRepo.GetByEmail(ctx, strings.ToLower(adminEmail)); err == nil {
		log.Info("admin user already exists", "email", adminEmail)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	u, err := app.users.CreateUser(ctx, service.CreateUserRequest{
		Email:       adminEmail,
		DisplayName: adminName,
		Password:    adminPassword,
		RoleIDs:     []uuid.UUID{role.ID},
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin user created", "user_id", u.ID, "email", u.Email)
	return nil
}

