package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/persistence"
	"github.com/oladanielT/support-system/internal/repository"
	"github.com/oladanielT/support-system/internal/service"
)

var errNoDSN = errors.New("POSTGRES_DSN is required")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema management",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		if cfg.Postgres.DSN == "" {
			return errNoDSN
		}

		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger)
	},
}

var adminFlags struct {
	email     string
	password  string
	firstName string
	lastName  string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		if cfg.Postgres.DSN == "" {
			return errNoDSN
		}

		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger); err != nil {
				return err
			}
		}

		store := repository.NewPostgresStore(pg.PoolHandle())
		authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{UserRepo: store.Users(), Logger: logger})
		user, err := authService.CreateAccount(cmd.Context(), service.RegisterInput{
			Email:     adminFlags.email,
			Password:  adminFlags.password,
			FirstName: adminFlags.firstName,
			LastName:  adminFlags.lastName,
		}, domain.RoleAdmin)
		if err != nil {
			return err
		}
		logger.Info("admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		fmt.Fprintln(cmd.OutOrStdout(), user.ID)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)

	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminFlags.firstName, "first-name", "", "first name")
	createAdminCmd.Flags().StringVar(&adminFlags.lastName, "last-name", "", "last name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
