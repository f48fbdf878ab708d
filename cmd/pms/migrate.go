package main

import (
	"fmt"

	"github.com/Saviken/TNH-Performance-Target/internal/config"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/entity"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed roles and approval statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			zapLogger, err := initLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer zapLogger.Sync()

			db, err := initDatabase(cfg.Database, cfg.Server.Mode == "debug")
			if err != nil {
				return err
			}
			return migrate(cmd, db, zapLogger)
		},
	}
}

func migrate(cmd *cobra.Command, db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(entity.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	repos := repository.NewRepositories(db)
	roles, err := repos.Role.Seed(cmd.Context(), entity.DefaultRoles)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	statuses, err := repos.Initiative.SeedStatuses(cmd.Context(), entity.DefaultApprovalStatuses)
	if err != nil {
		return fmt.Errorf("seed approval statuses: %w", err)
	}

	log.Info("Migration finished",
		zap.Int("models", len(entity.Models())),
		zap.Int("roles_created", roles),
		zap.Int("statuses_created", statuses),
	)
	return nil
}
