package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yeremiapane/table-order/config"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"gorm.io/gorm"
)

// bootDB loads config and opens and migrates the database.
func bootDB() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return cfg, db, nil
}

// table-order migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, err := bootDB()
		return err
	},
}

// table-order seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the menu and the SEED_*_PASSWORD staff accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootDB()
		if err != nil {
			return err
		}
		if err := database.SeedMenu(db); err != nil {
			return err
		}
		return database.SeedUsers(db, cfg.SeedPasswords)
	},
}

var (
	newUsername string
	newPassword string
	newRole     string
)

// table-order user:create --username mozo1 --password ... --role waiter
var userCreateCmd = &cobra.Command{
	Use:   "user:create",
	Short: "Create a staff account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootDB()
		if err != nil {
			return err
		}
		user, err := services.NewUserService(db).CreateUser(context.Background(), newUsername, newPassword, models.Role(newRole))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with id %d\n", user.Username, user.Role, user.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	userCreateCmd.Flags().StringVar(&newPassword, "password", "", "at least 8 characters")
	userCreateCmd.Flags().StringVar(&newRole, "role", string(models.RoleWaiter), "kitchen, waiter or admin")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}
