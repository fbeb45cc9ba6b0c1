package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediaid/mediaid-api/internal/database"
	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/repository"
)

const dbTimeout = 30 * time.Second

var (
	seedFile     string
	promoteEmail string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the services directory with seed data",
	Long: `Deletes every directory entry and loads services from a TOML file.
Without --file the bundled Andhra Pradesh directory is loaded.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant the ADMIN role to a user",
	Args:  cobra.NoArgs,
	RunE:  runPromote,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "TOML seed file (default: bundled directory)")
	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "email of the account to promote")
	_ = promoteCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(migrateCmd, seedCmd, promoteCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	cmd.Println("Schema is up to date.")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	services, err := loadSeed(seedFile)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
	defer cancel()
	if err := database.SeedServices(ctx, db, services); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	cmd.Printf("Seeded %d services.\n", len(services))
	return nil
}

func loadSeed(path string) ([]model.Service, error) {
	if path == "" {
		return database.DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	services, err := database.ReadSeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return services, nil
}

func runPromote(cmd *cobra.Command, args []string) error {
	email := strings.TrimSpace(promoteEmail)
	if email == "" {
		return errors.New("--email is required")
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
	defer cancel()
	if err := repository.NewUserRepo(db).SetRole(ctx, email, model.RoleAdmin); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("no account with email %s", email)
		}
		return err
	}
	cmd.Printf("%s is now an admin.\n", strings.ToLower(email))
	return nil
}
