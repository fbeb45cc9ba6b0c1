// Package cli implements mediactl, the MediAid maintenance and lookup tool.
package cli

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/mediaid/mediaid-api/internal/config"
	"github.com/mediaid/mediaid-api/internal/database"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "mediactl",
	Short: "Maintain and query the MediAid directory",
	Long: `mediactl creates and seeds the MediAid database, manages admin
accounts and looks up nearby emergency services from a terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvFile(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before running")
}

// openDB connects using the DB_* variables.  Tests replace it.
var openDB = func() (*sql.DB, error) {
	c, err := config.LoadDB()
	if err != nil {
		return nil, err
	}
	return database.Open(c)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
