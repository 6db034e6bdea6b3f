package commands

import (
	"fmt"
	"os"

	"blog/internal/config"
	"blog/internal/repositories"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	storeDriver string
	databaseDSN string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blogctl",
	Short: "Administration tool for the blog",
	Long: `blogctl manages the blog database out of band.

It reads the same environment as the server (STORE_DRIVER, DATABASE_DSN, .env)
unless --driver and --dsn are given.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDriver, "driver", "", "Store driver: postgres or sqlite (default from STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&databaseDSN, "dsn", "", "Database DSN (default from DATABASE_DSN)")
}

// openStore connects to and migrates the configured database.
func openStore() (*gorm.DB, error) {
	driver, dsn := storeDriver, databaseDSN
	if driver == "" || dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		if driver == "" {
			driver = cfg.StoreDriver
		}
		if dsn == "" {
			dsn = cfg.DatabaseDSN
		}
	}
	if driver == repositories.DriverMemory {
		return nil, fmt.Errorf("blogctl needs a persistent store, not %q", driver)
	}

	db, err := repositories.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(db); err != nil {
		_ = repositories.Close(db)
		return nil, err
	}
	return db, nil
}
