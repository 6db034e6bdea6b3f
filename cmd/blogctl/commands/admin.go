package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"blog/internal/models"
	"blog/internal/repositories"
	"blog/internal/services"

	"github.com/spf13/cobra"
)

var (
	// create-admin flags
	adminUsername string
	adminPassword string
)

// createAdminCmd creates a user that can sign in to the admin area
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user",
	Long: `Create a user with a bcrypt-hashed password.

Examples:
  blogctl create-admin --username admin --password 's3cret'
  echo 's3cret' | blogctl create-admin --username admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("--password is required or must be piped on stdin")
			}
			password = strings.TrimSpace(line)
		}
		return runCreateAdmin(cmd, adminUsername, password)
	},
}

// hashPasswordCmd prints a bcrypt hash for manual inserts
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashed, err := services.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(hashPasswordCmd)

	createAdminCmd.Flags().StringVarP(&adminUsername, "username", "u", "", "Username of the new admin")
	createAdminCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "Password of the new admin (read from stdin when empty)")
	_ = createAdminCmd.MarkFlagRequired("username")
}

func runCreateAdmin(cmd *cobra.Command, username, password string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer repositories.Close(db)

	users := repositories.NewGORMUserRepository(db)
	return createAdmin(cmd, users, username, password)
}

func createAdmin(cmd *cobra.Command, users repositories.UserRepository, username, password string) error {
	// the session secret is irrelevant here, no tokens are issued
	auth := services.NewAuthService(users, "unused", 0, nil)
	user, err := auth.BootstrapAdmin(context.Background(), username, password)
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (ID: %s)\n", user.Username, user.ID)
	return nil
}
