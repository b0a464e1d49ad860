package commands

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/services"
	contextutils "gymdash/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// PasswordPrompt asks for a secret without echoing it.
type PasswordPrompt func(prompt string) (string, error)

// TerminalPasswordPrompt reads a password from the controlling terminal.
func TerminalPasswordPrompt(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	return string(passwordBytes), nil
}

// UserCommands returns the user management commands
func UserCommands(userService services.UserServiceInterface, logger *observability.Logger, prompt PasswordPrompt) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands.

Available commands:
  create   - Create a staff or tenant login`,
	}

	userCmd.AddCommand(createUserCmd(userService, logger, prompt))
	return userCmd
}

func createUserCmd(userService services.UserServiceInterface, logger *observability.Logger, prompt PasswordPrompt) *cobra.Command {
	var username, email, role, tenant string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a login",
		Long: `Create a login. The password is read from the terminal.

Staff users must not have --tenant; gym_owner and member users must.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			in := models.CreateUserInput{Username: username, Email: email, Role: role}
			if tenant != "" {
				id, err := uuid.Parse(tenant)
				if err != nil {
					return contextutils.NewValidationError("tenant", "--tenant must be a UUID")
				}
				in.TenantID = &id
			}

			password, err := prompt("Enter password: ")
			if err != nil {
				return err
			}
			confirm, err := prompt("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return contextutils.ErrorWithContextf("passwords do not match")
			}
			in.Password = password

			user, err := userService.CreateUser(ctx, in)
			if err != nil {
				logger.Error(ctx, "Failed to create user", err, map[string]interface{}{"username": username})
				return contextutils.WrapError(err, "failed to create user")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %q (ID: %s)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "notification address (optional)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleMember), "staff, gym_owner or member")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant ID for gym_owner and member users")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}
