package commands

import (
	"fmt"
	"strings"

	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/services"
	contextutils "gymdash/internal/utils"

	"github.com/spf13/cobra"
)

// TenantCommands returns the tenant management commands
func TenantCommands(userService services.UserServiceInterface, logger *observability.Logger) *cobra.Command {
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant management commands",
		Long: `Tenant management commands.

Available commands:
  create   - Create a gym account
  list     - List all gym accounts`,
	}

	tenantCmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create a tenant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tenant, err := userService.CreateTenant(ctx, models.CreateTenantInput{Name: strings.Join(args, " ")})
			if err != nil {
				logger.Error(ctx, "Failed to create tenant", err)
				return contextutils.WrapError(err, "failed to create tenant")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created tenant %q (ID: %s)\n", tenant.Name, tenant.ID)
			return nil
		},
	})

	tenantCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all tenants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tenants, err := userService.ListTenants(ctx)
			if err != nil {
				return contextutils.WrapError(err, "failed to list tenants")
			}
			out := cmd.OutOrStdout()
			if len(tenants) == 0 {
				fmt.Fprintln(out, "No tenants found")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-30s  %-10s\n", "ID", "Name", "Created")
			fmt.Fprintln(out, dashes(80))
			for _, t := range tenants {
				fmt.Fprintf(out, "%-36s  %-30s  %-10s\n", t.ID, t.Name, t.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	})

	return tenantCmd
}
