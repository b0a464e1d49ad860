// Package main provides the gymdash administration CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"gymdash/cmd/adm/commands"
	"gymdash/internal/config"
	"gymdash/internal/di"
	"gymdash/internal/observability"
	"gymdash/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	// Set default config file if not already set
	if os.Getenv(config.ConfigFileEnv) == "" {
		for _, path := range []string{"../config.yaml", "../../config.yaml", "config.yaml"} {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv(config.ConfigFileEnv, path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set %s: %v\n", config.ConfigFileEnv, err)
					os.Exit(1)
				}
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The CLI prints its own output; telemetry would only add connection noise.
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "gymdash-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize services: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := container.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "Error shutting down services", map[string]interface{}{"error": err.Error()})
		}
	}()

	rootCmd, err := newRootCommand(container)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build commands: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(container di.ServiceContainerInterface) (*cobra.Command, error) {
	userService, err := container.GetUserService()
	if err != nil {
		return nil, err
	}
	featureRequestService, err := container.GetFeatureRequestService()
	if err != nil {
		return nil, err
	}
	logger := container.GetLogger()

	rootCmd := &cobra.Command{
		Use:     "adm",
		Short:   "gymdash administration tool",
		Version: version.String(),
		Long: `gymdash administration tool

Provisions tenants and logins, reports on feature requests, and manages the database.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	reseed := func(cmd *cobra.Command) error {
		return container.EnsureStaffUser(cmd.Context())
	}

	rootCmd.AddCommand(commands.TenantCommands(userService, logger))
	rootCmd.AddCommand(commands.UserCommands(userService, logger, commands.TerminalPasswordPrompt))
	rootCmd.AddCommand(commands.RequestCommands(featureRequestService, logger))
	rootCmd.AddCommand(commands.SeedCommand(userService, featureRequestService, logger))
	rootCmd.AddCommand(commands.DatabaseCommands(container.GetDatabase(), container.GetConfig().Database.URL, reseed, logger))

	return rootCmd, nil
}
