package commands

import (
	"fmt"
	"os"
	"time"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// RequestCommands returns the feature request reporting commands
func RequestCommands(featureRequestService serviceinterfaces.FeatureRequestService, logger *observability.Logger) *cobra.Command {
	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Feature request reports",
		Long: `Feature request reports for one tenant.

Available commands:
  list     - List requests with their live SLA state
  sla      - Count requests per SLA state
  export   - Write every request and the SLA summary to an .xlsx workbook`,
	}
	requestsCmd.PersistentFlags().String("tenant", "", "tenant ID (required)")

	requestsCmd.AddCommand(listRequestsCmd(featureRequestService))
	requestsCmd.AddCommand(slaReportCmd(featureRequestService))
	requestsCmd.AddCommand(exportRequestsCmd(featureRequestService, logger))

	return requestsCmd
}

func listRequestsCmd(featureRequestService serviceinterfaces.FeatureRequestService) *cobra.Command {
	var status string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tenantID, err := tenantFlag(cmd)
			if err != nil {
				return err
			}

			filter := models.FeatureRequestFilter{Limit: limit, Offset: offset}
			if status != "" {
				st, err := models.ParseStatus(status)
				if err != nil {
					return contextutils.NewValidationError("status", "unknown status")
				}
				filter.Status = &st
			}

			rows, total, err := featureRequestService.ListRequests(ctx, tenantID, filter)
			if err != nil {
				return contextutils.WrapError(err, "failed to list requests")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-36s  %-30s  %-8s  %-11s  %-8s  %8s\n", "ID", "Title", "Priority", "Status", "SLA", "Hours")
			fmt.Fprintln(out, dashes(112))
			for _, r := range rows {
				fmt.Fprintf(out, "%-36s  %-30.30s  %-8s  %-11s  %-8s  %8.1f\n",
					r.ID, r.Title, r.Priority, r.Status, r.SLAStatus, r.HoursRemaining)
			}
			fmt.Fprintf(out, "\nShowing %d of %d\n", len(rows), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only requests in this status")
	cmd.Flags().IntVar(&limit, "limit", config.DefaultPageSize, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

func slaReportCmd(featureRequestService serviceinterfaces.FeatureRequestService) *cobra.Command {
	return &cobra.Command{
		Use:   "sla",
		Short: "Count a tenant's requests per SLA state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := tenantFlag(cmd)
			if err != nil {
				return err
			}
			report, err := featureRequestService.SLAReport(cmd.Context(), tenantID, time.Now().UTC())
			if err != nil {
				return contextutils.WrapError(err, "failed to build SLA report")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SLA report for %s at %s\n", report.TenantID, report.GeneratedAt.Format(time.RFC3339))
			for _, label := range models.SLALabels {
				fmt.Fprintf(out, "  %-9s %d\n", label, report.Counts[label])
			}
			fmt.Fprintf(out, "  %-9s %d\n", "total", report.Total)
			return nil
		},
	}
}

func exportRequestsCmd(featureRequestService serviceinterfaces.FeatureRequestService, logger *observability.Logger) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a tenant's requests to a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tenantID, err := tenantFlag(cmd)
			if err != nil {
				return err
			}

			rows, err := allRequests(cmd, featureRequestService, tenantID)
			if err != nil {
				return err
			}
			report, err := featureRequestService.SLAReport(ctx, tenantID, time.Now().UTC())
			if err != nil {
				return contextutils.WrapError(err, "failed to build SLA report")
			}

			f, err := os.Create(outPath)
			if err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create %s: %v", outPath, err)
			}
			if err := WriteRequestsWorkbook(f, rows, report); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to close %s: %v", outPath, err)
			}

			logger.Info(ctx, "Exported feature requests", map[string]interface{}{
				"tenant_id": tenantID.String(),
				"rows":      len(rows),
				"path":      outPath,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d requests to %s\n", len(rows), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "feature-requests.xlsx", "destination .xlsx file")
	return cmd
}

// allRequests pages through every request the tenant has.
func allRequests(cmd *cobra.Command, featureRequestService serviceinterfaces.FeatureRequestService, tenantID uuid.UUID) ([]models.FeatureRequestSummary, error) {
	var all []models.FeatureRequestSummary
	for offset := 0; ; offset += config.MaxPageSize {
		page, total, err := featureRequestService.ListRequests(cmd.Context(), tenantID, models.FeatureRequestFilter{
			Limit:  config.MaxPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to list requests")
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
	}
}
