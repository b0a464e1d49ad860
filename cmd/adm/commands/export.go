package commands

import (
	"io"
	"time"

	"gymdash/internal/models"
	contextutils "gymdash/internal/utils"

	"github.com/xuri/excelize/v2"
)

const (
	requestsSheet = "Requests"
	slaSheet      = "SLA"
)

var requestColumns = []interface{}{
	"ID", "Title", "Category", "Priority", "Status", "SLA Status", "Hours Remaining",
	"SLA Deadline", "SLA Met", "Created", "Completed", "Assigned To", "Estimated Hours",
}

// WriteRequestsWorkbook renders rows and the SLA summary as an .xlsx workbook.
func WriteRequestsWorkbook(w io.Writer, rows []models.FeatureRequestSummary, report *models.SLAReport) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = contextutils.WrapError(cerr, "failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", requestsSheet); err != nil {
		return contextutils.WrapError(err, "failed to name sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return contextutils.WrapError(err, "failed to create header style")
	}

	if err := f.SetSheetRow(requestsSheet, "A1", &requestColumns); err != nil {
		return contextutils.WrapError(err, "failed to write header")
	}
	if err := f.SetRowStyle(requestsSheet, 1, 1, bold); err != nil {
		return contextutils.WrapError(err, "failed to style header")
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return contextutils.WrapError(err, "failed to address row")
		}
		values := requestRow(&rows[i])
		if err := f.SetSheetRow(requestsSheet, cell, &values); err != nil {
			return contextutils.WrapError(err, "failed to write row")
		}
	}
	if err := f.SetColWidth(requestsSheet, "A", "A", 38); err != nil {
		return contextutils.WrapError(err, "failed to size columns")
	}
	if err := f.SetColWidth(requestsSheet, "B", "B", 40); err != nil {
		return contextutils.WrapError(err, "failed to size columns")
	}
	if err := f.SetPanes(requestsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return contextutils.WrapError(err, "failed to freeze header")
	}

	if report != nil {
		if err := writeSLASheet(f, report, bold); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return contextutils.WrapError(err, "failed to write workbook")
	}
	return nil
}

func requestRow(r *models.FeatureRequestSummary) []interface{} {
	slaMet := ""
	if r.SLAMet.Valid {
		slaMet = "no"
		if r.SLAMet.Bool {
			slaMet = "yes"
		}
	}
	completed := ""
	if r.CompletedAt.Valid {
		completed = r.CompletedAt.Time.UTC().Format(time.RFC3339)
	}
	assigned := ""
	if r.AssignedTo.Valid {
		assigned = r.AssignedTo.UUID.String()
	}
	var estimate interface{} = ""
	if r.EstimatedHours.Valid {
		estimate = r.EstimatedHours.Float64
	}
	return []interface{}{
		r.ID.String(),
		r.Title,
		string(r.Category),
		string(r.Priority),
		string(r.Status),
		string(r.SLAStatus),
		r.HoursRemaining,
		r.SLADeadline.UTC().Format(time.RFC3339),
		slaMet,
		r.CreatedAt.UTC().Format(time.RFC3339),
		completed,
		assigned,
		estimate,
	}
}

func writeSLASheet(f *excelize.File, report *models.SLAReport, bold int) error {
	if _, err := f.NewSheet(slaSheet); err != nil {
		return contextutils.WrapError(err, "failed to add SLA sheet")
	}
	header := []interface{}{"SLA Status", "Requests"}
	if err := f.SetSheetRow(slaSheet, "A1", &header); err != nil {
		return contextutils.WrapError(err, "failed to write SLA header")
	}
	if err := f.SetRowStyle(slaSheet, 1, 1, bold); err != nil {
		return contextutils.WrapError(err, "failed to style SLA header")
	}
	row := 2
	for _, label := range models.SLALabels {
		values := []interface{}{string(label), report.Counts[label]}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(slaSheet, cell, &values); err != nil {
			return contextutils.WrapError(err, "failed to write SLA row")
		}
		row++
	}
	total := []interface{}{"total", report.Total}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(slaSheet, cell, &total); err != nil {
		return contextutils.WrapError(err, "failed to write SLA total")
	}
	generated := []interface{}{"generated_at", report.GeneratedAt.UTC().Format(time.RFC3339)}
	cell, _ = excelize.CoordinatesToCellName(1, row+1)
	if err := f.SetSheetRow(slaSheet, cell, &generated); err != nil {
		return contextutils.WrapError(err, "failed to write SLA timestamp")
	}
	return nil
}
