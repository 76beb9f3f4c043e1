// Package export renders leave requests for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"hrportal/models"

	"github.com/xuri/excelize/v2"
)

const LeaveSheet = "Leave Requests"

var leaveHeader = []string{"Employee", "Type", "Start Date", "End Date", "Days", "Status", "Approved By", "Reason", "Submitted"}

// leaveRecord flattens one request. names maps employee IDs to display
// names; unknown IDs are written as-is.
func leaveRecord(r models.LeaveRequest, names map[string]string) []string {
	approver := ""
	if r.ApprovedBy != nil {
		approver = lookup(names, *r.ApprovedBy)
	}
	return []string{
		lookup(names, r.EmployeeID),
		string(r.LeaveType),
		r.StartDate.String(),
		r.EndDate.String(),
		strconv.Itoa(r.Days()),
		string(r.Status),
		approver,
		r.Reason,
		r.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func lookup(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

// LeaveWorkbook writes rows as a single-sheet xlsx workbook to w.
func LeaveWorkbook(w io.Writer, rows []models.LeaveRequest, names map[string]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeaveSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(leaveHeader))
	for i, h := range leaveHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(LeaveSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(leaveHeader), 1)
	if err := f.SetCellStyle(LeaveSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		rec := leaveRecord(r, names)
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		// keep Days numeric so the sheet can sum it
		values[4] = r.Days()
		if err := f.SetSheetRow(LeaveSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(LeaveSheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(LeaveSheet, "H", "H", 40); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// LeaveCSV writes the same columns as LeaveWorkbook as CSV.
func LeaveCSV(w io.Writer, rows []models.LeaveRequest, names map[string]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(leaveHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(leaveRecord(r, names)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
