// Package export generates downloadable territory assignment reports.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jordanlanch/territorydb/ent"
	"github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/ent/territory"
)

// Service handles report generation.
type Service struct {
	client *ent.Client
}

// NewService creates a new export service.
func NewService(client *ent.Client) *Service {
	return &Service{client: client}
}

// reportRow is one line of the assignment report.
type reportRow struct {
	entityType string
	entityID   int
	name       string
	detail     string
	amount     string
	auto       bool
	assignedAt time.Time
}

// TerritoryAssignments builds an Excel workbook with every assignment of a
// territory and returns it with a suggested filename.
func (s *Service) TerritoryAssignments(ctx context.Context, territoryID int) (*bytes.Buffer, string, error) {
	t, err := s.client.Territory.Query().Where(territory.ID(territoryID)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, "", fmt.Errorf("territory not found")
		}
		return nil, "", fmt.Errorf("failed to get territory: %w", err)
	}

	assignments, err := s.client.Assignment.Query().
		Where(assignment.TerritoryID(territoryID)).
		Order(ent.Asc(assignment.FieldEntityType), ent.Asc(assignment.FieldEntityID)).
		All(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list assignments: %w", err)
	}

	rows := make([]reportRow, 0, len(assignments))
	for _, a := range assignments {
		row := reportRow{
			entityType: string(a.EntityType),
			entityID:   a.EntityID,
			auto:       a.AutoAssigned,
			assignedAt: a.AssignedAt,
		}
		// Entities deleted since assignment still get a row; the report
		// shouldn't hide stale references.
		s.describeEntity(ctx, a, &row)
		rows = append(rows, row)
	}

	buf, err := s.generateExcel(t, rows)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("territory_%d_assignments_%s.xlsx", t.ID, time.Now().Format("20060102"))
	return buf, filename, nil
}

func (s *Service) describeEntity(ctx context.Context, a *ent.Assignment, row *reportRow) {
	switch a.EntityType {
	case assignment.EntityTypeCompany:
		if c, err := s.client.Company.Get(ctx, a.EntityID); err == nil {
			row.name = c.Name
			row.detail = c.Industry
		} else {
			row.name = "(deleted)"
		}
	case assignment.EntityTypeContact:
		if c, err := s.client.Contact.Get(ctx, a.EntityID); err == nil {
			row.name = c.FirstName + " " + c.LastName
			row.detail = c.Email
		} else {
			row.name = "(deleted)"
		}
	case assignment.EntityTypeDeal:
		if d, err := s.client.Deal.Get(ctx, a.EntityID); err == nil {
			row.name = d.Title
			row.detail = string(d.Stage)
			if d.Amount != nil {
				row.amount = fmt.Sprintf("%.2f", *d.Amount)
			}
		} else {
			row.name = "(deleted)"
		}
	}
}

// generateExcel renders the report workbook.
func (s *Service) generateExcel(t *ent.Territory, rows []reportRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Assignments"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	// Set header style
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	// Write header
	headers := []string{
		"Entity Type", "Entity ID", "Name", "Detail", "Amount", "Auto Assigned", "Assigned At",
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Write data
	for rowIdx, r := range rows {
		row := rowIdx + 2 // Start from row 2 (after header)
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.entityType)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.entityID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.name)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.detail)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.amount)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.auto)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.assignedAt.Format("2006-01-02 15:04:05"))
	}

	// Summary block below the data
	summaryRow := len(rows) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Territory")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow), t.Name)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow+1), "Total Deal Value")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow+1), t.TotalDealValue)

	for i := 0; i < len(headers); i++ {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf, nil
}
