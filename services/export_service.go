package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/utils/query"
)

const (
	institutionsSheet = "Institutions"
	summarySheet      = "Summary"

	// XLSXContentType is the MIME type of the exported workbook
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// InstitutionExportHeader lists the columns of the Institutions sheet
var InstitutionExportHeader = []string{
	"Institution Name",
	"Institutional Code",
	"Type",
	"Date of Deployment",
	"Year Distributed",
	"Region",
	"Province",
	"Municipality",
	"Complete Address",
	"Recipient",
	"Email",
	"Phone",
	"Unit Status",
	"Status Remarks",
	"MOU Status",
	"GAD Male",
	"GAD Female",
	"GAD Others",
	"GAD Total",
}

var institutionColumnWidths = []float64{40, 18, 12, 18, 14, 16, 20, 20, 45, 28, 30, 18, 12, 30, 12, 10, 10, 10, 10}

// ExportService renders filtered institution lists as XLSX workbooks
type ExportService struct {
	store database.Storage
	log   *zap.Logger
	now   func() time.Time
}

func NewExportService(store database.Storage, log *zap.Logger) *ExportService {
	return &ExportService{store: store, log: log, now: time.Now}
}

// ExportInstitutions returns the workbook bytes and a suggested file name
func (s *ExportService) ExportInstitutions(ctx context.Context, spec query.FilterSpec) ([]byte, string, error) {
	all, err := s.store.ListInstitutions(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load institutions: %w", err)
	}
	filtered := query.Filter(all, spec)

	now := s.now()
	data, err := GenerateInstitutionWorkbook(filtered, BuildSummaryReport(filtered, nil, query.FilterSpec{}, now))
	if err != nil {
		return nil, "", err
	}

	s.log.Info("institutions exported", zap.Int("rows", len(filtered)), zap.Int("bytes", len(data)))
	return data, fmt.Sprintf("starbooks-institutions-%s.xlsx", now.Format("20060102-150405")), nil
}

// GenerateInstitutionWorkbook writes one row per institution plus a summary sheet
func GenerateInstitutionWorkbook(institutions []model.Institution, summary *SummaryReport) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(institutionsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, institutionsSheet, InstitutionExportHeader, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	for i, width := range institutionColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(institutionsSheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, inst := range institutions {
		if err := writeRow(f, institutionsSheet, i+2, institutionRow(inst)); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(institutionsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if summary != nil {
		if err := writeSummarySheet(f, summary, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func institutionRow(i model.Institution) []interface{} {
	return []interface{}{
		i.InstitutionName,
		i.InstitutionalCode,
		i.InstitutionType,
		i.DateOfDeployment.Format("2006-01-02"),
		i.YearDistributed,
		i.Region,
		i.Province,
		i.Municipality,
		i.CompleteAddress,
		i.RecipientName,
		i.Email,
		i.Phone,
		string(i.UnitStatus),
		i.StatusRemarks,
		string(i.MOUStatus()),
		i.GADMale,
		i.GADFemale,
		i.GADOthers,
		i.GADTotal(),
	}
}

func writeSummarySheet(f *excelize.File, summary *SummaryReport, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeHeader(f, summarySheet, []string{"Group", "Key", "Count", "Percentage"}, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	rows := [][]interface{}{{"Total", "Institutions", summary.TotalInstitutions, 100.0}}
	for _, g := range summary.ByProvince {
		rows = append(rows, []interface{}{"Province", g.Key, g.Count, g.Percentage})
	}
	for _, g := range summary.ByType {
		rows = append(rows, []interface{}{"Type", g.Key, g.Count, g.Percentage})
	}
	for _, g := range summary.ByYear {
		rows = append(rows, []interface{}{"Year", g.Key, g.Count, g.Percentage})
	}
	for _, g := range summary.ByStatus {
		rows = append(rows, []interface{}{"Unit Status", g.Key, g.Count, g.Percentage})
	}
	for _, g := range summary.ByMOUStatus {
		rows = append(rows, []interface{}{"MOU Status", g.Key, g.Count, g.Percentage})
	}
	rows = append(rows,
		[]interface{}{"GAD", "Male", summary.GAD.Male, nil},
		[]interface{}{"GAD", "Female", summary.GAD.Female, nil},
		[]interface{}{"GAD", "Others", summary.GAD.Others, nil},
		[]interface{}{"GAD", "Total", summary.GAD.Total, nil},
	)

	for i, row := range rows {
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
