package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/xuri/excelize/v2"
)

// ExportService renders solicitud rows to tabular formats. It never talks
// to the store itself; callers pass the scoped rows from the lifecycle
// service.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

var exportHeader = []string{"ID", "Cliente", "Asunto", "Estado", "Owner", "Asignado", "Creacion_UTC", "Deadline_UTC"}

func exportRow(s *models.Solicitud) []string {
	assigned := ""
	if s.AssignedUser != nil {
		assigned = s.AssignedUser.Nombre
	}
	deadline := ""
	if s.DeadlineAt != nil {
		deadline = s.DeadlineAt.UTC().Format(time.RFC3339)
	}
	return []string{
		fmt.Sprintf("%d", s.ID),
		s.Cliente,
		s.Asunto,
		s.Estado.Nombre,
		s.Owner.Nombre,
		assigned,
		s.CreatedAt.UTC().Format(time.RFC3339),
		deadline,
	}
}

// ExportCSV renders the rows as CSV.
func (s *ExportService) ExportCSV(rows []models.Solicitud) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, "", err
	}
	for i := range rows {
		if err := writer.Write(exportRow(&rows[i])); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("solicitudes_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportXLSX renders the rows as an Excel workbook.
func (s *ExportService) ExportXLSX(rows []models.Solicitud) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Solicitudes"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := range rows {
		values := exportRow(&rows[i])
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("solicitudes_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportPDF renders a compact listing report.
func (s *ExportService) ExportPDF(rows []models.Solicitud) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(60, 10, "Reporte de Solicitudes")
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(60, 10, time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	pdf.Ln(12)

	widths := []float64{12, 50, 60, 28, 35, 35, 30, 30}

	pdf.SetFont("Arial", "B", 9)
	for i, title := range exportHeader {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for i := range rows {
		values := exportRow(&rows[i])
		for j, v := range values {
			if len(v) > 40 {
				v = v[:37] + "..."
			}
			pdf.CellFormat(widths[j], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("solicitudes_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
