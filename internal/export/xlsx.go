package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"arenda/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Бронирования"

var statusFill = map[string]string{
	"secondary":   "#FFF2CC",
	"default":     "#E2EFDA",
	"outline":     "#EDEDED",
	"destructive": "#F8CBAD",
}

type XLSXExporter struct {
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewXLSXExporter(dir string, logger *zerolog.Logger) *XLSXExporter {
	return &XLSXExporter{dir: dir, logger: logger, now: time.Now}
}

// ExportBookings создает Excel файл с бронированиями пользователя и
// возвращает путь к нему.
func (e *XLSXExporter) ExportBookings(ctx context.Context, user models.User, bookings []models.Booking) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(xlsxSheet, "A1", fmt.Sprintf("Бронирования: %s", ownerCaption(user)))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	_ = f.SetCellStyle(xlsxSheet, "A1", "A1", titleStyle)
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(xlsxSheet, "A1", lastCol+"1")

	if err := f.SetSheetRow(xlsxSheet, "A2", &bookingHeaders); err != nil {
		return "", fmt.Errorf("error writing headers: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(xlsxSheet, "A2", lastCol+"2", headerStyle)

	styles := make(map[string]int)
	for variant, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			styles[variant] = id
		}
	}

	row := 3
	for _, b := range bookings {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := bookingRowValues(b)
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return "", fmt.Errorf("error writing booking %d: %w", b.ID, err)
		}
		statusCell, _ := excelize.CoordinatesToCellName(8, row)
		if id, ok := styles[b.DisplayStatus().Variant()]; ok {
			_ = f.SetCellStyle(xlsxSheet, statusCell, statusCell, id)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(6, row)
	totalCell, _ := excelize.CoordinatesToCellName(7, row)
	_ = f.SetCellValue(xlsxSheet, totalLabel, "Итого")
	_ = f.SetCellValue(xlsxSheet, totalCell, totalSpent(bookings))

	_ = f.SetColWidth(xlsxSheet, "A", "A", 8)
	_ = f.SetColWidth(xlsxSheet, "B", "C", 28)
	_ = f.SetColWidth(xlsxSheet, "D", "J", 16)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%d_%s.xlsx", user.ID, e.now().Format("20060102_150405"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}
