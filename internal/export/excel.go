package export

import (
	"fmt"
	"io"
	"time"

	"roombook/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	BookingsSheet = "Bookings"
	SummarySheet  = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var bookingHeaders = []string{"ID", "User ID", "Room ID", "Date", "Start", "End", "Status", "Created", "Updated"}

// statusFill цвет заливки строки по статусу брони
var statusFill = map[string]string{
	models.StatusActive:    "#C6EFCE",
	models.StatusUpdated:   "#FFEB9C",
	models.StatusCancelled: "#FFC7CE",
}

// FileName returns the attachment name for an export generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("bookings_export_%s.xlsx", t.Format("2006-01-02_15-04-05"))
}

// WriteBookings renders bookings as an xlsx workbook: one row per booking
// on the Bookings sheet and active counts per room and date on the Summary sheet.
func WriteBookings(w io.Writer, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(BookingsSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeHeader(f, BookingsSheet, bookingHeaders); err != nil {
		return err
	}

	styles := make(map[string]int, len(statusFill))
	for status, color := range statusFill {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("error creating style: %w", err)
		}
		styles[status] = style
	}

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID, b.UserID, b.RoomID, b.Date, b.StartTime, b.EndTime, b.Status,
			formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(BookingsSheet, start, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if style, ok := styles[b.Status]; ok {
			end, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(BookingsSheet, start, end, style)
		}
	}

	_ = f.SetColWidth(BookingsSheet, "A", "C", 10)
	_ = f.SetColWidth(BookingsSheet, "D", "G", 14)
	_ = f.SetColWidth(BookingsSheet, "H", "I", 20)

	if err := writeSummary(f, bookings); err != nil {
		return err
	}

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

// writeSummary counts active bookings per room and date, in first-seen order.
func writeSummary(f *excelize.File, bookings []*models.Booking) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	if err := writeHeader(f, SummarySheet, []string{"Room ID", "Date", "Active bookings"}); err != nil {
		return err
	}

	type key struct {
		room int64
		date string
	}
	counts := make(map[key]int)
	var order []key
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		k := key{b.RoomID, b.Date}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	for i, k := range order {
		row := i + 2
		_ = f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), k.room)
		_ = f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), k.date)
		_ = f.SetCellValue(SummarySheet, fmt.Sprintf("C%d", row), counts[k])
	}
	_ = f.SetColWidth(SummarySheet, "A", "C", 16)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
