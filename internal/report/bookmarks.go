// Package report renders a user's saved recipes as a spreadsheet.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"recipe-bot/internal/storage"
)

const sheet = "Закладки"

// BookmarksWorkbook writes one row per bookmark into an in-memory xlsx file.
func BookmarksWorkbook(bookmarks []storage.Bookmark) (*bytes.Buffer, error) {
	const operation = "report.BookmarksWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: failed to rename sheet: %w", operation, err)
	}

	headers := []string{"№", "Рецепт"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
	}

	for row, bookmark := range bookmarks {
		data := []any{row + 1, bookmark.Text}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("%s: %w", operation, err)
			}
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	_ = f.SetCellStyle(sheet, "A1", "B1", headerStyle)

	textStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if len(bookmarks) > 0 {
		last, _ := excelize.CoordinatesToCellName(2, len(bookmarks)+1)
		_ = f.SetCellStyle(sheet, "A2", last, textStyle)
	}
	_ = f.SetColWidth(sheet, "B", "B", 100)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", operation, err)
	}
	return buf, nil
}
