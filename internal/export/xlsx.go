package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"mongoextract/internal/etl"
)

// Excel rejects cell text longer than this.
const maxCellChars = excelize.TotalCellChars

func writeXLSX(table *etl.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22}) // m/d/yy h:mm
	if err != nil {
		return nil, fmt.Errorf("date style: %w", err)
	}

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	cells := make([]any, len(table.Columns))
	for r, row := range table.Rows {
		for i := range cells {
			cells[i] = nil
			if i < len(row) {
				cells[i] = xlsxCell(row[i], dateStyle)
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxCell(v any, dateStyle int) any {
	switch c := Cell(v).(type) {
	case string:
		if r := []rune(c); len(r) > maxCellChars {
			return string(r[:maxCellChars])
		}
		return c
	case time.Time:
		return excelize.Cell{StyleID: dateStyle, Value: c}
	default:
		return c
	}
}
