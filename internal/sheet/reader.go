package sheet

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
)

// Supported workbook extensions.
const (
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
)

// IsSupportedFile reports whether filename has a workbook extension we can read.
func IsSupportedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ExtXLSX, ExtXLS:
		return true
	}
	return false
}

// ReadRows returns the raw rows of the first sheet of a workbook. The reader is
// picked by file extension.
func ReadRows(filename string, data []byte) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ExtXLSX:
		return readXLSX(data)
	case ExtXLS:
		return readXLS(data)
	default:
		return nil, apperrors.ErrInvalidFileType
	}
}

func readXLSX(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.ErrEmptyWorkbook
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", apperrors.ErrUnreadableWorkbook, sheets[0], err)
	}

	rows := make([]Row, len(raw))
	for i, cells := range raw {
		rows[i] = Row(cells)
	}
	return rows, nil
}

func readXLS(data []byte) (rows []Row, err error) {
	// The legacy reader panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableWorkbook, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreadableWorkbook, err)
	}
	if wb.NumSheets() == 0 {
		return nil, apperrors.ErrEmptyWorkbook
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, apperrors.ErrEmptyWorkbook
	}

	for i := 0; i <= int(ws.MaxRow); i++ {
		r := ws.Row(i)
		if r == nil {
			rows = append(rows, Row{})
			continue
		}
		cells := make(Row, r.LastCol())
		for c := range cells {
			cells[c] = r.Col(c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
