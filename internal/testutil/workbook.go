package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// SampleSheet mirrors the layout of a broker portfolio export: a title row,
// sector header rows carrying sector totals, numbered holding rows and a sector
// ("Consumer") whose header lacks the word "Sector".
func SampleSheet() [][]any {
	return [][]any{
		{"No", "Particulars", "Purchase Price", "Qty", "Investment", "Portfolio (%)", "NSE/BSE", "CMP", "Present value", "Gain/Loss", "Gain/Loss (%)"},
		{nil, "Financial Sector", nil, nil, 328450.0, 0.21285627260119502, nil, nil, 386328.7, 57878.7, 0.17621768914598873},
		{1.0, "HDFC Bank", 1490.0, 50.0, 74500.0, 0.04828068902051767, "HDFCBANK", 1700.15, 85007.5, 10507.5, 0.14104026845637585},
		{2.0, "Bajaj Finance", 6466.0, 15.0, 96990.0, 0.06285562453825516, "BAJFINANCE", 8419.6, 126294.0, 29304.0, 0.3021342406433653},
		{3.0, "ICICI Bank", 780.0, 84.0, 65520.0, 0.04246108382046064, "532174", 1215.5, 102102.0, 36582.0, 0.5583333333333333},
		{nil, "Tech Sector", nil, nil, 337820.0, 0.21892862234780242, nil, nil, 319697.3, -18122.7, -0.05364602451009415},
		{1.0, "Affle India", 1151.0, 50.0, 57550.0, 0.03729602218967506, "AFFLE", 1459.6, 72980.0, 15430.0, 0.2681146828844483},
		{2.0, "LTI Mindtree", 4775.0, 16.0, 76400.0, 0.04951200860627584, "LTIM", 4793.8, 76700.8, 300.8, 0.003937172774869148},
		{3.0, "KPIT Tech", 672.0, 61.0, 40992.0, 0.026565396031262557, "542651", 1293.1, 78879.1, 37887.1, 0.9242559523809522},
		{nil, "Consumer", nil, nil, 263565.0, 0.17080670874755355, nil, nil, 277958.7, 14393.7, 0.05461157589209492},
		{1.0, "Dmart", 3777.0, 27.0, 101979.0, 0.06608881054528015, "DMART", 3451.1, 93179.7, -8799.3, -0.08628541170240935},
	}
}

// BuildWorkbook writes rows into the first sheet of a new .xlsx workbook and
// returns its bytes. nil cells are left empty.
func BuildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, cells := range rows {
		for c, v := range cells {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("Failed to resolve cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("Failed to set cell %s: %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

// BuildEmptyWorkbook returns an .xlsx workbook whose only sheet has no cells.
func BuildEmptyWorkbook(t *testing.T) []byte {
	t.Helper()
	return BuildWorkbook(t, nil)
}
