package sheet

import (
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// Result is the outcome of a successful parse.
type Result struct {
	Holdings []model.Holding
	Skipped  []apperrors.RowError
}

// parseState is the accumulator threaded through the rows.
type parseState struct {
	sector   string
	holdings []model.Holding
	skipped  []apperrors.RowError
	dataRows int
}

// Parse folds rows into holdings in document order. Each holding takes the
// sector of the closest sector header above it, or model.DefaultSector when
// none precedes it. Rows that cannot be used are skipped; only an empty result
// fails, with a *apperrors.ParseError.
func Parse(rows []Row) (Result, error) {
	st := parseState{sector: model.DefaultSector}
	for i, row := range rows {
		st = step(st, i+1, row)
	}

	if st.dataRows == 0 {
		return Result{}, &apperrors.ParseError{Reason: apperrors.ErrNoDataRows, Rows: len(rows)}
	}
	if len(st.holdings) == 0 {
		return Result{Skipped: st.skipped}, &apperrors.ParseError{Reason: apperrors.ErrNoValidHoldings, Rows: len(rows)}
	}
	return Result{Holdings: st.holdings, Skipped: st.skipped}, nil
}

// step applies one row (numbered from 1) to the accumulator.
func step(st parseState, rowNum int, row Row) parseState {
	c := Classify(row)
	if c.Reason != ReasonEmptyRow {
		st.dataRows++
	}

	switch c.Kind {
	case KindSector:
		st.sector = c.Sector
	case KindHolding:
		st.holdings = append(st.holdings, model.Holding{
			ID:           c.Fields.Index,
			Name:         c.Fields.Name,
			Ticker:       c.Fields.Ticker,
			Quantity:     c.Fields.Quantity,
			BuyPrice:     c.Fields.BuyPrice,
			Sector:       st.sector,
			CurrentPrice: c.Fields.CurrentPrice,
		})
	case KindSkip:
		if c.Invalid {
			st.skipped = append(st.skipped, apperrors.RowError{
				Row:    rowNum,
				Name:   row.Cell(ColName),
				Reason: c.Reason,
			})
		}
	}
	return st
}

// ParseFile reads the first sheet of an .xlsx or .xls workbook and parses it.
func ParseFile(filename string, data []byte) (Result, error) {
	rows, err := ReadRows(filename, data)
	if err != nil {
		return Result{}, err
	}
	return Parse(rows)
}
