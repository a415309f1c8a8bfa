// Package sheet turns the rows of an uploaded portfolio workbook into holdings.
//
// Workbooks carry no reliable header names; every field is addressed by its
// column position. Rows are one of three kinds: a sector header that changes the
// sector of the holdings below it, a holding row, or a row to skip (blank lines,
// sector totals, column titles).
package sheet

import (
	"math"
	"strconv"
	"strings"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// Column positions within a row.
const (
	ColIndex        = 0
	ColName         = 1
	ColBuyPrice     = 2
	ColQuantity     = 3
	ColInvestment   = 4
	ColPortfolioPct = 5
	ColTicker       = 6
	ColCMP          = 7
	ColPresentValue = 8
	ColGainLoss     = 9
	ColGainLossPct  = 10
)

// Row is one positional record of the sheet. Cells hold raw values: numbers are
// rendered without formatting, missing cells are empty strings or absent.
type Row []string

// Cell returns the trimmed value at position i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// IsEmpty reports whether every cell is blank.
func (r Row) IsEmpty() bool {
	for i := range r {
		if r.Cell(i) != "" {
			return false
		}
	}
	return true
}

// Kind is the row type decided by Classify.
type Kind int

const (
	KindSkip Kind = iota
	KindSector
	KindHolding
)

func (k Kind) String() string {
	switch k {
	case KindSector:
		return "sector"
	case KindHolding:
		return "holding"
	default:
		return "skip"
	}
}

// Fields are the validated values of a holding row.
type Fields struct {
	Index        string
	Name         string
	Ticker       string
	BuyPrice     float64
	Quantity     float64
	CurrentPrice float64
}

// Classification is the tagged result of Classify. Sector is set for KindSector,
// Fields for KindHolding and Reason for KindSkip. Invalid marks skip rows that
// looked like holdings but carried unusable numbers; those are reported back to
// the uploader.
type Classification struct {
	Kind    Kind
	Sector  string
	Fields  Fields
	Reason  string
	Invalid bool
}

// Skip reasons.
const (
	ReasonEmptyRow        = "empty row"
	ReasonMissingName     = "missing name"
	ReasonSummaryRow      = "summary row"
	ReasonMissingPrice    = "missing buy price"
	ReasonMissingQuantity = "missing quantity"
	ReasonNoIndex         = "no row index"
	ReasonInvalidPrice    = "buy price is not a positive number"
	ReasonInvalidQuantity = "quantity is not a positive number"
)

// Classify decides what a row is. Checks run in a fixed order: blank rows, then
// sector headers, then summary or incomplete rows, then the row index, and only
// then the numeric holding fields.
func Classify(row Row) Classification {
	if row.IsEmpty() {
		return skip(ReasonEmptyRow)
	}

	name := row.Cell(ColName)
	ticker := row.Cell(ColTicker)

	if name != "" && strings.Contains(name, "Sector") && ticker == "" {
		return Classification{Kind: KindSector, Sector: name}
	}

	switch {
	case name == "":
		return skip(ReasonMissingName)
	case strings.Contains(name, "Total"):
		return skip(ReasonSummaryRow)
	case row.Cell(ColBuyPrice) == "":
		return skip(ReasonMissingPrice)
	case row.Cell(ColQuantity) == "":
		return skip(ReasonMissingQuantity)
	}

	index, ok := parseNumber(row.Cell(ColIndex))
	if !ok {
		return skip(ReasonNoIndex)
	}

	buyPrice, ok := parseNumber(row.Cell(ColBuyPrice))
	if !ok || buyPrice <= 0 {
		return invalid(ReasonInvalidPrice)
	}
	quantity, ok := parseNumber(row.Cell(ColQuantity))
	if !ok || quantity <= 0 {
		return invalid(ReasonInvalidQuantity)
	}

	if ticker == "" {
		ticker = model.UnknownTicker
	}
	cmp, ok := parseNumber(row.Cell(ColCMP))
	if !ok || cmp < 0 {
		cmp = 0
	}

	return Classification{
		Kind: KindHolding,
		Fields: Fields{
			Index:        strconv.FormatFloat(index, 'f', -1, 64),
			Name:         name,
			Ticker:       ticker,
			BuyPrice:     buyPrice,
			Quantity:     quantity,
			CurrentPrice: cmp,
		},
	}
}

func skip(reason string) Classification {
	return Classification{Kind: KindSkip, Reason: reason}
}

func invalid(reason string) Classification {
	return Classification{Kind: KindSkip, Reason: reason, Invalid: true}
}

// parseNumber accepts plain or thousands-separated numeric strings.
// NaN and infinities are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
