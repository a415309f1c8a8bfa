package apperrors

import (
	"errors"
	"fmt"
)

// Input errors represent problems with an uploaded file. They are surfaced to the
// user immediately and no partial state is committed.
var (
	// ErrNoFileProvided indicates that the multipart request carried no file part.
	ErrNoFileProvided = errors.New("no file provided")

	// ErrInvalidFileType indicates that the uploaded file is not an Excel workbook.
	ErrInvalidFileType = errors.New("invalid file type. Please upload an Excel file (.xlsx or .xls)")

	// ErrFileTooLarge indicates that the uploaded file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnreadableWorkbook indicates that the workbook bytes could not be decoded.
	ErrUnreadableWorkbook = errors.New("unable to read workbook")

	// ErrEmptyWorkbook indicates that the workbook contains no sheets.
	ErrEmptyWorkbook = errors.New("the Excel file contains no sheets")

	// ErrNoDataRows indicates that the first sheet has no rows at all.
	ErrNoDataRows = errors.New("no data found in the Excel file")

	// ErrNoValidHoldings indicates that every row was filtered out during parsing.
	ErrNoValidHoldings = errors.New("no valid stock data found in the Excel file")
)

// Lookup and validation errors.
var (
	// ErrUploadNotFound indicates that an archived upload with the given ID does not exist.
	ErrUploadNotFound = errors.New("upload not found")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidTicker indicates that a ticker symbol is empty or malformed.
	ErrInvalidTicker = errors.New("invalid ticker symbol")

	// ErrNoHoldings indicates that an operation needs holdings but none are loaded.
	ErrNoHoldings = errors.New("no holdings loaded")
)

// Operation failure errors.
var (
	// ErrCacheClosed is returned to callers whose quote request was still queued
	// when the cache was closed.
	ErrCacheClosed = errors.New("quote cache closed")

	// ErrUpstreamStatus indicates a non-200 response from a market data source.
	ErrUpstreamStatus = errors.New("unexpected upstream status")

	// ErrFailedToArchiveUpload indicates the upload could not be stored.
	ErrFailedToArchiveUpload = errors.New("failed to archive upload")

	// ErrFailedToDecryptUpload indicates an archived payload failed verification.
	ErrFailedToDecryptUpload = errors.New("failed to decrypt archived upload")
)

// ParseError is returned when parsing produced no holdings at all. Reason is either
// ErrNoDataRows or ErrNoValidHoldings so callers can match with errors.Is.
type ParseError struct {
	Reason error
	Rows   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to process Excel file: %v (rows examined: %d)", e.Reason, e.Rows)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

// RowError describes a single row that was skipped during parsing. It is reported
// alongside the parse result rather than returned as a failure.
type RowError struct {
	Row    int    `json:"row"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("row %d (%s): %s", e.Row, e.Name, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// IsInputError reports whether err belongs to the input class (bad file type,
// unreadable or empty sheet, zero valid holdings). Input errors map to HTTP 400.
func IsInputError(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return true
	}
	for _, target := range []error{
		ErrNoFileProvided,
		ErrInvalidFileType,
		ErrFileTooLarge,
		ErrUnreadableWorkbook,
		ErrEmptyWorkbook,
		ErrNoDataRows,
		ErrNoValidHoldings,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
