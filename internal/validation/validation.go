package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/sheet"
)

// tickerPattern allows exchange-qualified symbols such as "HDFCBANK:NSE",
// "BRK.B" or "^NSEI".
var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9^][A-Za-z0-9.\-_&:^]{0,31}$`)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidUUID, id)
	}
	return nil
}

// ValidateFileName checks that an uploaded file looks like an Excel workbook.
func ValidateFileName(name string) error {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return apperrors.ErrNoFileProvided
	}
	if !sheet.IsSupportedFile(name) {
		return apperrors.ErrInvalidFileType
	}
	return nil
}

// ValidateTicker checks a ticker symbol and returns it trimmed.
func ValidateTicker(ticker string) (string, error) {
	ticker = strings.TrimSpace(ticker)
	if !tickerPattern.MatchString(ticker) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidTicker, ticker)
	}
	return ticker, nil
}

// ValidateAutoRefresh checks the body of an auto-refresh toggle request.
func ValidateAutoRefresh(enabled *bool) error {
	if enabled == nil {
		return fieldError("enabled", "is required")
	}
	return nil
}
