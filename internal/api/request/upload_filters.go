// Package request parses and validates query parameters of incoming requests.
package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// MaxUploadListLimit caps the limit parameter of an upload listing.
const MaxUploadListLimit = 100

// ParseUploadFilters extracts and validates upload list filters from query
// parameters. All parameters are optional.
//
// Validation rules:
//   - since: YYYY-MM-DD or RFC3339
//   - sort_dir: "asc" or "desc" (defaults to "desc")
//   - limit: between 1 and MaxUploadListLimit (defaults to no limit)
func ParseUploadFilters(sinceParam, sortDirParam, limitParam string) (model.UploadFilters, error) {
	filters := model.UploadFilters{SortDir: "desc"}

	if sinceParam != "" {
		since, err := parseFilterTime(sinceParam)
		if err != nil {
			return model.UploadFilters{}, fmt.Errorf("invalid since format: %w", err)
		}
		filters.Since = &since
	}

	if sortDirParam != "" {
		sortDir := strings.ToLower(sortDirParam)
		if sortDir != "asc" && sortDir != "desc" {
			return model.UploadFilters{}, fmt.Errorf("invalid sort_dir: must be 'asc' or 'desc'")
		}
		filters.SortDir = sortDir
	}

	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return model.UploadFilters{}, fmt.Errorf("invalid limit: must be a number")
		}
		if limit < 1 || limit > MaxUploadListLimit {
			return model.UploadFilters{}, fmt.Errorf("invalid limit: must be between 1 and %d", MaxUploadListLimit)
		}
		filters.Limit = limit
	}

	return filters, nil
}

// parseFilterTime accepts YYYY-MM-DD or RFC3339, with optional fractional seconds.
func parseFilterTime(str string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, str); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date or datetime", str)
}
