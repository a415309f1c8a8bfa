package model

import "time"

// Upload is an archived spreadsheet upload. Payload holds the encrypted file bytes
// and is never serialised to API clients.
type Upload struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"sizeBytes"`
	HoldingCount int       `json:"holdingCount"`
	SkippedRows  int       `json:"skippedRows"`
	CreatedAt    time.Time `json:"createdAt"`
	Payload      []byte    `json:"-"`
}

// UploadFilters narrows an upload listing. The zero value lists every upload,
// newest first.
type UploadFilters struct {
	Since   *time.Time
	SortDir string // "asc" or "desc"
	Limit   int    // 0 means no limit
}
