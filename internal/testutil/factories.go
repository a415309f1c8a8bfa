package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
)

// UploadBuilder provides a fluent interface for creating archived uploads.
//
// Example usage:
//
//	// Simple creation with defaults
//	upload := testutil.NewUpload().Build(t, db)
//
//	// Customized upload
//	upload := testutil.NewUpload().
//	    WithFilename("march.xlsx").
//	    WithCreatedAt(time.Now().Add(-48 * time.Hour)).
//	    Build(t, db)
type UploadBuilder struct {
	ID           string
	Filename     string
	SizeBytes    int64
	HoldingCount int
	SkippedRows  int
	CreatedAt    time.Time
	Payload      []byte
}

// NewUpload creates an UploadBuilder with sensible defaults.
func NewUpload() *UploadBuilder {
	return &UploadBuilder{
		ID:           MakeID(),
		Filename:     MakeFilename("portfolio"),
		SizeBytes:    1024,
		HoldingCount: 3,
		CreatedAt:    time.Now().UTC(),
		Payload:      []byte("payload"),
	}
}

// WithFilename sets a custom file name.
func (b *UploadBuilder) WithFilename(name string) *UploadBuilder {
	b.Filename = name
	return b
}

// WithCreatedAt sets the creation time.
func (b *UploadBuilder) WithCreatedAt(t time.Time) *UploadBuilder {
	b.CreatedAt = t
	return b
}

// WithPayload sets the stored payload.
func (b *UploadBuilder) WithPayload(p []byte) *UploadBuilder {
	b.Payload = p
	b.SizeBytes = int64(len(p))
	return b
}

// Build inserts the upload into the database and returns it.
func (b *UploadBuilder) Build(t *testing.T, db *sql.DB) model.Upload {
	t.Helper()

	u := model.Upload{
		ID:           b.ID,
		Filename:     b.Filename,
		SizeBytes:    b.SizeBytes,
		HoldingCount: b.HoldingCount,
		SkippedRows:  b.SkippedRows,
		CreatedAt:    b.CreatedAt,
		Payload:      b.Payload,
	}
	if err := repository.NewUploadRepository(db).Insert(context.Background(), u); err != nil {
		t.Fatalf("Failed to create upload: %v", err)
	}
	return u
}

// HoldingBuilder provides a fluent interface for creating holdings.
//
// Example usage:
//
//	h := testutil.NewHolding("HDFCBANK").WithQuantity(50).WithBuyPrice(1490).Build()
type HoldingBuilder struct {
	h model.Holding
}

// NewHolding creates a HoldingBuilder for ticker with sensible defaults.
func NewHolding(ticker string) *HoldingBuilder {
	return &HoldingBuilder{h: model.Holding{
		ID:       "1",
		Name:     ticker + " Ltd",
		Ticker:   ticker,
		Quantity: 10,
		BuyPrice: 100,
		Sector:   model.DefaultSector,
	}}
}

// WithSector sets the sector.
func (b *HoldingBuilder) WithSector(sector string) *HoldingBuilder {
	b.h.Sector = sector
	return b
}

// WithQuantity sets the quantity.
func (b *HoldingBuilder) WithQuantity(q float64) *HoldingBuilder {
	b.h.Quantity = q
	return b
}

// WithBuyPrice sets the buy price.
func (b *HoldingBuilder) WithBuyPrice(p float64) *HoldingBuilder {
	b.h.BuyPrice = p
	return b
}

// WithCurrentPrice sets the current market price.
func (b *HoldingBuilder) WithCurrentPrice(p float64) *HoldingBuilder {
	b.h.CurrentPrice = p
	return b
}

// Build returns the holding.
func (b *HoldingBuilder) Build() model.Holding {
	return b.h
}
