package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/session"
)

// TestEncryptionKey is a fixed fernet key so archived uploads can be read back
// across service instances in one test.
const TestEncryptionKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

// NewTestSession creates a session with auto refresh off. It is closed when
// the test completes.
func NewTestSession(t *testing.T, fetcher marketdata.Fetcher) *session.Session {
	t.Helper()

	s := session.New(fetcher, session.Options{Interval: time.Hour}, zerolog.Nop())
	t.Cleanup(s.Close)
	return s
}

func NewTestUploadService(t *testing.T, db *sql.DB, sess *session.Session) *service.UploadService {
	t.Helper()

	svc, err := service.NewUploadService(
		repository.NewUploadRepository(db),
		sess,
		service.UploadOptions{
			MaxBytes:      1 << 20,
			Retention:     24 * time.Hour,
			EncryptionKey: TestEncryptionKey,
		},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("Failed to create upload service: %v", err)
	}
	return svc
}

func NewTestPortfolioService(t *testing.T, sess *session.Session) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(sess)
}

// NewTestMarketService creates a market service whose cache has no request delay.
func NewTestMarketService(t *testing.T, fetcher marketdata.Fetcher) *service.MarketService {
	t.Helper()

	cache := marketdata.NewCache(fetcher, marketdata.WithDelay(0))
	t.Cleanup(cache.Close)
	return service.NewMarketService(cache)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{"upload_archive": true})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a stock ticker symbol for testing.
//
// Example usage:
//
//	ticker := testutil.MakeTicker("INFY")
//	// Returns: "INFY1A2B"
func MakeTicker(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakeFilename generates a unique workbook file name for testing.
//
// Example usage:
//
//	name := testutil.MakeFilename("portfolio")
//	// Returns: "portfolio-ABC123.xlsx"
func MakeFilename(base string) string {
	if base == "" {
		base = "portfolio"
	}
	return base + "-" + randomAlphanumeric(6) + ".xlsx"
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
