package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/portfolio"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/session"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/sheet"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/validation"
)

// UploadOptions configures an UploadService.
type UploadOptions struct {
	MaxBytes  int64
	Retention time.Duration
	// EncryptionKey is a base64 fernet key. A fresh key is generated when empty,
	// which makes archived uploads unreadable after a restart.
	EncryptionKey string
}

// UploadResult is the outcome of an accepted or restored upload.
type UploadResult struct {
	UploadID string               `json:"uploadId"`
	Holdings []model.Holding      `json:"stocks"`
	Skipped  []apperrors.RowError `json:"skipped"`
}

// UploadService handles spreadsheet uploads: it validates and parses the file,
// archives it encrypted, and loads the holdings into the session.
type UploadService struct {
	repo      *repository.UploadRepository
	session   *session.Session
	key       *fernet.Key
	maxBytes  int64
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewUploadService creates a new UploadService.
func NewUploadService(repo *repository.UploadRepository, sess *session.Session, opts UploadOptions, log zerolog.Logger) (*UploadService, error) {
	log = log.With().Str("component", "upload_service").Logger()

	key, err := loadKey(opts.EncryptionKey)
	if err != nil {
		return nil, err
	}
	if opts.EncryptionKey == "" {
		log.Warn().Msg("no upload encryption key configured, archived uploads will not survive a restart")
	}

	return &UploadService{
		repo:      repo,
		session:   sess,
		key:       key,
		maxBytes:  opts.MaxBytes,
		retention: opts.Retention,
		now:       time.Now,
		log:       log,
	}, nil
}

func loadKey(encoded string) (*fernet.Key, error) {
	if encoded == "" {
		var k fernet.Key
		if err := k.Generate(); err != nil {
			return nil, fmt.Errorf("failed to generate upload encryption key: %w", err)
		}
		return &k, nil
	}
	k, err := fernet.DecodeKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid upload encryption key: %w", err)
	}
	return k, nil
}

// Accept validates, parses and archives an uploaded workbook, then replaces
// the session holdings with it. Input errors leave the session and archive
// untouched.
func (s *UploadService) Accept(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	filename = filepath.Base(filename)
	if err := validation.ValidateFileName(filename); err != nil {
		return UploadResult{}, err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return UploadResult{}, fmt.Errorf("%w: %d bytes exceeds %d", apperrors.ErrFileTooLarge, len(data), s.maxBytes)
	}

	parsed, err := s.parse(filename, data)
	if err != nil {
		return UploadResult{}, err
	}

	token, err := fernet.EncryptAndSign(data, s.key)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToArchiveUpload, err)
	}

	upload := model.Upload{
		ID:           uuid.New().String(),
		Filename:     filename,
		SizeBytes:    int64(len(data)),
		HoldingCount: len(parsed.Holdings),
		SkippedRows:  len(parsed.Skipped),
		CreatedAt:    s.now(),
		Payload:      token,
	}
	if err := s.repo.Insert(ctx, upload); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToArchiveUpload, err)
	}

	s.session.Replace(parsed.Holdings)

	s.log.Info().
		Str("upload_id", upload.ID).
		Str("filename", filename).
		Int("holdings", upload.HoldingCount).
		Int("skipped", upload.SkippedRows).
		Msg("upload accepted")

	return newResult(upload.ID, parsed), nil
}

// Restore reloads an archived upload into the session.
func (s *UploadService) Restore(ctx context.Context, id string) (UploadResult, error) {
	if err := validation.ValidateUUID(id); err != nil {
		return UploadResult{}, err
	}

	upload, err := s.repo.Get(ctx, id)
	if err != nil {
		return UploadResult{}, err
	}

	data := fernet.VerifyAndDecrypt(upload.Payload, 0, []*fernet.Key{s.key})
	if data == nil {
		return UploadResult{}, fmt.Errorf("%w: %s", apperrors.ErrFailedToDecryptUpload, id)
	}

	parsed, err := s.parse(upload.Filename, data)
	if err != nil {
		return UploadResult{}, err
	}

	s.session.Replace(parsed.Holdings)
	s.log.Info().Str("upload_id", id).Int("holdings", len(parsed.Holdings)).Msg("upload restored")

	return newResult(id, parsed), nil
}

// List returns archived upload metadata matching filters.
func (s *UploadService) List(ctx context.Context, filters model.UploadFilters) ([]model.Upload, error) {
	return s.repo.List(ctx, filters)
}

// PurgeExpired deletes archived uploads older than the retention window.
func (s *UploadService) PurgeExpired(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteOlderThan(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("purged expired uploads")
	}
	return n, nil
}

func (s *UploadService) parse(filename string, data []byte) (sheet.Result, error) {
	parsed, err := sheet.ParseFile(filename, data)
	for _, rowErr := range parsed.Skipped {
		s.log.Warn().Int("row", rowErr.Row).Str("name", rowErr.Name).Str("reason", rowErr.Reason).Msg("row skipped")
	}
	if err != nil {
		var pe *apperrors.ParseError
		if errors.As(err, &pe) {
			s.log.Warn().Err(err).Str("filename", filename).Msg("upload rejected")
		}
		return sheet.Result{}, err
	}
	return parsed, nil
}

func newResult(id string, parsed sheet.Result) UploadResult {
	skipped := parsed.Skipped
	if skipped == nil {
		skipped = []apperrors.RowError{}
	}
	return UploadResult{
		UploadID: id,
		Holdings: portfolio.Aggregate(parsed.Holdings).Holdings,
		Skipped:  skipped,
	}
}
