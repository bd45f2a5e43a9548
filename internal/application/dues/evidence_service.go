package dues

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage issues presigned URLs for receipt evidence. It is
// implemented by the infrastructure storage layer (S3 or compatible).
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// evidenceContentTypes are the receipt formats accepted for upload
var evidenceContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// EvidenceURL is a presigned URL for one evidence object
type EvidenceURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EvidenceService hands out presigned URLs for payment receipts. The engine
// stores only the object key on the transaction and never reads the object.
type EvidenceService struct {
	storage ObjectStorage
	repos   TransactionalRepositories
	expiry  time.Duration
	logger  *zap.Logger
}

// EvidenceServiceConfig holds configuration for the evidence service
type EvidenceServiceConfig struct {
	Storage ObjectStorage
	Repos   TransactionalRepositories
	// URLExpiry is how long issued URLs stay valid. Default: 15 minutes.
	URLExpiry time.Duration
	Logger    *zap.Logger
}

// NewEvidenceService creates a new EvidenceService
func NewEvidenceService(cfg EvidenceServiceConfig) *EvidenceService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &EvidenceService{
		storage: cfg.Storage,
		repos:   cfg.Repos,
		expiry:  expiry,
		logger:  logger,
	}
}

// RequestUpload returns a presigned PUT URL under a fresh key scoped to the
// resident. The key is then passed as EvidenceKey when creating the
// transaction.
func (s *EvidenceService) RequestUpload(ctx context.Context, residentID uuid.UUID, fileName, contentType string) (*EvidenceURL, error) {
	if residentID == uuid.Nil {
		return nil, shared.InvalidArgument("resident is required")
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := evidenceContentTypes[contentType]
	if !ok {
		return nil, shared.InvalidArgument("unsupported evidence content type %q", contentType)
	}
	if e := strings.ToLower(path.Ext(fileName)); e != "" {
		ext = e
	}

	key := fmt.Sprintf("evidence/%s/%s%s", residentID, shared.NewID(), ext)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.expiry)
	if err != nil {
		s.logger.Error("Failed to generate evidence upload URL",
			zap.String("key", key),
			zap.Error(err))
		return nil, shared.StorageFailure("generate evidence upload url", err)
	}
	return &EvidenceURL{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

// DownloadURL returns a presigned GET URL for the evidence of a transaction.
func (s *EvidenceService) DownloadURL(ctx context.Context, transactionID uuid.UUID) (*EvidenceURL, error) {
	tx, err := s.repos.Transactions().FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.EvidenceKey == "" {
		return nil, shared.NotFound("transaction %s has no evidence", transactionID)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, tx.EvidenceKey, s.expiry)
	if err != nil {
		s.logger.Error("Failed to generate evidence download URL",
			zap.String("transaction_id", transactionID.String()),
			zap.Error(err))
		return nil, shared.StorageFailure("generate evidence download url", err)
	}
	return &EvidenceURL{Key: tx.EvidenceKey, URL: url, ExpiresAt: expiresAt}, nil
}
