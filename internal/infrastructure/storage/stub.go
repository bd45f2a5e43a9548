package storage

import (
	"context"
	"net/url"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
)

var _ appdues.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage returns unsigned URLs under BaseURL. It is used when
// storage is disabled so evidence endpoints still respond in development.
type StubObjectStorage struct {
	BaseURL string
}

// NewStubObjectStorage creates a StubObjectStorage
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:9000/evidence"
	}
	return &StubObjectStorage{BaseURL: baseURL}
}

// GenerateUploadURL implements appdues.ObjectStorage
func (s *StubObjectStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return s.url(key, expiresIn)
}

// GenerateDownloadURL implements appdues.ObjectStorage
func (s *StubObjectStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return s.url(key, expiresIn)
}

func (s *StubObjectStorage) url(key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	expiresAt := time.Now().Add(expiresIn)
	u, err := url.JoinPath(s.BaseURL, key)
	if err != nil {
		return "", time.Time{}, err
	}
	return u + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}
