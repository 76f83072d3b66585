package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/services/filestore"
	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/query"
)

// ErrNoMOU is returned when an institution has no uploaded MOU
var ErrNoMOU = errors.New("institution has no MOU document")

// MOUCounts summarizes MOU availability over a listing
type MOUCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Missing   int `json:"missing"`
}

// MOUService stores signed MOU documents and lists their status
type MOUService struct {
	store database.Storage
	files filestore.FileStore
	cache cache.Cache
	log   *zap.Logger
	now   func() time.Time
}

// NewMOUService creates a new MOU service
func NewMOUService(store database.Storage, files filestore.FileStore, c cache.Cache, log *zap.Logger) *MOUService {
	return &MOUService{store: store, files: files, cache: c, log: log, now: time.Now}
}

// Upload stores an already validated PDF and attaches it to the institution.
// A replaced document is removed from storage afterwards.
func (s *MOUService) Upload(ctx context.Context, institutionID uint, filename string, content []byte) (*model.Institution, error) {
	inst, err := s.store.GetInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	previous := inst.MOUDocumentPath

	key := filestore.MOUKey(institutionID, filename)
	ref, err := s.files.Upload(ctx, key, bytes.NewReader(content), filestore.GetContentType(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to store MOU: %w", err)
	}

	updated, err := s.store.AttachMOU(ctx, institutionID, model.MOUAttachment{
		Path:       ref,
		FileName:   filename,
		FileSize:   int64(len(content)),
		UploadedAt: s.now().UTC(),
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, ref); delErr != nil {
			s.log.Warn("failed to remove orphaned MOU object", zap.String("key", ref), zap.Error(delErr))
		}
		return nil, err
	}

	if previous != "" && previous != ref {
		if err := s.files.Delete(ctx, previous); err != nil {
			s.log.Warn("failed to remove replaced MOU object", zap.String("key", previous), zap.Error(err))
		}
	}

	s.log.Info("MOU uploaded",
		zap.Uint("institution_id", institutionID),
		zap.String("key", ref),
		zap.Int("bytes", len(content)),
	)
	invalidateSummaries(ctx, s.cache, s.log)
	return updated, nil
}

// List returns the MOU view filtered by spec (status is Available or Missing)
// together with availability counts of the filtered set
func (s *MOUService) List(ctx context.Context, spec query.FilterSpec) ([]model.MOUDocument, MOUCounts, error) {
	docs, err := s.store.ListMOUDocuments(ctx)
	if err != nil {
		return nil, MOUCounts{}, fmt.Errorf("failed to load MOU documents: %w", err)
	}
	docs = query.Filter(docs, spec)

	counts := MOUCounts{Total: len(docs)}
	for _, d := range docs {
		if d.Status == model.MOUStatusAvailable {
			counts.Available++
		} else {
			counts.Missing++
		}
	}
	return docs, counts, nil
}

// DownloadURL signs a temporary link to an institution's MOU
func (s *MOUService) DownloadURL(ctx context.Context, institutionID uint, ttl time.Duration) (string, error) {
	inst, err := s.store.GetInstitution(ctx, institutionID)
	if err != nil {
		return "", err
	}
	if inst.MOUStatus() != model.MOUStatusAvailable {
		return "", fmt.Errorf("institution %d: %w", institutionID, ErrNoMOU)
	}
	return s.files.PresignedURL(ctx, inst.MOUDocumentPath, ttl)
}
