package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/league-buysell/models"
	"github.com/Dosada05/league-buysell/storage"
)

const (
	snapshotPrefix    = "lockerroom13/"
	snapshotLatestKey = snapshotPrefix + "latest.json"
)

var ErrSnapshotStorageDisabled = errors.New("snapshot storage is not configured")

type Snapshot struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Sessions    []models.LockerRoom13Session `json:"sessions"`
}

type SnapshotResult struct {
	LatestURL   string    `json:"latest_url"`
	ArchiveURL  string    `json:"archive_url"`
	ETag        string    `json:"etag,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type SnapshotService interface {
	PublishLockerRoom13(ctx context.Context) (*SnapshotResult, error)
}

type snapshotService struct {
	roster   RosterService
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

// NewSnapshotService returns a service that writes the LockerRoom13 view to
// object storage twice: a stable "latest" key and a timestamped archive key.
// A nil uploader makes every publish fail with ErrSnapshotStorageDisabled.
func NewSnapshotService(roster RosterService, uploader storage.FileUploader, logger *slog.Logger) SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &snapshotService{roster: roster, uploader: uploader, logger: logger, now: time.Now}
}

func (s *snapshotService) PublishLockerRoom13(ctx context.Context) (*SnapshotResult, error) {
	if s.uploader == nil {
		return nil, ErrSnapshotStorageDisabled
	}
	view, err := s.roster.LockerRoom13View(ctx)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().UTC()
	body, err := json.Marshal(Snapshot{GeneratedAt: generatedAt, Sessions: view})
	if err != nil {
		return nil, fmt.Errorf("failed to encode LockerRoom13 snapshot: %w", err)
	}

	archiveKey := snapshotPrefix + generatedAt.Format("20060102T150405Z") + ".json"
	archived, err := s.uploader.Upload(ctx, archiveKey, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to upload LockerRoom13 archive: %w", err)
	}
	latest, err := s.uploader.Upload(ctx, snapshotLatestKey, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to upload LockerRoom13 snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "LockerRoom13 snapshot published",
		slog.String("key", latest.Key),
		slog.String("archive_key", archived.Key),
		slog.Int("sessions", len(view)),
	)
	return &SnapshotResult{
		LatestURL:   latest.Location,
		ArchiveURL:  archived.Location,
		ETag:        latest.ETag,
		GeneratedAt: generatedAt,
	}, nil
}
