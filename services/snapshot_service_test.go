package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/Dosada05/league-buysell/models"
	"github.com/Dosada05/league-buysell/storage"
)

type fakeUploader struct {
	objects map[string][]byte
	keys    []string
	failOn  string
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	if key == u.failOn {
		return nil, errors.New("bucket unavailable")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = body
	u.keys = append(u.keys, key)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: "etag-" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type staticRoster struct {
	RosterService
	view []models.LockerRoom13Session
}

func (r staticRoster) LockerRoom13View(context.Context) ([]models.LockerRoom13Session, error) {
	return r.view, nil
}

func TestPublishLockerRoom13(t *testing.T) {
	view := []models.LockerRoom13Session{{
		Session: models.Session{ID: 7, Date: testSessionDate, BuyDayMinimum: 6},
		Players: []models.LockerRoom13Player{{UserID: 1, FirstName: "Lee", LastName: "Locker", Status: "Regular"}},
	}}
	uploader := &fakeUploader{}
	svc := NewSnapshotService(staticRoster{view: view}, uploader, discardLogger())
	svc.(*snapshotService).now = fixedNow

	res, err := svc.PublishLockerRoom13(context.Background())
	if err != nil {
		t.Fatalf("PublishLockerRoom13: %v", err)
	}

	wantArchive := "lockerroom13/20250220T120000Z.json"
	if len(uploader.keys) != 2 || uploader.keys[0] != wantArchive || uploader.keys[1] != "lockerroom13/latest.json" {
		t.Fatalf("uploaded keys = %v", uploader.keys)
	}
	if res.LatestURL != "https://cdn.example.com/lockerroom13/latest.json" || res.ArchiveURL != "https://cdn.example.com/"+wantArchive {
		t.Fatalf("unexpected urls: %+v", res)
	}
	if !res.GeneratedAt.Equal(testNow) || res.ETag != "etag-lockerroom13/latest.json" {
		t.Fatalf("unexpected result: %+v", res)
	}

	var snap Snapshot
	if err := json.Unmarshal(uploader.objects["lockerroom13/latest.json"], &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Sessions) != 1 || snap.Sessions[0].Session.ID != 7 || snap.Sessions[0].Players[0].LastName != "Locker" {
		t.Fatalf("snapshot body = %+v", snap)
	}
}

func TestPublishLockerRoom13Errors(t *testing.T) {
	svc := NewSnapshotService(staticRoster{}, nil, discardLogger())
	if _, err := svc.PublishLockerRoom13(context.Background()); !errors.Is(err, ErrSnapshotStorageDisabled) {
		t.Fatalf("err = %v, want ErrSnapshotStorageDisabled", err)
	}

	uploader := &fakeUploader{failOn: "lockerroom13/latest.json"}
	svc = NewSnapshotService(staticRoster{}, uploader, discardLogger())
	if _, err := svc.PublishLockerRoom13(context.Background()); err == nil {
		t.Fatal("expected upload failure to surface")
	}
}
