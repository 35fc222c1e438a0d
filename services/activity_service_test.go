package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/league-buysell/models"
)

type recordingSink struct {
	name      string
	err       error
	delivered []models.Activity
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, a models.Activity) error {
	s.delivered = append(s.delivered, a)
	return s.err
}

func TestActivityServiceDeliversToEverySink(t *testing.T) {
	broken := &recordingSink{name: "broken", err: errors.New("broker down")}
	healthy := &recordingSink{name: "healthy"}
	svc := NewActivityService(discardLogger(), broken, healthy)

	a := models.Activity{ID: "a1", SessionID: 3, Kind: models.ActivityQueuedBuy, Message: "Ann One added to BUYING queue"}
	svc.Publish(context.Background(), a)

	if len(broken.delivered) != 1 {
		t.Fatalf("broken sink saw %d activities, want 1", len(broken.delivered))
	}
	if len(healthy.delivered) != 1 || healthy.delivered[0].ID != "a1" {
		t.Fatalf("a failing sink must not stop delivery to the next one: %+v", healthy.delivered)
	}
}

func TestActivityServiceWithoutSinks(t *testing.T) {
	NewActivityService(nil).Publish(context.Background(), models.Activity{ID: "a2"})
}
