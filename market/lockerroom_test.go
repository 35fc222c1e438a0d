package market

import (
	"testing"
	"time"

	"github.com/Dosada05/league-buysell/models"
)

func strPtr(s string) *string { return &s }

func TestClassifyPlayer(t *testing.T) {
	roster := []*models.SessionRoster{
		{UserID: 1, IsRegular: true, IsPlaying: true},
		{UserID: 2, IsRegular: false, IsPlaying: true},
		{UserID: 3, IsRegular: true, IsPlaying: false},
	}
	buySells := []*models.BuySell{
		{ID: 1, BuyerUserID: intPtr(1)},
		{ID: 2, BuyerUserID: intPtr(3)},
	}

	tests := []struct {
		user int
		want PlayerStatus
	}{
		{1, PlayerRegular},
		{2, PlayerSubstitute},
		{3, PlayerInQueue},
		{4, PlayerNotPlaying},
	}
	for _, tt := range tests {
		if got := ClassifyPlayer(tt.user, roster, buySells); got != tt.want {
			t.Errorf("ClassifyPlayer(%d) = %s, want %s", tt.user, got, tt.want)
		}
	}
}

func TestIsCancelled(t *testing.T) {
	tests := []struct {
		note *string
		want bool
	}{
		{nil, false},
		{strPtr(""), false},
		{strPtr("Game CANCELLED due to rain"), true},
		{strPtr("cancelled"), true},
		{strPtr("bring dark jerseys"), false},
	}
	for _, tt := range tests {
		if got := IsCancelled(&models.Session{Note: tt.note}); got != tt.want {
			t.Errorf("IsCancelled(%v) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestUpcomingSessions(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	sessions := []*models.Session{
		{ID: 1, Date: now.Add(-time.Hour)},
		{ID: 2, Date: now.Add(48 * time.Hour)},
		{ID: 3, Date: now.Add(24 * time.Hour), Note: strPtr("Cancelled - rink closed")},
		{ID: 4, Date: now.Add(24 * time.Hour)},
		{ID: 5, Date: now},
	}

	got := UpcomingSessions(sessions, now)

	if len(got) != 2 || got[0].ID != 4 || got[1].ID != 2 {
		ids := make([]int, len(got))
		for i, s := range got {
			ids[i] = s.ID
		}
		t.Fatalf("UpcomingSessions ids = %v, want [4 2]", ids)
	}
}

func TestBuildLockerRoom13Session(t *testing.T) {
	session := &models.Session{ID: 9, Date: time.Date(2025, time.March, 4, 19, 0, 0, 0, time.UTC)}
	members := []*models.User{
		{ID: 1, FirstName: "Zoe", LastName: "Adams", LockerRoom13: true},
		{ID: 2, FirstName: "Amy", LastName: "Brown", LockerRoom13: true},
		{ID: 3, FirstName: "Ann", LastName: "Adams", LockerRoom13: true},
		{ID: 4, FirstName: "Not", LastName: "Member"},
	}
	roster := []*models.SessionRoster{{SessionID: 9, UserID: 2, IsRegular: true, IsPlaying: true}}
	buySells := []*models.BuySell{{ID: 1, SessionID: 9, BuyerUserID: intPtr(3)}}

	view := BuildLockerRoom13Session(session, members, roster, buySells)

	if view.Session.ID != 9 {
		t.Fatalf("Session.ID = %d, want 9", view.Session.ID)
	}
	want := []models.LockerRoom13Player{
		{UserID: 3, FirstName: "Ann", LastName: "Adams", Status: string(PlayerInQueue)},
		{UserID: 1, FirstName: "Zoe", LastName: "Adams", Status: string(PlayerNotPlaying)},
		{UserID: 2, FirstName: "Amy", LastName: "Brown", Status: string(PlayerRegular)},
	}
	if len(view.Players) != len(want) {
		t.Fatalf("got %d players, want %d: %+v", len(view.Players), len(want), view.Players)
	}
	for i := range want {
		if view.Players[i] != want[i] {
			t.Errorf("Players[%d] = %+v, want %+v", i, view.Players[i], want[i])
		}
	}
}

func TestSortByNameUsesCollation(t *testing.T) {
	users := []*models.User{
		{ID: 1, FirstName: "b", LastName: "Smith"},
		{ID: 2, FirstName: "A", LastName: "Smith"},
		{ID: 3, FirstName: "C", LastName: "adams"},
	}
	SortByName(users)
	if users[0].ID != 3 || users[1].ID != 2 || users[2].ID != 1 {
		t.Fatalf("unexpected order: %d %d %d", users[0].ID, users[1].ID, users[2].ID)
	}
}
