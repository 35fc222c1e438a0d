package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/league-buysell/market"
	"github.com/Dosada05/league-buysell/models"
	"github.com/Dosada05/league-buysell/repositories"
)

// PlayerStatusView is one row of a session's player list.
type PlayerStatusView struct {
	UserID         int                 `json:"user_id"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	Status         market.PlayerStatus `json:"status"`
	TeamAssignment string              `json:"team_assignment,omitempty"`
	Position       string              `json:"position,omitempty"`
}

// LockerRoom13Cache stores the aggregate view between marketplace changes.
// A miss is (nil, false, nil).
type LockerRoom13Cache interface {
	Get(ctx context.Context) ([]models.LockerRoom13Session, bool, error)
	Set(ctx context.Context, view []models.LockerRoom13Session) error
	Invalidate(ctx context.Context) error
}

type RosterService interface {
	ListUpcomingSessions(ctx context.Context) ([]*models.Session, error)
	GetSession(ctx context.Context, sessionID int) (*models.Session, error)
	SessionStatuses(ctx context.Context, sessionID int) ([]PlayerStatusView, error)
	LockerRoom13View(ctx context.Context) ([]models.LockerRoom13Session, error)
	// LockerRoom13ViewFor is LockerRoom13View restricted to LockerRoom13 members.
	LockerRoom13ViewFor(ctx context.Context, userID int) ([]models.LockerRoom13Session, error)
}

type rosterService struct {
	sessionRepo repositories.SessionRepository
	buySellRepo repositories.BuySellRepository
	rosterRepo  repositories.SessionRosterRepository
	userRepo    repositories.UserRepository
	cache       LockerRoom13Cache
	logger      *slog.Logger
	now         func() time.Time
}

// NewRosterService builds the read side. cache may be nil.
func NewRosterService(
	sessionRepo repositories.SessionRepository,
	buySellRepo repositories.BuySellRepository,
	rosterRepo repositories.SessionRosterRepository,
	userRepo repositories.UserRepository,
	cache LockerRoom13Cache,
	logger *slog.Logger,
	now func() time.Time,
) RosterService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &rosterService{
		sessionRepo: sessionRepo,
		buySellRepo: buySellRepo,
		rosterRepo:  rosterRepo,
		userRepo:    userRepo,
		cache:       cache,
		logger:      logger,
		now:         now,
	}
}

func (s *rosterService) ListUpcomingSessions(ctx context.Context) ([]*models.Session, error) {
	sessions, err := s.sessionRepo.ListFutureNonCancelled(ctx, s.now())
	if err != nil {
		return nil, translateRepoError(err)
	}
	return market.UpcomingSessions(sessions, s.now()), nil
}

func (s *rosterService) GetSession(ctx context.Context, sessionID int) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return session, nil
}

func (s *rosterService) SessionStatuses(ctx context.Context, sessionID int) ([]PlayerStatusView, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, translateRepoError(err)
	}

	roster, buySells, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	ids := make([]int, 0, len(roster)+len(buySells))
	for _, r := range roster {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	for _, b := range buySells {
		if b.BuyerUserID != nil && !seen[*b.BuyerUserID] {
			seen[*b.BuyerUserID] = true
			ids = append(ids, *b.BuyerUserID)
		}
	}

	byID, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, translateRepoError(err)
	}
	users := make([]*models.User, 0, len(byID))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	market.SortByName(users)

	spots := make(map[int]*models.SessionRoster, len(roster))
	for _, r := range roster {
		spots[r.UserID] = r
	}
	views := make([]PlayerStatusView, 0, len(users))
	for _, u := range users {
		v := PlayerStatusView{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Status:    market.ClassifyPlayer(u.ID, roster, buySells),
		}
		if r, ok := spots[u.ID]; ok && r.IsPlaying {
			v.TeamAssignment, v.Position = r.TeamAssignment, r.Position
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *rosterService) LockerRoom13ViewFor(ctx context.Context, userID int) ([]models.LockerRoom13Session, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if !user.LockerRoom13 {
		return nil, fmt.Errorf("%w: LockerRoom13 members only", ErrForbiddenOperation)
	}
	return s.LockerRoom13View(ctx)
}

func (s *rosterService) LockerRoom13View(ctx context.Context) ([]models.LockerRoom13Session, error) {
	if s.cache != nil {
		view, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "LockerRoom13 cache read failed", slog.Any("error", err))
		} else if ok {
			return view, nil
		}
	}

	sessions, err := s.ListUpcomingSessions(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.userRepo.ListLockerRoom13(ctx)
	if err != nil {
		return nil, translateRepoError(err)
	}

	view := make([]models.LockerRoom13Session, len(sessions))
	g, gCtx := errgroup.WithContext(ctx)
	for i, session := range sessions {
		g.Go(func() error {
			roster, buySells, err := s.loadSession(gCtx, session.ID)
			if err != nil {
				return fmt.Errorf("session %d: %w", session.ID, err)
			}
			view[i] = market.BuildLockerRoom13Session(session, members, roster, buySells)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, view); err != nil {
			s.logger.WarnContext(ctx, "LockerRoom13 cache write failed", slog.Any("error", err))
		}
	}
	return view, nil
}

func (s *rosterService) loadSession(ctx context.Context, sessionID int) ([]*models.SessionRoster, []*models.BuySell, error) {
	roster, err := s.rosterRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	buySells, err := s.buySellRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	return roster, buySells, nil
}
