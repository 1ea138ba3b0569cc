package service

import (
	"context"
	"errors"

	"github.com/leadpilot/leadpilot/internal/model"
	"github.com/leadpilot/leadpilot/internal/quota"
	"github.com/leadpilot/leadpilot/internal/repository"
)

// ErrUserNotFound is returned when the user record does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserService exposes account information.
type UserService struct {
	repo *repository.Repository
	gate *quota.Gate
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, gate *quota.Gate) *UserService {
	return &UserService{repo: repo, gate: gate}
}

// Profile combines account data with today's quota standing.
type Profile struct {
	User      *model.User
	Limit     int
	Used      int
	Remaining int
}

// Me returns the caller's profile, rolling the daily counter over if
// the stored day is stale so the numbers are always current.
func (s *UserService) Me(ctx context.Context, userID string) (*Profile, error) {
	decision, err := s.gate.Usage(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &Profile{
		User:      decision.User,
		Limit:     decision.Limit,
		Used:      decision.Used,
		Remaining: decision.Remaining,
	}, nil
}
