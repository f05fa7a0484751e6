package service

import (
	"context"
	"strings"
	"time"

	"snapfeed/internal/model"
	appErr "snapfeed/internal/pkg/errors"
	"snapfeed/internal/pkg/jwt"
	"snapfeed/internal/pkg/password"
	"snapfeed/internal/pkg/timeutil"
	"snapfeed/internal/repo"
)

const defaultStatus = "I am new!"

type AuthService struct {
	users     *repo.UserRepo
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, email, name, plainPassword string) (*model.User, error) {
	now := timeutil.NowUnix()
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:           newID(),
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Status:       defaultStatus,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login maps both unknown-email and wrong-password to ErrUnauthorized so the
// status code cannot be used as an existence oracle.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (string, string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return "", "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", "", err
	}
	return token, user.ID, nil
}

// GetStatus returns ErrUnauthorized when the token's user no longer
// resolves; a valid token for a vanished account is not authenticated.
func (s *AuthService) GetStatus(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return "", appErr.ErrUnauthorized
		}
		return "", err
	}
	return user.Status, nil
}

func (s *AuthService) UpdateStatus(ctx context.Context, userID, status string) error {
	err := s.users.UpdateStatus(ctx, userID, status, timeutil.NowUnix())
	if appErr.IsNotFound(err) {
		return appErr.ErrUnauthorized
	}
	return err
}
