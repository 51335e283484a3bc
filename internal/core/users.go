package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/mrwolf/vibenote-server/internal/auth"
	"github.com/mrwolf/vibenote-server/internal/db"
	"github.com/mrwolf/vibenote-server/internal/models"
)

const (
	minPasswordChars = 8
	maxNicknameChars = 50
)

var (
	// ErrEmailTaken is returned when signing up with a registered email
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// SignupInput creates an account
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Signup creates an account and its progression row
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "must be a valid email address")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordChars {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordChars))
	}
	nickname, err := cleanNickname(in.Nickname)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if _, err := s.store.EnsureStats(user.ID, user.CreatedAt); err != nil {
		s.logger.Error("creating stats", "user_id", user.ID, "error", err)
	}
	s.logger.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks an email and password
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Profile returns the account
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateProfile changes the nickname
func (s *Service) UpdateProfile(ctx context.Context, userID, nickname string) (*models.User, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.UpdateNickname(userID, nickname)
	if err != nil {
		return nil, fmt.Errorf("updating nickname: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.Profile(ctx, userID)
}

func cleanNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) > maxNicknameChars {
		return "", invalid("nickname", fmt.Sprintf("must be at most %d characters", maxNicknameChars))
	}
	return nickname, nil
}
