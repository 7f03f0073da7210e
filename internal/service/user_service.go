package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/apartment_booking/internal/apperr"
	"github.com/Freeeeeet/apartment_booking/internal/auth"
	"github.com/Freeeeeet/apartment_booking/internal/model"
	"github.com/Freeeeeet/apartment_booking/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo repository.Users
	tokens   *auth.TokenManager
	clock    Clock
	logger   *zap.Logger
}

func NewUserService(userRepo repository.Users, tokens *auth.TokenManager, clock Clock, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		clock:    clock,
		logger:   logger,
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	Name            string
	Phone           *string
	ApartmentNumber *string
}

type LoginResult struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	ExpiresAt int64       `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Register регистрирует жильца
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" || in.Email == "" {
		return nil, apperr.Validation("missing_fields", "Username and email are required.")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("weak_password", "Password must be at least 8 characters long.")
	}

	apartment := normalizeText(in.ApartmentNumber)
	if apartment != nil {
		normalized, err := NormalizeApartmentNumber(*apartment)
		if err != nil {
			return nil, err
		}
		apartment = &normalized
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, apperr.Persistence(fmt.Errorf("check existing user: %w", err))
	}
	if existing != nil {
		return nil, apperr.Duplicate("Username is already taken.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	user := &model.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		Name:            strings.TrimSpace(in.Name),
		Phone:           normalizeText(in.Phone),
		ApartmentNumber: apartment,
		IsActive:        true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Duplicate("Username or email is already registered.")
		}
		return nil, apperr.Persistence(fmt.Errorf("create user: %w", err))
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("apartment", user.Apartment()),
	)

	return user, nil
}

// Login проверяет пароль и выпускает токен
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, apperr.Persistence(fmt.Errorf("get user: %w", err))
	}

	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("Failed login attempt", zap.String("username", username))
		return nil, apperr.Unauthorized("Invalid username or password.")
	}

	if !user.IsActive {
		return nil, apperr.New(apperr.KindForbidden, "account_disabled", "This account has been disabled.")
	}

	token, expires, err := s.tokens.Issue(IdentityOf(user))
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	now := s.clock.Now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))

	return &LoginResult{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: expires.Unix(),
		User:      user,
	}, nil
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperr.NotFound("user", id)
	}
	return user, nil
}

// List список пользователей для администратора
func (s *UserService) List(ctx context.Context, actor auth.Identity, page, perPage int) ([]*model.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperr.Forbidden("Only administrators can list users.")
	}

	filter := model.ReservationFilter{Page: page, PerPage: perPage}
	filter.Normalize()

	users, total, err := s.userRepo.List(ctx, filter.Page, filter.PerPage)
	if err != nil {
		return nil, 0, apperr.Persistence(fmt.Errorf("list users: %w", err))
	}
	return users, total, nil
}

// SetActive блокирует или разблокирует учётную запись
func (s *UserService) SetActive(ctx context.Context, actor auth.Identity, id int64, active bool) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only administrators can change account status.")
	}
	if id == actor.UserID && !active {
		return nil, apperr.Validation("self_deactivation", "You cannot disable your own account.")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return nil, apperr.Persistence(err)
	}
	user.IsActive = active

	s.logger.Info("User status changed",
		zap.Int64("user_id", id),
		zap.Bool("active", active),
		zap.Int64("actor_id", actor.UserID),
	)

	return user, nil
}

// EnsureAdmin создаёт администратора при первом запуске
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     username,
		Email:        username + "@localhost",
		PasswordHash: hash,
		Name:         "Administrator",
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("Bootstrap administrator created", zap.String("username", username))
	return nil
}

// IdentityOf роль и ключи пользователя для токена
func IdentityOf(user *model.User) auth.Identity {
	role := auth.RoleUser
	if user.IsAdmin {
		role = auth.RoleAdmin
	}
	return auth.Identity{UserID: user.ID, Role: role, Apartment: user.Apartment()}
}
