package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tenderledger/internal/amqp"
	"tenderledger/internal/auth"
	"tenderledger/internal/core"
	applog "tenderledger/internal/log"
	"tenderledger/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must not be empty")
	ErrEmptyUsername      = errors.New("username must not be empty")
)

// UserStore is the persistence the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// UserService registers and authenticates ledger owners.
type UserService struct {
	store      UserStore
	publisher  EventPublisher
	logger     *applog.Logger
	bcryptCost int
}

func NewUserService(store UserStore, publisher EventPublisher, logger *applog.Logger, bcryptCost int) *UserService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &UserService{
		store:      store,
		publisher:  publisher,
		logger:     logger.WithComponent(applog.ComponentUsers),
		bcryptCost: bcryptCost,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, ErrEmptyUsername
	}
	if strings.TrimSpace(password) == "" {
		return core.User{}, ErrWeakPassword
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, fmt.Errorf("register %s: %w", username, err)
	}

	s.logger.InfoContext(ctx, "User registered",
		applog.FieldOperation, applog.OpRegister,
		applog.FieldUsername, user.Username,
		applog.FieldOwner, user.ID)

	publishEvent(ctx, s.publisher, s.logger, amqp.NewLedgerEvent(amqp.EventUserRegistered, user.ID, user.ID))
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.WarnContext(ctx, "Login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldUsername, username,
			applog.FieldErrorType, applog.ErrorTypeAuth)
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("look up user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.WarnContext(ctx, "Login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldUsername, username,
			applog.FieldErrorType, applog.ErrorTypeAuth)
		return core.User{}, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash, s.bcryptCost) {
		s.rehash(ctx, &user, password)
	}

	s.logger.DebugContext(ctx, "User authenticated",
		applog.FieldOperation, applog.OpLogin,
		applog.FieldOwner, user.ID)
	return user, nil
}

// rehash stores the password again at the configured cost. Failure only
// costs the upgrade, never the login.
func (s *UserService) rehash(ctx context.Context, user *core.User, password string) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err == nil {
		err = s.store.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to rehash password",
			applog.FieldOwner, user.ID,
			applog.FieldError, err)
		return
	}
	user.PasswordHash = hash
	s.logger.InfoContext(ctx, "Password rehashed",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldOwner, user.ID)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, username, current, next string) error {
	user, err := s.Authenticate(ctx, username, current)
	if err != nil {
		return err
	}
	if strings.TrimSpace(next) == "" {
		return ErrWeakPassword
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "Password changed",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldOwner, user.ID)
	return nil
}
