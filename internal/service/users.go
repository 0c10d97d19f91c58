package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/storage"
)

// UserService manages the accounts stored in the single users document.
type UserService struct {
	base
}

// NewUserService creates a new UserService with the given storage backend.
func NewUserService(store storage.Store, opts ...Option) *UserService {
	s := &UserService{}
	s.init(store, opts)
	return s
}

// GetUsers returns every account. On first run it creates and persists the
// default admin account. Records missing a role or creation time are
// backfilled in the returned slice only.
func (s *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	unlock := s.locks.Lock(storage.DomainUsers, storage.UsersKey)
	defer unlock()
	return s.load(ctx)
}

// load must be called with the users lock held.
func (s *UserService) load(ctx context.Context) ([]models.User, error) {
	if err := s.store.EnsureLayout(ctx); err != nil {
		return nil, err
	}
	if err := s.migrator.MigrateUsers(ctx); err != nil {
		return nil, err
	}

	var users []models.User
	found, err := s.read(ctx, storage.DomainUsers, storage.UsersKey, &users)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	if !found {
		users = []models.User{models.DefaultAdmin(s.now())}
		if err := s.save(ctx, users); err != nil {
			return nil, err
		}
		slog.Warn("Created default admin account, change its password", "username", users[0].Username)
		return users, nil
	}

	models.NormalizeUsers(users, s.now())
	return users, nil
}

func (s *UserService) save(ctx context.Context, users []models.User) error {
	if err := s.write(ctx, storage.DomainUsers, storage.UsersKey, users); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}
	return nil
}

// ValidateUser returns the account matching both username and password.
// Any mismatch yields the same ErrNotFound.
func (s *UserService) ValidateUser(ctx context.Context, username, password string) (*models.PublicUser, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := lo.Find(users, func(u models.User) bool {
		return u.Username == username && u.Password == password
	})
	if !ok {
		slog.Debug("Credential check failed", "username", username)
		return nil, fmt.Errorf("invalid username or password: %w", ErrNotFound)
	}
	pub := u.Public()
	return &pub, nil
}

// GetUser returns the account named username without its password.
func (s *UserService) GetUser(ctx context.Context, username string) (*models.PublicUser, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	u, ok := lo.Find(users, func(u models.User) bool { return u.Username == username })
	if !ok {
		return nil, notFound("user", username)
	}
	pub := u.Public()
	return &pub, nil
}

// CreateUser adds an account. The nickname defaults to the username and the
// role to user.
func (s *UserService) CreateUser(ctx context.Context, in models.NewUser) (*models.PublicUser, error) {
	unlock := s.locks.Lock(storage.DomainUsers, storage.UsersKey)
	defer unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if lo.ContainsBy(users, func(u models.User) bool { return u.Username == in.Username }) {
		return nil, invalid("username", "%q already exists", in.Username)
	}
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validatePassword("password", in.Password); err != nil {
		return nil, err
	}

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname = in.Username
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if err := validateStruct(models.UserPatch{Nickname: &nickname, Role: &role}); err != nil {
		return nil, err
	}

	u := models.User{
		Username:  in.Username,
		Password:  in.Password,
		Nickname:  nickname,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.save(ctx, append(users, u)); err != nil {
		return nil, err
	}

	slog.Info("User created", "username", u.Username, "role", u.Role)
	pub := u.Public()
	return &pub, nil
}

// UpdateUserPassword replaces the password of username after checking current.
func (s *UserService) UpdateUserPassword(ctx context.Context, username, current, next string) error {
	unlock := s.locks.Lock(storage.DomainUsers, storage.UsersKey)
	defer unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	_, i, ok := lo.FindIndexOf(users, func(u models.User) bool { return u.Username == username })
	if !ok {
		return notFound("user", username)
	}
	if users[i].Password != current {
		return fmt.Errorf("current password does not match: %w", ErrAuth)
	}
	if err := validatePassword("newPassword", next); err != nil {
		return err
	}

	users[i].Password = next
	if err := s.save(ctx, users); err != nil {
		return err
	}
	slog.Info("Password changed", "username", username)
	return nil
}

// UpdateUser applies the fields set in patch to username.
func (s *UserService) UpdateUser(ctx context.Context, username string, patch models.UserPatch) (*models.PublicUser, error) {
	if patch.Nickname != nil {
		trimmed := strings.TrimSpace(*patch.Nickname)
		patch.Nickname = &trimmed
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(storage.DomainUsers, storage.UsersKey)
	defer unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	_, i, ok := lo.FindIndexOf(users, func(u models.User) bool { return u.Username == username })
	if !ok {
		return nil, notFound("user", username)
	}

	if patch.Nickname != nil {
		users[i].Nickname = *patch.Nickname
	}
	if patch.Role != nil {
		users[i].Role = *patch.Role
	}
	if err := s.save(ctx, users); err != nil {
		return nil, err
	}

	slog.Info("User updated", "username", username)
	pub := users[i].Public()
	return &pub, nil
}

// DeleteUser removes the account named username. The user's other documents
// are left in place.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	unlock := s.locks.Lock(storage.DomainUsers, storage.UsersKey)
	defer unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	remaining := lo.Reject(users, func(u models.User, _ int) bool { return u.Username == username })
	if len(remaining) == len(users) {
		return notFound("user", username)
	}
	if err := s.save(ctx, remaining); err != nil {
		return err
	}
	slog.Info("User deleted", "username", username)
	return nil
}

// GetUsersWithoutPasswords lists every account with passwords stripped.
func (s *UserService) GetUsersWithoutPasswords(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u models.User, _ int) models.PublicUser { return u.Public() }), nil
}
