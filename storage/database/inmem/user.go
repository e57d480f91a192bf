package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prepdesk/prepdesk/core/user"
)

// UserRepository is a map-backed user.Repository for tests and local runs.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]user.User
}

var _ user.Repository = (*UserRepository)(nil) // interface compliance check

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]user.User)}
}

func (repo *UserRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}
	for _, usr := range repo.users {
		if _, skip := excluded[usr.ID]; skip {
			continue
		}
		if strings.EqualFold(usr.Email, email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *UserRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	repo.users[usr.ID] = usr
	return usr, nil
}

func (repo *UserRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	users := make([]user.User, 0, len(repo.users))
	for _, usr := range repo.users {
		users = append(users, usr)
	}
	sortUsersByCreation(users)
	return users, nil
}

func (repo *UserRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	usr, ok := repo.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *UserRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, usr := range repo.users {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	filter.Clean()
	users := make([]user.User, 0)
	for _, usr := range repo.users {
		if !matchesFilter(usr, filter) {
			continue
		}
		users = append(users, usr)
	}
	sortUsersByCreation(users)
	return users, nil
}

func matchesFilter(usr user.User, filter user.QueryFilter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Name), needle) &&
			!strings.Contains(strings.ToLower(usr.Email), needle) {
			return false
		}
	}
	if filter.Roles != nil && !overlaps(usr.Roles, filter.Roles) {
		return false
	}
	if filter.IsActive != nil && *filter.IsActive == usr.Deactivated() {
		return false
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (repo *UserRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	existing, ok := repo.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name != "" {
		existing.Name = usr.Name
	}
	if usr.Email != "" {
		existing.Email = usr.Email
	}
	if usr.Roles != nil {
		existing.Roles = usr.Roles
	}
	if len(usr.PasswordHash) > 0 {
		existing.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		existing.SetActive(*isActive)
	}
	if !usr.UpdatedAt.IsZero() {
		existing.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		existing.LastLogin = usr.LastLogin
	}

	repo.users[usr.ID] = existing
	return existing, nil
}

func (repo *UserRepository) ReplaceUserSubjects(ctx context.Context, userID string, subjectIDs []string) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	usr, ok := repo.users[userID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.SubjectIDs = append([]string(nil), subjectIDs...)
	usr.Onboarded = true
	usr.UpdatedAt = time.Now().UTC()
	repo.users[userID] = usr
	return usr, nil
}

func (repo *UserRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, id := range ids {
		delete(repo.users, id)
	}
	return nil
}

func sortUsersByCreation(users []user.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
