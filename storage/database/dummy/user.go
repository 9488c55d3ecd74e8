package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}

	for _, usr := range repo.query() {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	users := repo.query()
	repo.db.RUnlock()

	if filter != nil && !filter.IsEmpty() {
		// users with search keyword matching any Name, Username or Email ?
		if filter.Search != "" {
			var filtered []user.User
			search := strings.ToLower(filter.Search)
			for _, u := range users {
				if strings.Contains(strings.ToLower(u.Username), search) ||
					strings.Contains(strings.ToLower(u.Email), search) ||
					strings.Contains(strings.ToLower(u.Name), search) {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
		// users with any of the specified roles
		if users != nil && len(filter.Roles) > 0 {
			var filtered []user.User
			for _, u := range users {
				for _, r := range filter.Roles {
					if u.RoleStartsWith(r) {
						filtered = append(filtered, u)
						break
					}
				}
			}
			users = filtered
		}
		if users != nil && filter.IsActive != nil {
			var filtered []user.User
			for _, u := range users {
				if u.IsActive == *filter.IsActive {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
		if users != nil && !filter.CreatedFrom.IsZero() {
			var filtered []user.User
			timeUTC := filter.CreatedFrom.UTC()
			for _, u := range users {
				if u.CreatedAt.Equal(timeUTC) || u.CreatedAt.After(timeUTC) {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
		if users != nil && !filter.CreatedTo.IsZero() {
			var filtered []user.User
			timeUTC := filter.CreatedTo.UTC()
			for _, u := range users {
				if u.CreatedAt.Before(timeUTC) || u.CreatedAt.Equal(timeUTC) {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return *orig, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	orig, err := repo.GetUserByUsernameOrEmail(ctx, usr.Username)
	if err != nil {
		if err == user.ErrNotFound {
			return repo.CreateUser(ctx, usr)
		}
		return user.User{}, err
	}
	usr.ID = orig.ID
	return repo.UpdateUser(ctx, usr, &usr.IsActive)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
