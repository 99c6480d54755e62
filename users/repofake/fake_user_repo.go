package fakeuserrepo

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/users"
)

var (
	_ users.UserRepo    = (*FakeUserRepo)(nil)
	_ users.ProfileRepo = (*FakeUserRepo)(nil)
	_ users.RoleRepo    = (*FakeUserRepo)(nil)
)

// FakeUserRepo keeps users, profiles and roles in memory. Values are copied on the way
// in and out so callers never share state with the repo.
type FakeUserRepo struct {
	users    map[string]users.User
	emailIds map[string]string // email to user id
	profiles map[string]users.Profile
	roles    map[string]users.Role
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]users.User),
		emailIds: make(map[string]string),
		profiles: make(map[string]users.Profile),
		roles:    make(map[string]users.Role),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if existing, ok := ur.users[user.ID]; ok && existing.Email != user.Email {
		delete(ur.emailIds, existing.Email)
	}
	ur.users[user.ID] = *user
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u := ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

func (ur *FakeUserRepo) UpsertProfile(profile *users.Profile) error {
	if profile.UserID == "" {
		return errs.Wrapf(errs.ErrInvalidRequest, "profile user id is required")
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()

	now := time.Now()
	if existing, ok := ur.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	ur.profiles[profile.UserID] = *profile
	return nil
}

func (ur *FakeUserRepo) GetProfile(userID string) (*users.Profile, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	p, ok := ur.profiles[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

// ListProfiles returns all profiles ordered by name
func (ur *FakeUserRepo) ListProfiles() ([]*users.Profile, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.Profile, 0, len(ur.profiles))
	for _, p := range ur.profiles {
		p := p
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == list[j].Name {
			return list[i].UserID < list[j].UserID
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (ur *FakeUserRepo) SetRole(userID string, role users.Role) error {
	if !role.Valid() {
		return errs.Wrapf(errs.ErrInvalidRequest, "role %q", role)
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ur.roles[userID] = role
	return nil
}

func (ur *FakeUserRepo) GetRole(userID string) (users.Role, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	role, ok := ur.roles[userID]
	if !ok {
		return "", errs.ErrNotFound
	}
	return role, nil
}
