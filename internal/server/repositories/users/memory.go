package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It is used when no
// database is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*models.User
	byName map[string]string
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*models.User),
		byName: make(map[string]string),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = r.now()

	stored := clone(*user)
	r.byID[user.ID] = &stored
	r.byName[user.UserName] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := clone(*r.byID[id])
	return &u, nil
}

func (r *MemoryRepository) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLogin = at
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.User, 0, len(r.byID))
	for _, u := range r.byID {
		c := clone(*u)
		c.PasswordHash, c.Salt = nil, nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byName, u.UserName)
	delete(r.byID, userID)
	return nil
}

func clone(u models.User) models.User {
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.Salt = append([]byte(nil), u.Salt...)
	return u
}
