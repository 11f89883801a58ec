package messages

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	msgs []models.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	r.msgs = append(r.msgs, *msg)
	r.mu.Unlock()
	return msg, nil
}

func (r *MemoryRepository) List(_ context.Context, usernamePrefix string, limit int) ([]models.Message, error) {
	r.mu.RLock()
	var out []models.Message
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if m := r.msgs[i]; strings.HasPrefix(m.UserName, usernamePrefix) {
			out = append(out, m)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.msgs[:0]
	var n int64
	for _, m := range r.msgs {
		if m.UserID == userID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.msgs = kept
	return n, nil
}
