package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"saarthi-chat/internal/domain"
)

// InMemoryThreadRepository guarda threads en el proceso. Sirve para
// desarrollo local y para el CLI; se pierde al reiniciar.
type InMemoryThreadRepository struct {
	mu      sync.RWMutex
	threads map[string]domain.Thread
}

func NewInMemoryThreadRepository() *InMemoryThreadRepository {
	return &InMemoryThreadRepository{threads: make(map[string]domain.Thread)}
}

func (r *InMemoryThreadRepository) Create(_ context.Context, thread domain.Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[thread.ID] = copyThread(thread)
	return nil
}

func (r *InMemoryThreadRepository) GetByID(_ context.Context, id string) (domain.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[id]
	if !ok {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	return copyThread(t), nil
}

func (r *InMemoryThreadRepository) ListByOwner(_ context.Context, userID string, limit int) ([]domain.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Thread, 0)
	for _, t := range r.threads {
		if t.UserID == userID {
			out = append(out, copyThread(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryThreadRepository) UpdateTitle(_ context.Context, id, title string, now time.Time) error {
	return r.update(id, func(t *domain.Thread) {
		t.Title = title
		t.UpdatedAt = now
	})
}

func (r *InMemoryThreadRepository) SetPinned(_ context.Context, id string, pinned bool, now time.Time) error {
	return r.update(id, func(t *domain.Thread) {
		t.IsPinned = pinned
		t.UpdatedAt = now
	})
}

func (r *InMemoryThreadRepository) SetShareID(_ context.Context, id, shareID string, now time.Time) error {
	return r.update(id, func(t *domain.Thread) {
		t.ShareID = shareID
		t.UpdatedAt = now
	})
}

func (r *InMemoryThreadRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[id]; !ok {
		return domain.ErrThreadNotFound
	}
	delete(r.threads, id)
	return nil
}

func (r *InMemoryThreadRepository) AppendMessage(_ context.Context, id string, msg domain.ThreadMessage, now time.Time) (domain.ThreadMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return domain.ThreadMessage{}, domain.ErrThreadNotFound
	}
	t = copyThread(t)
	stored := t.Append(msg, now)
	r.threads[id] = t
	return stored, nil
}

func (r *InMemoryThreadRepository) GetByShareID(_ context.Context, shareID string) (domain.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.threads {
		if shareID != "" && t.ShareID == shareID {
			return copyThread(t), nil
		}
	}
	return domain.Thread{}, domain.ErrThreadNotFound
}

func (r *InMemoryThreadRepository) update(id string, fn func(*domain.Thread)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return domain.ErrThreadNotFound
	}
	fn(&t)
	r.threads[id] = t
	return nil
}

func copyThread(t domain.Thread) domain.Thread {
	t.Messages = append([]domain.ThreadMessage(nil), t.Messages...)
	return t
}

// InMemoryUserRepository es la contraparte en memoria de los perfiles.
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *InMemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *InMemoryUserRepository) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

var (
	_ ThreadRepository = (*InMemoryThreadRepository)(nil)
	_ UserRepository   = (*InMemoryUserRepository)(nil)
)
