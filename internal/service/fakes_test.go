package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/repository"
	"saarthi-chat/internal/storage"
)

// fakeThreadRepo guarda threads en memoria con la misma semántica de
// lectura-modificación-escritura que los repos reales.
type fakeThreadRepo struct {
	mu        sync.Mutex
	threads   map[string]domain.Thread
	createErr error
	appendErr error
	appends   int
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{threads: map[string]domain.Thread{}}
}

func (r *fakeThreadRepo) Create(_ context.Context, thread domain.Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.threads[thread.ID] = cloneThread(thread)
	return nil
}

func (r *fakeThreadRepo) GetByID(_ context.Context, id string) (domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	return cloneThread(t), nil
}

func (r *fakeThreadRepo) ListByOwner(_ context.Context, userID string, limit int) ([]domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Thread
	for _, t := range r.threads {
		if t.UserID == userID {
			out = append(out, cloneThread(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeThreadRepo) UpdateTitle(_ context.Context, id, title string, now time.Time) error {
	return r.update(id, func(t *domain.Thread) { t.Title = title; t.UpdatedAt = now })
}

func (r *fakeThreadRepo) SetPinned(_ context.Context, id string, pinned bool, now time.Time) error {
	return r.update(id, func(t *domain.Thread) { t.IsPinned = pinned; t.UpdatedAt = now })
}

func (r *fakeThreadRepo) SetShareID(_ context.Context, id, shareID string, now time.Time) error {
	return r.update(id, func(t *domain.Thread) { t.ShareID = shareID; t.UpdatedAt = now })
}

func (r *fakeThreadRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[id]; !ok {
		return domain.ErrThreadNotFound
	}
	delete(r.threads, id)
	return nil
}

func (r *fakeThreadRepo) AppendMessage(_ context.Context, id string, msg domain.ThreadMessage, now time.Time) (domain.ThreadMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends++
	if r.appendErr != nil {
		return domain.ThreadMessage{}, r.appendErr
	}
	t, ok := r.threads[id]
	if !ok {
		return domain.ThreadMessage{}, domain.ErrThreadNotFound
	}
	stored := t.Append(msg, now)
	r.threads[id] = t
	return stored, nil
}

func (r *fakeThreadRepo) GetByShareID(_ context.Context, shareID string) (domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.threads {
		if t.ShareID == shareID {
			return cloneThread(t), nil
		}
	}
	return domain.Thread{}, domain.ErrThreadNotFound
}

func (r *fakeThreadRepo) update(id string, fn func(*domain.Thread)) error {
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

func cloneThread(t domain.Thread) domain.Thread {
	t.Messages = append([]domain.ThreadMessage(nil), t.Messages...)
	return t
}

var _ repository.ThreadRepository = (*fakeThreadRepo)(nil)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]domain.User
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

// fakeObjectStore registra cada llamada; failOn hace fallar los Put cuyo path lo contenga.
type fakeObjectStore struct {
	mu       sync.Mutex
	puts     []string
	deleted  []string
	prefixes []string
	failOn   string
	done     chan struct{}
}

func (s *fakeObjectStore) Put(_ context.Context, path, _ string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && strings.Contains(path, s.failOn) {
		return "", errors.New("upload failed")
	}
	s.puts = append(s.puts, path)
	return storage.PublicURL("bucket", path), nil
}

func (s *fakeObjectStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	return nil
}

func (s *fakeObjectStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	s.prefixes = append(s.prefixes, prefix)
	s.mu.Unlock()
	if s.done != nil {
		close(s.done)
	}
	return 1, nil
}

func (s *fakeObjectStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

var _ storage.ObjectStore = (*fakeObjectStore)(nil)

var (
	alice = domain.Identity{UserID: "alice", Provider: "google.com", Email: "alice@example.com"}
	bob   = domain.Identity{UserID: "bob", Provider: domain.ProviderAnonymous, Anonymous: true}
)

func userMessage(content string) domain.ThreadMessage {
	return domain.ThreadMessage{Message: domain.Message{Role: domain.RoleUser, Content: content}}
}
