package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/repository"
	"saarthi-chat/internal/storage"
)

const renameMaxRunes = 200

var (
	ErrThreadForbidden = fmt.Errorf("%w: thread belongs to another user", domain.ErrUnauthorized)
	ErrInvalidTitle    = fmt.Errorf("%w: title must be 1-%d characters", domain.ErrValidation, renameMaxRunes)
)

// ThreadService aplica las reglas de propiedad sobre el ThreadRepository.
// Cada escritura relee el registro y devuelve la versión persistida.
type ThreadService struct {
	logger  *zap.Logger
	threads repository.ThreadRepository
	blobs   storage.ObjectStore
	now     func() time.Time
}

// NewThreadService recibe un ObjectStore opcional; sin él, borrar un thread
// no limpia sus adjuntos.
func NewThreadService(logger *zap.Logger, threads repository.ThreadRepository, blobs storage.ObjectStore) *ThreadService {
	return &ThreadService{
		logger:  logger,
		threads: threads,
		blobs:   blobs,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get devuelve el thread si pertenece a ident.
func (s *ThreadService) Get(ctx context.Context, ident domain.Identity, id string) (domain.Thread, error) {
	if err := domain.ValidateThreadID(id); err != nil {
		return domain.Thread{}, err
	}
	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return domain.Thread{}, err
	}
	if !thread.OwnedBy(ident.UserID) {
		return domain.Thread{}, ErrThreadForbidden
	}
	return thread, nil
}

// Create escribe el thread con su primer mensaje. Un id repetido sobrescribe.
func (s *ThreadService) Create(ctx context.Context, ident domain.Identity, id string, first domain.ThreadMessage) (domain.Thread, error) {
	if err := domain.ValidateThreadID(id); err != nil {
		return domain.Thread{}, err
	}
	thread := domain.NewThread(id, ident.UserID, first, s.now())
	if err := s.threads.Create(ctx, thread); err != nil {
		return domain.Thread{}, fmt.Errorf("threads: creating %s: %w", id, err)
	}
	return thread, nil
}

// Append agrega msg al final del thread. El llamador ya verificó la propiedad.
func (s *ThreadService) Append(ctx context.Context, id string, msg domain.ThreadMessage) (domain.ThreadMessage, error) {
	stored, err := s.threads.AppendMessage(ctx, id, msg, s.now())
	if err != nil {
		return domain.ThreadMessage{}, fmt.Errorf("threads: appending message to %s: %w", id, err)
	}
	return stored, nil
}

// List devuelve hasta repository.ThreadLimit threads, del más reciente al más viejo.
func (s *ThreadService) List(ctx context.Context, ident domain.Identity) ([]domain.Thread, error) {
	threads, err := s.threads.ListByOwner(ctx, ident.UserID, repository.ThreadLimit)
	if err != nil {
		return nil, fmt.Errorf("threads: listing: %w", err)
	}
	return threads, nil
}

func (s *ThreadService) Grouped(ctx context.Context, ident domain.Identity) (domain.ThreadGroups, error) {
	threads, err := s.List(ctx, ident)
	if err != nil {
		return domain.ThreadGroups{}, err
	}
	return domain.GroupThreads(threads, s.now()), nil
}

func (s *ThreadService) Rename(ctx context.Context, ident domain.Identity, id, title string) (domain.Thread, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > renameMaxRunes {
		return domain.Thread{}, ErrInvalidTitle
	}
	if _, err := s.Get(ctx, ident, id); err != nil {
		return domain.Thread{}, err
	}
	if err := s.threads.UpdateTitle(ctx, id, title, s.now()); err != nil {
		return domain.Thread{}, fmt.Errorf("threads: renaming %s: %w", id, err)
	}
	return s.threads.GetByID(ctx, id)
}

func (s *ThreadService) SetPinned(ctx context.Context, ident domain.Identity, id string, pinned bool) (domain.Thread, error) {
	if _, err := s.Get(ctx, ident, id); err != nil {
		return domain.Thread{}, err
	}
	if err := s.threads.SetPinned(ctx, id, pinned, s.now()); err != nil {
		return domain.Thread{}, fmt.Errorf("threads: pinning %s: %w", id, err)
	}
	return s.threads.GetByID(ctx, id)
}

// Delete borra el thread y, en segundo plano, los adjuntos bajo su prefijo.
func (s *ThreadService) Delete(ctx context.Context, ident domain.Identity, id string) error {
	if _, err := s.Get(ctx, ident, id); err != nil {
		return err
	}
	if err := s.threads.Delete(ctx, id); err != nil {
		return fmt.Errorf("threads: deleting %s: %w", id, err)
	}
	if s.blobs != nil {
		go s.cleanupBlobs(storage.ThreadPrefix(ident.UserID, id))
	}
	return nil
}

func (s *ThreadService) cleanupBlobs(prefix string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := s.blobs.DeletePrefix(ctx, prefix)
	if err != nil {
		s.logger.Warn("attachment cleanup failed", zap.String("prefix", prefix), zap.Error(err))
		return
	}
	s.logger.Info("attachments cleaned up", zap.String("prefix", prefix), zap.Int("deleted", n))
}

// Share habilita el acceso de solo lectura. El token se asigna una sola vez;
// llamadas posteriores devuelven el mismo.
func (s *ThreadService) Share(ctx context.Context, ident domain.Identity, id string) (string, error) {
	thread, err := s.Get(ctx, ident, id)
	if err != nil {
		return "", err
	}
	if thread.ShareID != "" {
		return thread.ShareID, nil
	}
	shareID := uuid.NewString()
	if err := s.threads.SetShareID(ctx, id, shareID, s.now()); err != nil {
		return "", fmt.Errorf("threads: sharing %s: %w", id, err)
	}
	return shareID, nil
}

// GetShared lee un thread por su token de compartir, sin chequeo de dueño.
func (s *ThreadService) GetShared(ctx context.Context, shareID string) (domain.Thread, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	thread, err := s.threads.GetByShareID(ctx, shareID)
	if err != nil {
		return domain.Thread{}, err
	}
	thread.UserID = ""
	return thread, nil
}

// isMissing indica si err significa que el thread no existe.
func isMissing(err error) bool {
	return errors.Is(err, domain.ErrThreadNotFound)
}
