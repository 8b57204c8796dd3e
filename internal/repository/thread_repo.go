package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saarthi-chat/internal/domain"
)

// ThreadLimit es el máximo de threads devueltos por ListByOwner.
const ThreadLimit = 20

// ThreadRepository define el contrato de persistencia para threads.
// GetByID y GetByShareID devuelven domain.ErrThreadNotFound cuando no existe.
type ThreadRepository interface {
	Create(ctx context.Context, thread domain.Thread) error
	GetByID(ctx context.Context, id string) (domain.Thread, error)
	ListByOwner(ctx context.Context, userID string, limit int) ([]domain.Thread, error)
	UpdateTitle(ctx context.Context, id, title string, now time.Time) error
	SetPinned(ctx context.Context, id string, pinned bool, now time.Time) error
	Delete(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, id string, msg domain.ThreadMessage, now time.Time) (domain.ThreadMessage, error)
	SetShareID(ctx context.Context, id, shareID string, now time.Time) error
	GetByShareID(ctx context.Context, shareID string) (domain.Thread, error)
}

// PgThreadRepository implementa ThreadRepository usando pgxpool. Los mensajes
// se guardan como JSONB dentro de la fila del thread.
type PgThreadRepository struct {
	pool *pgxpool.Pool
}

func NewPgThreadRepository(pool *pgxpool.Pool) *PgThreadRepository {
	return &PgThreadRepository{pool: pool}
}

const threadColumns = `id, user_id, title, messages, message_count, last_message_preview, share_id, is_pinned, created_at, updated_at`

func (r *PgThreadRepository) Create(ctx context.Context, thread domain.Thread) error {
	const query = `
		INSERT INTO threads (` + threadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			messages = EXCLUDED.messages,
			message_count = EXCLUDED.message_count,
			last_message_preview = EXCLUDED.last_message_preview,
			share_id = EXCLUDED.share_id,
			is_pinned = EXCLUDED.is_pinned,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`
	messages, err := encodeMessages(thread.Messages)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query,
		thread.ID,
		thread.UserID,
		thread.Title,
		messages,
		len(thread.Messages),
		thread.LastMessagePreview,
		nullableString(thread.ShareID),
		thread.IsPinned,
		thread.CreatedAt,
		thread.UpdatedAt,
	)
	return err
}

func (r *PgThreadRepository) GetByID(ctx context.Context, id string) (domain.Thread, error) {
	const query = `SELECT ` + threadColumns + ` FROM threads WHERE id = $1`
	return scanThread(r.pool.QueryRow(ctx, query, id))
}

func (r *PgThreadRepository) GetByShareID(ctx context.Context, shareID string) (domain.Thread, error) {
	if shareID == "" {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	const query = `SELECT ` + threadColumns + ` FROM threads WHERE share_id = $1`
	return scanThread(r.pool.QueryRow(ctx, query, shareID))
}

func (r *PgThreadRepository) ListByOwner(ctx context.Context, userID string, limit int) ([]domain.Thread, error) {
	if limit <= 0 || limit > ThreadLimit {
		limit = ThreadLimit
	}
	const query = `
		SELECT ` + threadColumns + `
		FROM threads
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	threads := make([]domain.Thread, 0, limit)
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (r *PgThreadRepository) UpdateTitle(ctx context.Context, id, title string, now time.Time) error {
	const query = `UPDATE threads SET title = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, title, now)
}

func (r *PgThreadRepository) SetPinned(ctx context.Context, id string, pinned bool, now time.Time) error {
	const query = `UPDATE threads SET is_pinned = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, pinned, now)
}

func (r *PgThreadRepository) SetShareID(ctx context.Context, id, shareID string, now time.Time) error {
	const query = `UPDATE threads SET share_id = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, shareID, now)
}

func (r *PgThreadRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM threads WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// AppendMessage lee los mensajes actuales, agrega msg y escribe el resultado.
// No hay compare-and-swap: dos escrituras concurrentes se pisan.
func (r *PgThreadRepository) AppendMessage(ctx context.Context, id string, msg domain.ThreadMessage, now time.Time) (domain.ThreadMessage, error) {
	thread, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.ThreadMessage{}, err
	}
	stored := thread.Append(msg, now)

	messages, err := encodeMessages(thread.Messages)
	if err != nil {
		return domain.ThreadMessage{}, err
	}
	const query = `
		UPDATE threads
		SET messages = $2, message_count = $3, last_message_preview = $4, updated_at = $5
		WHERE id = $1
	`
	if err := r.execOne(ctx, query, id, messages, thread.MessageCount, thread.LastMessagePreview, thread.UpdatedAt); err != nil {
		return domain.ThreadMessage{}, err
	}
	return stored, nil
}

func (r *PgThreadRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrThreadNotFound
	}
	return nil
}

func scanThread(row pgx.Row) (domain.Thread, error) {
	var (
		t        domain.Thread
		messages []byte
		shareID  *string
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&messages,
		&t.MessageCount,
		&t.LastMessagePreview,
		&shareID,
		&t.IsPinned,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	if err != nil {
		return domain.Thread{}, err
	}
	if shareID != nil {
		t.ShareID = *shareID
	}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &t.Messages); err != nil {
			return domain.Thread{}, fmt.Errorf("decode thread %s messages: %w", t.ID, err)
		}
	}
	if t.Messages == nil {
		t.Messages = []domain.ThreadMessage{}
	}
	return t, nil
}

func encodeMessages(messages []domain.ThreadMessage) ([]byte, error) {
	if messages == nil {
		messages = []domain.ThreadMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return data, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
