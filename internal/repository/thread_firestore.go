package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"saarthi-chat/internal/domain"
)

// FirestoreThreadRepository implementa ThreadRepository sobre la colección
// "threads", un documento por thread con los mensajes embebidos.
type FirestoreThreadRepository struct {
	client *firestore.Client
}

func NewFirestoreThreadRepository(client *firestore.Client) *FirestoreThreadRepository {
	return &FirestoreThreadRepository{client: client}
}

func (r *FirestoreThreadRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(threadsCollection).Doc(id)
}

func (r *FirestoreThreadRepository) Create(ctx context.Context, thread domain.Thread) error {
	if _, err := r.doc(thread.ID).Set(ctx, toThreadDoc(thread)); err != nil {
		return fmt.Errorf("threads: creating %s: %w", thread.ID, err)
	}
	return nil
}

func (r *FirestoreThreadRepository) GetByID(ctx context.Context, id string) (domain.Thread, error) {
	snap, err := r.doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	if err != nil {
		return domain.Thread{}, fmt.Errorf("threads: getting %s: %w", id, err)
	}
	return decodeThread(snap)
}

func (r *FirestoreThreadRepository) GetByShareID(ctx context.Context, shareID string) (domain.Thread, error) {
	if shareID == "" {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	it := r.client.Collection(threadsCollection).Where("shareId", "==", shareID).Limit(1).Documents(ctx)
	defer it.Stop()
	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return domain.Thread{}, domain.ErrThreadNotFound
	}
	if err != nil {
		return domain.Thread{}, fmt.Errorf("threads: querying share %s: %w", shareID, err)
	}
	return decodeThread(snap)
}

func (r *FirestoreThreadRepository) ListByOwner(ctx context.Context, userID string, limit int) ([]domain.Thread, error) {
	if limit <= 0 || limit > ThreadLimit {
		limit = ThreadLimit
	}
	it := r.client.Collection(threadsCollection).
		Where("userId", "==", userID).
		OrderBy("updatedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	threads := make([]domain.Thread, 0, limit)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return threads, nil
		}
		if err != nil {
			return nil, fmt.Errorf("threads: listing for %s: %w", userID, err)
		}
		t, err := decodeThread(snap)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
}

func (r *FirestoreThreadRepository) UpdateTitle(ctx context.Context, id, title string, now time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "title", Value: title},
		{Path: "updatedAt", Value: now},
	})
}

func (r *FirestoreThreadRepository) SetPinned(ctx context.Context, id string, pinned bool, now time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "isPinned", Value: pinned},
		{Path: "updatedAt", Value: now},
	})
}

func (r *FirestoreThreadRepository) SetShareID(ctx context.Context, id, shareID string, now time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "shareId", Value: shareID},
		{Path: "updatedAt", Value: now},
	})
}

func (r *FirestoreThreadRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("threads: deleting %s: %w", id, err)
	}
	return nil
}

// AppendMessage lee el documento, agrega msg y reescribe los campos derivados.
// No usa transacciones: la última escritura gana.
func (r *FirestoreThreadRepository) AppendMessage(ctx context.Context, id string, msg domain.ThreadMessage, now time.Time) (domain.ThreadMessage, error) {
	thread, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.ThreadMessage{}, err
	}
	stored := thread.Append(msg, now)

	doc := toThreadDoc(thread)
	err = r.update(ctx, id, []firestore.Update{
		{Path: "messages", Value: doc.Messages},
		{Path: "messageCount", Value: doc.MessageCount},
		{Path: "lastMessagePreview", Value: doc.LastMessagePreview},
		{Path: "updatedAt", Value: doc.UpdatedAt},
	})
	if err != nil {
		return domain.ThreadMessage{}, err
	}
	return stored, nil
}

func (r *FirestoreThreadRepository) update(ctx context.Context, id string, updates []firestore.Update) error {
	_, err := r.doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return domain.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("threads: updating %s: %w", id, err)
	}
	return nil
}

func decodeThread(snap *firestore.DocumentSnapshot) (domain.Thread, error) {
	var doc threadDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Thread{}, fmt.Errorf("threads: decoding %s: %w", snap.Ref.ID, err)
	}
	if doc.ID == "" {
		doc.ID = snap.Ref.ID
	}
	return doc.toDomain()
}
