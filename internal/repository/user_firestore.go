package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"saarthi-chat/internal/domain"
)

// FirestoreUserRepository guarda perfiles en la colección "users", con el uid como id de documento.
type FirestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client}
}

func (r *FirestoreUserRepository) Create(ctx context.Context, user domain.User) error {
	if _, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, toUserDoc(user)); err != nil {
		return fmt.Errorf("users: creating %s: %w", user.ID, err)
	}
	return nil
}

func (r *FirestoreUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	snap, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("users: getting %s: %w", id, err)
	}
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.User{}, fmt.Errorf("users: decoding %s: %w", id, err)
	}
	if doc.ID == "" {
		doc.ID = id
	}
	return doc.toDomain(), nil
}

// Update reescribe el documento completo de un perfil existente.
func (r *FirestoreUserRepository) Update(ctx context.Context, user domain.User) error {
	ref := r.client.Collection(usersCollection).Doc(user.ID)
	if _, err := ref.Get(ctx); status.Code(err) == codes.NotFound {
		return domain.ErrUserNotFound
	} else if err != nil {
		return fmt.Errorf("users: getting %s: %w", user.ID, err)
	}
	if _, err := ref.Set(ctx, toUserDoc(user)); err != nil {
		return fmt.Errorf("users: updating %s: %w", user.ID, err)
	}
	return nil
}
