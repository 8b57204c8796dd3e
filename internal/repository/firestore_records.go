package repository

import (
	"fmt"
	"time"

	"saarthi-chat/internal/domain"
)

const (
	threadsCollection = "threads"
	usersCollection   = "users"
)

type threadDoc struct {
	ID                 string       `firestore:"id"`
	Title              string       `firestore:"title"`
	Messages           []messageDoc `firestore:"messages"`
	UserID             string       `firestore:"userId"`
	MessageCount       int          `firestore:"messageCount"`
	LastMessagePreview string       `firestore:"lastMessagePreview"`
	ShareID            string       `firestore:"shareId,omitempty"`
	IsPinned           bool         `firestore:"isPinned"`
	CreatedAt          time.Time    `firestore:"createdAt"`
	UpdatedAt          time.Time    `firestore:"updatedAt"`
}

type messageDoc struct {
	ID          string                  `firestore:"id"`
	Role        string                  `firestore:"role"`
	Content     string                  `firestore:"content"`
	Parts       []domain.PartRecord     `firestore:"parts,omitempty"`
	Attachments []domain.Attachment     `firestore:"attachments,omitempty"`
	CreatedAt   time.Time               `firestore:"createdAt"`
	UpdatedAt   time.Time               `firestore:"updatedAt"`
	Metadata    *domain.MessageMetadata `firestore:"metadata,omitempty"`
}

type userDoc struct {
	ID          string    `firestore:"uid"`
	Email       string    `firestore:"email"`
	DisplayName string    `firestore:"name"`
	AvatarURL   string    `firestore:"avatar"`
	IsAnonymous bool      `firestore:"isAnonymous"`
	Provider    string    `firestore:"provider"`
	Occupation  string    `firestore:"occupation"`
	Preferences string    `firestore:"userPreferences"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func toThreadDoc(t domain.Thread) threadDoc {
	doc := threadDoc{
		ID:                 t.ID,
		Title:              t.Title,
		Messages:           make([]messageDoc, 0, len(t.Messages)),
		UserID:             t.UserID,
		MessageCount:       len(t.Messages),
		LastMessagePreview: t.LastMessagePreview,
		ShareID:            t.ShareID,
		IsPinned:           t.IsPinned,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	for _, m := range t.Messages {
		doc.Messages = append(doc.Messages, toMessageDoc(m))
	}
	return doc
}

func toMessageDoc(m domain.ThreadMessage) messageDoc {
	return messageDoc{
		ID:          m.ID,
		Role:        string(m.Role),
		Content:     m.Content,
		Parts:       m.Parts.Records(),
		Attachments: m.Attachments,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Metadata:    m.Metadata,
	}
}

func (d threadDoc) toDomain() (domain.Thread, error) {
	t := domain.Thread{
		ID:                 d.ID,
		Title:              d.Title,
		Messages:           make([]domain.ThreadMessage, 0, len(d.Messages)),
		UserID:             d.UserID,
		MessageCount:       d.MessageCount,
		LastMessagePreview: d.LastMessagePreview,
		ShareID:            d.ShareID,
		IsPinned:           d.IsPinned,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	for _, md := range d.Messages {
		m, err := md.toDomain()
		if err != nil {
			return domain.Thread{}, fmt.Errorf("thread %s: %w", d.ID, err)
		}
		t.Messages = append(t.Messages, m)
	}
	return t, nil
}

func (d messageDoc) toDomain() (domain.ThreadMessage, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return domain.ThreadMessage{}, err
	}
	parts, err := domain.PartsFromRecords(d.Parts)
	if err != nil {
		return domain.ThreadMessage{}, err
	}
	return domain.ThreadMessage{
		Message: domain.Message{
			ID:          d.ID,
			Role:        role,
			Content:     d.Content,
			Parts:       parts,
			Attachments: d.Attachments,
			CreatedAt:   d.CreatedAt,
		},
		UpdatedAt: d.UpdatedAt,
		Metadata:  d.Metadata,
	}, nil
}

func toUserDoc(u domain.User) userDoc {
	return userDoc{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		IsAnonymous: u.IsAnonymous,
		Provider:    u.Provider,
		Occupation:  u.Occupation,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:          d.ID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		AvatarURL:   d.AvatarURL,
		IsAnonymous: d.IsAnonymous,
		Provider:    d.Provider,
		Occupation:  d.Occupation,
		Preferences: d.Preferences,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
