package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole valida un rol recibido desde el exterior.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAssistant, RoleSystem:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// Attachment referencia un archivo ya subido al object store.
type Attachment struct {
	ID          string `json:"id" firestore:"id"`
	Name        string `json:"name" firestore:"name"`
	URL         string `json:"url" firestore:"url"`
	ContentType string `json:"contentType" firestore:"contentType"`
	Size        int64  `json:"size,omitempty" firestore:"size,omitempty"`
}

type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Parts       Parts        `json:"parts,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type MessageMetadata struct {
	Model          string `json:"model,omitempty" firestore:"model,omitempty"`
	TokenCount     int    `json:"tokenCount,omitempty" firestore:"tokenCount,omitempty"`
	ProcessingTime int64  `json:"processingTime,omitempty" firestore:"processingTime,omitempty"`
}

// ThreadMessage es la forma persistida de un Message dentro de un Thread.
type ThreadMessage struct {
	Message
	UpdatedAt time.Time        `json:"updatedAt"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// HasContent indica si el mensaje lleva texto o adjuntos.
func (m Message) HasContent() bool {
	return m.Content != "" || len(m.Attachments) > 0
}
