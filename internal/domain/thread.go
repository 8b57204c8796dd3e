package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TitleMaxRunes   = 50
	PreviewMaxRunes = 100
	DefaultTitle    = "New Chat"
)

var (
	ErrThreadNotFound  = fmt.Errorf("%w: thread", ErrNotFound)
	ErrInvalidThreadID = fmt.Errorf("%w: invalid thread id", ErrValidation)
)

// ThreadIDMaxLen acota los ids generados por el cliente.
const ThreadIDMaxLen = 128

type Thread struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Messages           []ThreadMessage `json:"messages"`
	UserID             string          `json:"userId"`
	MessageCount       int             `json:"messageCount"`
	LastMessagePreview string          `json:"lastMessagePreview"`
	ShareID            string          `json:"shareId,omitempty"`
	IsPinned           bool            `json:"isPinned"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// NewThread arma un thread con su mensaje inicial y el título derivado de él.
func NewThread(id, ownerID string, first ThreadMessage, now time.Time) Thread {
	t := Thread{
		ID:        id,
		Title:     DeriveTitle(first.Content),
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Append(first, now)
	return t
}

// Append agrega un mensaje al final y recalcula los campos derivados.
// Si el id está vacío o ya existe en el thread se asigna uno nuevo.
// Devuelve el mensaje tal como quedó guardado.
func (t *Thread) Append(m ThreadMessage, now time.Time) ThreadMessage {
	if m.ID == "" || t.hasMessage(m.ID) {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	t.Messages = append(t.Messages, m)
	t.Recompute()
	t.UpdatedAt = now
	return m
}

// Recompute sincroniza messageCount y lastMessagePreview con Messages.
func (t *Thread) Recompute() {
	t.MessageCount = len(t.Messages)
	if len(t.Messages) == 0 {
		t.LastMessagePreview = ""
		return
	}
	t.LastMessagePreview = Preview(t.Messages[len(t.Messages)-1].Content)
}

// OwnedBy indica si el thread pertenece al usuario dado.
func (t Thread) OwnedBy(userID string) bool {
	return userID != "" && t.UserID == userID
}

// Last devuelve el último mensaje, si existe.
func (t Thread) Last() (ThreadMessage, bool) {
	if len(t.Messages) == 0 {
		return ThreadMessage{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

func (t Thread) hasMessage(id string) bool {
	for _, m := range t.Messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ValidateThreadID acepta ids opacos de letras, dígitos, '-' y '_'. Se
// usan como clave de documento y como segmento de ruta en el object store.
func ValidateThreadID(id string) error {
	if id == "" || len(id) > ThreadIDMaxLen {
		return ErrInvalidThreadID
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ErrInvalidThreadID
		}
	}
	return nil
}

// DeriveTitle genera el título a partir del primer mensaje del usuario.
func DeriveTitle(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return DefaultTitle
	}
	r := []rune(content)
	if len(r) > TitleMaxRunes {
		return string(r[:TitleMaxRunes]) + "..."
	}
	return content
}

// Preview recorta el contenido a PreviewMaxRunes caracteres.
func Preview(content string) string {
	return truncateRunes(content, PreviewMaxRunes)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
